package projector

import (
	"time"

	"github.com/google/uuid"
	"github.com/relidb/relidb/datalog"
)

// decodeByTag turns one raw scanned SQL value (as a database/sql driver
// would hand it back: int64, float64, string, []byte, or nil) into a typed
// value, given the tag that disambiguates it -- the counterpart to
// sqlbuilder.PushTypedValue's encoding.
func decodeByTag(tag datalog.ValueType, raw interface{}) (datalog.TypedValue, error) {
	switch tag {
	case datalog.TypeRef:
		n, err := asInt64(raw)
		if err != nil {
			return datalog.TypedValue{}, err
		}
		return datalog.RefValue(datalog.Entid(n)), nil
	case datalog.TypeBoolean:
		n, err := asInt64(raw)
		if err != nil {
			return datalog.TypedValue{}, err
		}
		return datalog.BooleanValue(n != 0), nil
	case datalog.TypeLong:
		n, err := asInt64(raw)
		if err != nil {
			return datalog.TypedValue{}, err
		}
		return datalog.LongValue(n), nil
	case datalog.TypeDouble:
		f, ok := raw.(float64)
		if !ok {
			return datalog.TypedValue{}, newError(ErrCodeMalformedValue, "expected a float64 for a double value, got %T", raw)
		}
		return datalog.DoubleValue(f), nil
	case datalog.TypeInstant:
		n, err := asInt64(raw)
		if err != nil {
			return datalog.TypedValue{}, err
		}
		return datalog.InstantValue(time.UnixMicro(n)), nil
	case datalog.TypeString:
		s, err := asString(raw)
		if err != nil {
			return datalog.TypedValue{}, err
		}
		return datalog.StringValue(s), nil
	case datalog.TypeUuid:
		b, ok := raw.([]byte)
		if !ok {
			return datalog.TypedValue{}, newError(ErrCodeMalformedValue, "expected a byte blob for a uuid value, got %T", raw)
		}
		u, err := uuid.FromBytes(b)
		if err != nil {
			return datalog.TypedValue{}, newError(ErrCodeMalformedValue, "malformed uuid blob: %v", err)
		}
		return datalog.UuidValue(u), nil
	case datalog.TypeKeyword:
		s, err := asString(raw)
		if err != nil {
			return datalog.TypedValue{}, err
		}
		kw, err := datalog.ParseKeyword(s)
		if err != nil {
			return datalog.TypedValue{}, newError(ErrCodeMalformedValue, "malformed keyword %q: %v", s, err)
		}
		return datalog.KeywordValue(kw), nil
	default:
		return datalog.TypedValue{}, newError(ErrCodeUnknownTypeTag, "unrecognized value_type_tag %d", tag)
	}
}

func asInt64(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, newError(ErrCodeMalformedValue, "expected an integer, got %T", raw)
	}
}

func asString(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", newError(ErrCodeMalformedValue, "expected a string, got %T", raw)
	}
}

func tagFromRaw(raw interface{}) (datalog.ValueType, error) {
	n, err := asInt64(raw)
	if err != nil {
		return 0, err
	}
	return datalog.ValueType(n), nil
}
