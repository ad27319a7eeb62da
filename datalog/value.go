package datalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ValueType is the closed set of typed-value tags the codec supports. Each
// tag is distinct so that two values of different types are never mistaken
// for one another even when their underlying storage representation
// collides (see the Boolean/Long guard below).
type ValueType byte

const (
	TypeRef ValueType = iota
	TypeBoolean
	_ // reserved
	_ // reserved
	TypeInstant
	TypeLong
	TypeDouble
	_ // reserved
	_ // reserved
	_ // reserved
	TypeString
	TypeUuid
	_ // reserved
	TypeKeyword
)

// String renders a tag name for diagnostics.
func (t ValueType) String() string {
	switch t {
	case TypeRef:
		return "ref"
	case TypeBoolean:
		return "boolean"
	case TypeInstant:
		return "instant"
	case TypeLong:
		return "long"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeUuid:
		return "uuid"
	case TypeKeyword:
		return "keyword"
	default:
		return fmt.Sprintf("valuetype(%d)", byte(t))
	}
}

// IsNumeric reports whether the tag belongs to the numeric compatibility
// class (Long and Double are mutually comparable; nothing else is).
func (t ValueType) IsNumeric() bool {
	return t == TypeLong || t == TypeDouble
}

// TypedValue pairs a domain value with the tag that disambiguates its
// storage representation. It is the Go side of the (value, value_type_tag)
// pair every column in the datoms contract carries.
type TypedValue struct {
	tag ValueType
	ref Entid
	b   bool
	i   int64
	f   float64
	s   string
	u   uuid.UUID
	k   Keyword
	t   time.Time
}

// Tag returns the value's type tag.
func (v TypedValue) Tag() ValueType { return v.tag }

// RefValue builds a Ref-typed value (an entid used as a value position).
func RefValue(e Entid) TypedValue { return TypedValue{tag: TypeRef, ref: e} }

// BooleanValue builds a Boolean-typed value. Boolean carries its own tag
// (1) distinct from Long specifically so that a bare integer 0 or 1 stored
// against an unrelated attribute is never misread as a boolean, and vice
// versa -- the codec's one closed-set collision it must actively guard.
func BooleanValue(b bool) TypedValue { return TypedValue{tag: TypeBoolean, b: b} }

// LongValue builds a Long-typed (64-bit integer) value.
func LongValue(i int64) TypedValue { return TypedValue{tag: TypeLong, i: i} }

// DoubleValue builds a Double-typed (64-bit float) value.
func DoubleValue(f float64) TypedValue { return TypedValue{tag: TypeDouble, f: f} }

// StringValue builds a String-typed value.
func StringValue(s string) TypedValue { return TypedValue{tag: TypeString, s: s} }

// KeywordValue builds a Keyword-typed value.
func KeywordValue(k Keyword) TypedValue { return TypedValue{tag: TypeKeyword, k: k} }

// UuidValue builds a Uuid-typed value.
func UuidValue(u uuid.UUID) TypedValue { return TypedValue{tag: TypeUuid, u: u} }

// InstantValue builds an Instant-typed value, truncated to microsecond
// precision -- the resolution the codec actually stores an instant at
// (PushTypedValue encodes it as a UnixMicro integer, and the projector
// decodes it back the same way), so any finer remainder the caller
// supplies would silently fail to round-trip.
func InstantValue(t time.Time) TypedValue {
	return TypedValue{tag: TypeInstant, t: t.UTC().Truncate(time.Microsecond)}
}

// Ref returns the value's entid, valid only when Tag() == TypeRef.
func (v TypedValue) Ref() Entid { return v.ref }

// Boolean returns the value's bool, valid only when Tag() == TypeBoolean.
func (v TypedValue) Boolean() bool { return v.b }

// Long returns the value's int64, valid only when Tag() == TypeLong.
func (v TypedValue) Long() int64 { return v.i }

// Double returns the value's float64, valid only when Tag() == TypeDouble.
func (v TypedValue) Double() float64 { return v.f }

// Str returns the value's string, valid only when Tag() == TypeString.
func (v TypedValue) Str() string { return v.s }

// Uuid returns the value's uuid.UUID, valid only when Tag() == TypeUuid.
func (v TypedValue) Uuid() uuid.UUID { return v.u }

// KeywordVal returns the value's Keyword, valid only when Tag() == TypeKeyword.
func (v TypedValue) KeywordVal() Keyword { return v.k }

// Instant returns the value's time.Time, valid only when Tag() == TypeInstant.
func (v TypedValue) Instant() time.Time { return v.t }

// Numeric returns the value as a float64 for comparison purposes, valid
// only when Tag().IsNumeric().
func (v TypedValue) Numeric() float64 {
	if v.tag == TypeLong {
		return float64(v.i)
	}
	return v.f
}

// String renders the value for diagnostics.
func (v TypedValue) String() string {
	switch v.tag {
	case TypeRef:
		return fmt.Sprintf("#ref(%d)", v.ref)
	case TypeBoolean:
		return fmt.Sprintf("%v", v.b)
	case TypeLong:
		return fmt.Sprintf("%d", v.i)
	case TypeDouble:
		return fmt.Sprintf("%v", v.f)
	case TypeString:
		return fmt.Sprintf("%q", v.s)
	case TypeKeyword:
		return v.k.String()
	case TypeUuid:
		return v.u.String()
	case TypeInstant:
		return v.t.Format(time.RFC3339Nano)
	default:
		return "<invalid typed value>"
	}
}

// Equal reports whether two typed values are the same tag and payload.
func (v TypedValue) Equal(other TypedValue) bool {
	if v.tag != other.tag {
		return false
	}
	switch v.tag {
	case TypeRef:
		return v.ref == other.ref
	case TypeBoolean:
		return v.b == other.b
	case TypeLong:
		return v.i == other.i
	case TypeDouble:
		return v.f == other.f
	case TypeString:
		return v.s == other.s
	case TypeKeyword:
		return v.k.Equal(other.k)
	case TypeUuid:
		return v.u == other.u
	case TypeInstant:
		return v.t.Equal(other.t)
	default:
		return false
	}
}
