package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relidb/relidb/datalog"
	"github.com/relidb/relidb/datalog/schema"
)

// parseAttrFlag parses one --attr flag of the form
// "ns/name:type[:flag...]", each flag one of many, unique, index, fulltext
// or component, e.g. "person/name:string" or
// "person/friend:ref:many:index". Intended for the demonstration CLI only --
// real schema bootstrapping is an external collaborator's job.
func parseAttrFlag(s string) (schema.Attribute, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return schema.Attribute{}, fmt.Errorf("--attr %q: expected ns/name:type[:flag...]", s)
	}
	nsName := strings.SplitN(parts[0], "/", 2)
	if len(nsName) != 2 {
		return schema.Attribute{}, fmt.Errorf("--attr %q: ident must be ns/name", s)
	}
	kw, err := datalog.NewKeyword(nsName[0], nsName[1])
	if err != nil {
		return schema.Attribute{}, fmt.Errorf("--attr %q: %w", s, err)
	}

	vt, err := parseValueType(parts[1])
	if err != nil {
		return schema.Attribute{}, fmt.Errorf("--attr %q: %w", s, err)
	}

	attr := schema.Attribute{Ident: kw, ValueType: vt}
	for _, flag := range parts[2:] {
		switch flag {
		case "many":
			attr.Cardinality = schema.CardinalityMany
		case "unique":
			attr.Unique = true
		case "index":
			attr.Index = true
		case "fulltext":
			attr.Fulltext = true
		case "component":
			attr.Component = true
		default:
			return schema.Attribute{}, fmt.Errorf("--attr %q: unknown modifier %q", s, flag)
		}
	}
	return attr, nil
}

func parseValueType(s string) (datalog.ValueType, error) {
	switch s {
	case "ref":
		return datalog.TypeRef, nil
	case "boolean":
		return datalog.TypeBoolean, nil
	case "long":
		return datalog.TypeLong, nil
	case "double":
		return datalog.TypeDouble, nil
	case "string":
		return datalog.TypeString, nil
	case "uuid":
		return datalog.TypeUuid, nil
	case "keyword":
		return datalog.TypeKeyword, nil
	case "instant":
		return datalog.TypeInstant, nil
	default:
		return 0, fmt.Errorf("unknown value type %q", s)
	}
}

// buildSchema assembles a schema.Schema from repeated --attr flags,
// auto-assigning sequential entids starting at 1.
func buildSchema(attrFlags []string) (*schema.Schema, error) {
	sch := schema.New()
	for i, s := range attrFlags {
		attr, err := parseAttrFlag(s)
		if err != nil {
			return nil, err
		}
		attr.Entid = datalog.Entid(i + 1)
		if err := sch.Add(attr); err != nil {
			return nil, err
		}
	}
	return sch, nil
}

// parseInputFlag parses one --in flag of the form "name=value", guessing
// the value's type the same permissive way the teacher's interactive mode
// guesses a typed value from a bare token.
func parseInputFlag(s string) (string, datalog.TypedValue, error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 {
		return "", datalog.TypedValue{}, fmt.Errorf("--in %q: expected name=value", s)
	}
	name, raw := parts[0], parts[1]

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return name, datalog.LongValue(n), nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return name, datalog.DoubleValue(f), nil
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return name, datalog.BooleanValue(b), nil
	}
	return name, datalog.StringValue(strings.Trim(raw, `"`)), nil
}
