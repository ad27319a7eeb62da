package datalog

import (
	"fmt"
	"strings"
)

// Entid is the integer identifier used for both entities and attributes.
// Attributes are entities themselves; an attribute's entid is looked up
// through the Schema's ident <-> entid mapping.
type Entid int64

// Datom is the storage row contract: a five-tuple recording one assertion
// or retraction. The query pipeline never constructs these directly -- it
// only emits SQL shaped to select e/a/v/tx/added columns from a table or
// view the storage engine exposes -- but the shape is part of the public
// contract between the translator and that engine.
type Datom struct {
	E             Entid
	A             Entid
	V             TypedValue
	Tx            Entid
	Added         bool
	ValueTypeTag  ValueType
}

// String renders a datom for diagnostics.
func (d Datom) String() string {
	return fmt.Sprintf("[%d %d %v %d %v]", d.E, d.A, d.V, d.Tx, d.Added)
}

// Keyword names an entity, almost always an attribute, as a namespaced
// pair (namespace, name). A name beginning with "_" denotes a reversed
// attribute reference: the pattern [?x :ns/_attr ?y] is equivalent to
// [?y :ns/attr ?x]. See Keyword.Reverse and Keyword.IsReversed.
type Keyword struct {
	ns   string
	name string
}

// NewKeyword builds a Keyword from an explicit namespace and name. Both
// must be non-empty.
func NewKeyword(ns, name string) (Keyword, error) {
	if ns == "" {
		return Keyword{}, fmt.Errorf("datalog: keyword namespace must not be empty")
	}
	if name == "" {
		return Keyword{}, fmt.Errorf("datalog: keyword name must not be empty")
	}
	return Keyword{ns: ns, name: name}, nil
}

// ParseKeyword parses the surface form ":ns/name" into a Keyword. The
// leading colon is optional so callers can pass either the raw EDN
// keyword token or its trimmed form.
func ParseKeyword(s string) (Keyword, error) {
	s = strings.TrimPrefix(s, ":")
	if s == "" {
		return Keyword{}, fmt.Errorf("datalog: empty keyword")
	}
	idx := strings.LastIndexByte(s, '/')
	if idx < 0 {
		return Keyword{}, fmt.Errorf("datalog: keyword %q has no namespace", s)
	}
	return NewKeyword(s[:idx], s[idx+1:])
}

// Namespace returns the keyword's namespace.
func (k Keyword) Namespace() string { return k.ns }

// Name returns the keyword's bare name, including any leading "_" that
// marks it as a reversed reference.
func (k Keyword) Name() string { return k.name }

// IsReversed reports whether the keyword's name begins with "_", marking
// it as a reversed attribute reference.
func (k Keyword) IsReversed() bool {
	return strings.HasPrefix(k.name, "_")
}

// Reverse returns the keyword with its reversal marker toggled:
// reverse(reverse(k)) == k for every namespaced keyword (spec invariant 1).
func (k Keyword) Reverse() Keyword {
	if k.IsReversed() {
		return Keyword{ns: k.ns, name: strings.TrimPrefix(k.name, "_")}
	}
	return Keyword{ns: k.ns, name: "_" + k.name}
}

// String renders the keyword in its surface ":ns/name" form.
func (k Keyword) String() string {
	return fmt.Sprintf(":%s/%s", k.ns, k.name)
}

// Compare orders keywords lexically by namespace then name.
func (k Keyword) Compare(other Keyword) int {
	if c := strings.Compare(k.ns, other.ns); c != 0 {
		return c
	}
	return strings.Compare(k.name, other.name)
}

// Equal reports structural equality.
func (k Keyword) Equal(other Keyword) bool {
	return k.ns == other.ns && k.name == other.name
}
