package datalog

// ValueTypeSet tracks the set of ValueType tags a variable might still take
// during algebrization. It narrows as clauses are processed: each pattern
// or predicate touching a variable intersects the set with whatever types
// that clause allows, and an empty intersection means the query can never
// produce a row (see EmptyBecause in the algebrizer package).
//
// Represented as a bitmask rather than the tagged None/Any/One/Many union
// the algebra is normally described with -- ValueType has few enough tags
// that a bitmask carries the same algebra with less ceremony.
type ValueTypeSet uint16

// AnyValueType is the full set: every tag the codec knows about.
var AnyValueType = ValueTypeSet(0).
	with(TypeRef).with(TypeBoolean).with(TypeInstant).with(TypeLong).
	with(TypeDouble).with(TypeString).with(TypeUuid).with(TypeKeyword)

// NumericValueTypes is the numeric compatibility class: Long and Double.
var NumericValueTypes = UnitValueTypeSet(TypeLong).with(TypeDouble)

// UnitValueTypeSet builds a set containing exactly one tag.
func UnitValueTypeSet(t ValueType) ValueTypeSet {
	return ValueTypeSet(0).with(t)
}

func (s ValueTypeSet) with(t ValueType) ValueTypeSet {
	return s | (1 << uint(t))
}

// Contains reports whether t is a member of the set.
func (s ValueTypeSet) Contains(t ValueType) bool {
	return s&(1<<uint(t)) != 0
}

// IsEmpty reports whether the set has no members -- the algebrizer's
// known-empty signal for a variable's type.
func (s ValueTypeSet) IsEmpty() bool {
	return s == 0
}

// Union returns the set of types either s or other allows.
func (s ValueTypeSet) Union(other ValueTypeSet) ValueTypeSet {
	return s | other
}

// Intersect returns the set of types both s and other allow.
func (s ValueTypeSet) Intersect(other ValueTypeSet) ValueTypeSet {
	return s & other
}

// Exemplar returns one member of the set, preferring Ref, for callers that
// need a single representative type (e.g. to pick a placeholder SQL type).
// Reports false for an empty set.
func (s ValueTypeSet) Exemplar() (ValueType, bool) {
	if s.IsEmpty() {
		return 0, false
	}
	for t := TypeRef; t <= TypeKeyword; t++ {
		if s.Contains(t) {
			return t, true
		}
	}
	return 0, false
}

// IsUnit reports whether the set has exactly one member.
func (s ValueTypeSet) IsUnit() bool {
	t, ok := s.Exemplar()
	if !ok {
		return false
	}
	return s == UnitValueTypeSet(t)
}
