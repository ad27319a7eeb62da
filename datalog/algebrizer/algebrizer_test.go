package algebrizer

import (
	"testing"

	"github.com/relidb/relidb/datalog"
	"github.com/relidb/relidb/datalog/parser"
	"github.com/relidb/relidb/datalog/schema"
	"github.com/relidb/relidb/datalog/sqlir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch := schema.New()
	mustAdd := func(ns, name string, entid datalog.Entid, vt datalog.ValueType, fulltext bool) {
		kw, err := datalog.NewKeyword(ns, name)
		require.NoError(t, err)
		require.NoError(t, sch.Add(schema.Attribute{Ident: kw, Entid: entid, ValueType: vt, Fulltext: fulltext}))
	}
	mustAdd("foo", "bar", 65537, datalog.TypeString, false)
	mustAdd("foo", "count", 65538, datalog.TypeLong, false)
	mustAdd("foo", "hidden", 65539, datalog.TypeBoolean, false)
	mustAdd("foo", "name", 65540, datalog.TypeString, false)
	mustAdd("foo", "owner", 65541, datalog.TypeRef, false)
	return sch
}

func TestAlgebrizeSimplePattern(t *testing.T) {
	sch := testSchema(t)
	q, err := parser.Parse(`[:find ?x . :where [?x :foo/bar "yyy"]]`)
	require.NoError(t, err)

	cc, err := Algebrize(sch, q)
	require.NoError(t, err)
	assert.False(t, cc.IsKnownEmpty())
	require.Len(t, cc.From, 1)
	assert.Equal(t, "datoms", cc.From[0].Table.Name())

	qas, ok := cc.ColumnBindings["x"]
	require.True(t, ok)
	assert.Equal(t, sqlir.ColEntity, qas[0].Column.Fixed)
}

func TestAlgebrizeSelfJoinUnifiesSharedVariable(t *testing.T) {
	sch := testSchema(t)
	q, err := parser.Parse(`[:find ?x :where [?x :foo/bar ?v] [?x :foo/name ?v]]`)
	require.NoError(t, err)

	cc, err := Algebrize(sch, q)
	require.NoError(t, err)
	require.Len(t, cc.From, 2)

	vQAs := cc.ColumnBindings["v"]
	require.Len(t, vQAs, 2)

	foundUnify := false
	for _, w := range cc.Wheres {
		if w.Kind() == "infix" {
			op, left, right := w.Infix()
			if op == sqlir.OpEq && left.Kind() == "column" && right.Kind() == "column" {
				foundUnify = true
			}
		}
	}
	assert.True(t, foundUnify, "expected an equality constraint unifying the two ?v occurrences")
}

func TestAlgebrizeReversedAttributeSwapsPositions(t *testing.T) {
	sch := testSchema(t)
	q, err := parser.Parse(`[:find ?owner :where [?item :foo/_owner ?owner]]`)
	require.NoError(t, err)

	cc, err := Algebrize(sch, q)
	require.NoError(t, err)
	require.Len(t, cc.From, 1)

	ownerQAs := cc.ColumnBindings["owner"]
	require.Len(t, ownerQAs, 1)
	assert.Equal(t, sqlir.ColEntity, ownerQAs[0].Column.Fixed)

	itemQAs := cc.ColumnBindings["item"]
	require.Len(t, itemQAs, 1)
	assert.Equal(t, sqlir.ColValue, itemQAs[0].Column.Fixed)
}

func TestAlgebrizeUnknownAttributeMarksKnownEmpty(t *testing.T) {
	sch := testSchema(t)
	q, err := parser.Parse(`[:find ?x :where [?x :foo/nope "z"]]`)
	require.NoError(t, err)

	cc, err := Algebrize(sch, q)
	require.NoError(t, err)
	assert.True(t, cc.IsKnownEmpty())
	assert.Contains(t, cc.EmptyBecause, "foo/nope")
	assert.Empty(t, cc.From)
}

// TestAlgebrizeUnresolvedIdentAgainstRefAttributeMarksKnownEmpty covers the
// spec's :db/ident worked scenario directly: an empty schema can never
// resolve :db/ident itself, so the attribute lookup is what marks the CC
// known-empty here, before the ref-typed value-position lookup even runs.
func TestAlgebrizeUnresolvedIdentAgainstRefAttributeMarksKnownEmpty(t *testing.T) {
	sch := schema.New()
	q, err := parser.Parse(`[:find ?x :where [?x :db/ident :no/exist]]`)
	require.NoError(t, err)

	cc, err := Algebrize(sch, q)
	require.NoError(t, err)
	assert.True(t, cc.IsKnownEmpty())
}

func TestAlgebrizeRefValuePositionResolvesIdentToEntid(t *testing.T) {
	sch := testSchema(t)
	q, err := parser.Parse(`[:find ?x :where [?x :foo/owner :foo/bar]]`)
	require.NoError(t, err)

	cc, err := Algebrize(sch, q)
	require.NoError(t, err)
	assert.False(t, cc.IsKnownEmpty())

	require.Len(t, cc.Wheres, 2) // attribute equality, then the resolved-ref value equality
	op, _, right := cc.Wheres[1].Infix()
	assert.Equal(t, sqlir.OpEq, op)
	assert.Equal(t, datalog.RefValue(65537), right.ValueLiteral())
}

func TestAlgebrizeRefValuePositionUnresolvedIdentMarksKnownEmpty(t *testing.T) {
	sch := testSchema(t)
	q, err := parser.Parse(`[:find ?x :where [?x :foo/owner :foo/nope]]`)
	require.NoError(t, err)

	cc, err := Algebrize(sch, q)
	require.NoError(t, err)
	assert.True(t, cc.IsKnownEmpty())
}

func TestAlgebrizePredicateNarrowsNumericType(t *testing.T) {
	sch := testSchema(t)
	q, err := parser.Parse(`[:find ?x :where [?x :foo/count ?c] (> ?c 10)]`)
	require.NoError(t, err)

	cc, err := Algebrize(sch, q)
	require.NoError(t, err)
	assert.False(t, cc.IsKnownEmpty())
	assert.Equal(t, datalog.UnitValueTypeSet(datalog.TypeLong), cc.KnownTypes["c"])
}

// TestAlgebrizeSimpleOrJoinCollapsesToInlineAlternation mirrors spec.md
// §8's simple or-join scenario: two single-pattern arms on the same shared
// entity variable collapse into one inline OR on a single alias rather
// than a union subquery.
func TestAlgebrizeSimpleOrJoinCollapsesToInlineAlternation(t *testing.T) {
	sch := testSchema(t)
	q, err := parser.Parse(`[:find ?x :where
		(or-join [?x]
			[?x :foo/bar "a"]
			[?x :foo/name "b"])]`)
	require.NoError(t, err)

	cc, err := Algebrize(sch, q)
	require.NoError(t, err)
	assert.False(t, cc.IsKnownEmpty())
	assert.Empty(t, cc.Computed)

	require.Len(t, cc.From, 1)
	assert.False(t, cc.From[0].Table.IsComputed())

	qas, ok := cc.ColumnBindings["x"]
	require.True(t, ok)
	assert.True(t, qas[0].Column.IsFixed)
	assert.Equal(t, sqlir.ColEntity, qas[0].Column.Fixed)

	require.Len(t, cc.Wheres, 1)
	assert.Equal(t, "or", cc.Wheres[0].Kind())
	ors := cc.Wheres[0].Operands()
	require.Len(t, ors, 2)
	for _, arm := range ors {
		assert.Equal(t, "and", arm.Kind())
		assert.Len(t, arm.Operands(), 2)
	}
}

// TestAlgebrizeComplexOrJoinBuildsComputedUnion mirrors spec.md §8's
// complex or-join scenario: an arm that isn't a single pattern (here, an
// `and` of two patterns) forces the general union-subquery rendering.
func TestAlgebrizeComplexOrJoinBuildsComputedUnion(t *testing.T) {
	sch := testSchema(t)
	q, err := parser.Parse(`[:find ?x :where
		(or-join [?x]
			[?x :foo/bar "a"]
			(and [?x :foo/name ?n] [?x :foo/count 1]))]`)
	require.NoError(t, err)

	cc, err := Algebrize(sch, q)
	require.NoError(t, err)
	require.Len(t, cc.Computed, 1)
	require.Len(t, cc.Computed[0].Arms, 2)

	qas, ok := cc.ColumnBindings["x"]
	require.True(t, ok)
	assert.False(t, qas[0].Column.IsFixed)
	assert.Equal(t, "x", qas[0].Column.Variable.Var)

	require.Len(t, cc.From, 1)
	assert.True(t, cc.From[0].Table.IsComputed())
}

func TestAlgebrizeNotBuildsNotExistsConstraint(t *testing.T) {
	sch := testSchema(t)
	q, err := parser.Parse(`[:find ?x :where [?x :foo/bar "yyy"] (not [?x :foo/hidden true])]`)
	require.NoError(t, err)

	cc, err := Algebrize(sch, q)
	require.NoError(t, err)

	found := false
	for _, w := range cc.Wheres {
		if w.Kind() == "not_exists" {
			found = true
			sub := w.Subquery()
			assert.NotEmpty(t, sub.Constraints)
		}
	}
	assert.True(t, found, "expected a NOT EXISTS constraint")
}

func TestAlgebrizeUnresolvedAttributeBareLongGetsBooleanGuard(t *testing.T) {
	sch := testSchema(t)
	q, err := parser.Parse(`[:find ?x :where [?x _ 1]]`)
	require.NoError(t, err)

	cc, err := Algebrize(sch, q)
	require.NoError(t, err)
	assert.False(t, cc.IsKnownEmpty())
	require.Len(t, cc.From, 1)
	assert.Equal(t, "datoms", cc.From[0].Table.Name())

	require.Len(t, cc.Wheres, 1)
	assert.Equal(t, "and", cc.Wheres[0].Kind())
	ops := cc.Wheres[0].Operands()
	require.Len(t, ops, 2)
	op, _, _ := ops[1].Infix()
	assert.Equal(t, sqlir.OpNe, op)
}

func TestAlgebrizeConflictingValueTypesMarksKnownEmpty(t *testing.T) {
	sch := testSchema(t)
	q, err := parser.Parse(`[:find ?x :where [?x :foo/count ?c] [?x :foo/hidden ?c]]`)
	require.NoError(t, err)

	cc, err := Algebrize(sch, q)
	require.NoError(t, err)
	assert.True(t, cc.IsKnownEmpty())
	assert.NotEmpty(t, cc.EmptyBecause)
}
