package translator

import (
	"testing"

	"github.com/relidb/relidb/datalog"
	"github.com/relidb/relidb/datalog/algebrizer"
	"github.com/relidb/relidb/datalog/parser"
	"github.com/relidb/relidb/datalog/query"
	"github.com/relidb/relidb/datalog/schema"
	"github.com/relidb/relidb/datalog/sqlbuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fooBarSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch := schema.New()
	kw, err := datalog.NewKeyword("foo", "bar")
	require.NoError(t, err)
	require.NoError(t, sch.Add(schema.Attribute{Ident: kw, Entid: 99, ValueType: datalog.TypeString}))
	return sch
}

func compile(t *testing.T, sch *schema.Schema, src string, inputs map[query.Variable]datalog.TypedValue) sqlbuilder.Query {
	t.Helper()
	q, err := parser.Parse(src)
	require.NoError(t, err)
	cc, err := algebrizer.Algebrize(sch, q)
	require.NoError(t, err)
	sel, err := Translate(cc, q, inputs)
	require.NoError(t, err)
	out, err := sqlbuilder.Build(sel)
	require.NoError(t, err)
	return out
}

// TestTranslateScalarForcesLimitOneNoDistinct mirrors the spec's first
// worked scenario: a scalar find forces an implicit LIMIT 1 and suppresses
// DISTINCT.
func TestTranslateScalarForcesLimitOneNoDistinct(t *testing.T) {
	sch := fooBarSchema(t)
	out := compile(t, sch, `[:find ?x . :where [?x :foo/bar "yyy"]]`, nil)

	assert.Equal(t,
		"SELECT `datoms00`.e AS `?x` FROM `datoms` AS `datoms00` WHERE `datoms00`.a = 99 AND `datoms00`.v = $v0 LIMIT 1",
		out.SQL)
	require.Len(t, out.Params, 1)
	assert.Equal(t, "yyy", out.Params[0].Value)
}

// TestTranslateCollRequiresDistinct mirrors the spec's second worked
// scenario: a collection find is DISTINCT and carries no implicit limit.
func TestTranslateCollRequiresDistinct(t *testing.T) {
	sch := fooBarSchema(t)
	out := compile(t, sch, `[:find [?x ...] :where [?x :foo/bar "yyy"]]`, nil)

	assert.Equal(t,
		"SELECT DISTINCT `datoms00`.e AS `?x` FROM `datoms` AS `datoms00` WHERE `datoms00`.a = 99 AND `datoms00`.v = $v0",
		out.SQL)
}

// TestTranslateUnresolvedAttributeBareLongGuard mirrors the spec's third
// worked scenario: an unknown attribute matched against the bare long 1
// carries the Boolean-exclusion guard.
func TestTranslateUnresolvedAttributeBareLongGuard(t *testing.T) {
	sch := schema.New()
	out := compile(t, sch, `[:find ?x :where [?x _ 1]]`, nil)

	assert.Equal(t,
		"SELECT DISTINCT `datoms00`.e AS `?x` FROM `datoms` AS `datoms00` WHERE (`datoms00`.v = 1 AND `datoms00`.value_type_tag <> 1)",
		out.SQL)
}

// TestTranslateConflictingTypesShortCircuitsToKnownEmpty mirrors the
// spec's known-empty scenario: a contradiction detected during
// algebrization still produces well-formed, degenerate SQL rather than an
// error.
func TestTranslateConflictingTypesShortCircuitsToKnownEmpty(t *testing.T) {
	sch := schema.New()
	longKw, err := datalog.NewKeyword("foo", "count")
	require.NoError(t, err)
	boolKw, err := datalog.NewKeyword("foo", "hidden")
	require.NoError(t, err)
	require.NoError(t, sch.Add(schema.Attribute{Ident: longKw, Entid: 1, ValueType: datalog.TypeLong}))
	require.NoError(t, sch.Add(schema.Attribute{Ident: boolKw, Entid: 2, ValueType: datalog.TypeBoolean}))

	q, err := parser.Parse(`[:find ?x :where [?x :foo/count ?c] [?x :foo/hidden ?c]]`)
	require.NoError(t, err)
	cc, err := algebrizer.Algebrize(sch, q)
	require.NoError(t, err)
	require.True(t, cc.IsKnownEmpty())

	sel, err := Translate(cc, q, nil)
	require.NoError(t, err)
	out, err := sqlbuilder.Build(sel)
	require.NoError(t, err)
	assert.Equal(t, "SELECT DISTINCT NULL AS `?x` FROM (SELECT 1 WHERE 0) LIMIT 0", out.SQL)
}

// TestTranslateUnknownAttributeIdentShortCircuitsToKnownEmpty mirrors the
// spec's empty-schema worked scenario: :db/ident never resolves, so the
// whole query collapses to the bare existence-check projection rather than
// a shape-preserving NULL column, since no pattern ever bound ?x to a real
// column.
func TestTranslateUnknownAttributeIdentShortCircuitsToKnownEmpty(t *testing.T) {
	sch := schema.New()
	q, err := parser.Parse(`[:find ?x :where [?x :db/ident :no/exist]]`)
	require.NoError(t, err)
	cc, err := algebrizer.Algebrize(sch, q)
	require.NoError(t, err)
	require.True(t, cc.IsKnownEmpty())
	assert.Contains(t, cc.EmptyBecause, "db/ident")

	sel, err := Translate(cc, q, nil)
	require.NoError(t, err)
	out, err := sqlbuilder.Build(sel)
	require.NoError(t, err)
	assert.Equal(t, "SELECT DISTINCT 1 FROM (SELECT 1 WHERE 0) LIMIT 0", out.SQL)
}

func TestTranslateLimitOneDisablesDistinctEvenForRelation(t *testing.T) {
	sch := fooBarSchema(t)
	out := compile(t, sch, `{:find [?x] :where [[?x :foo/bar "yyy"]] :limit 1}`, nil)
	assert.NotContains(t, out.SQL, "DISTINCT")
	assert.Contains(t, out.SQL, "LIMIT 1")
}

func TestTranslateUnboundLimitVarEmitsNamedPlaceholder(t *testing.T) {
	sch := fooBarSchema(t)
	out := compile(t, sch, `{:find [?x] :in [?n] :where [[?x :foo/bar "yyy"]] :limit ?n}`, nil)
	assert.Contains(t, out.SQL, "LIMIT $n")
}

func TestTranslateBoundLimitVarInlinesLiteral(t *testing.T) {
	sch := fooBarSchema(t)
	inputs := map[query.Variable]datalog.TypedValue{"n": datalog.LongValue(5)}
	out := compile(t, sch, `{:find [?x] :in [?n] :where [[?x :foo/bar "yyy"]] :limit ?n}`, inputs)
	assert.Contains(t, out.SQL, "LIMIT 5")
}

func TestTranslateOrderByAscending(t *testing.T) {
	sch := fooBarSchema(t)
	out := compile(t, sch, `[:find ?x :where [?x :foo/bar "yyy"] :order-by ?x]`, nil)
	assert.Contains(t, out.SQL, "ORDER BY `?x` ASC")
}
