package projector

import (
	"testing"

	"github.com/relidb/relidb/datalog"
	"github.com/relidb/relidb/datalog/algebrizer"
	"github.com/relidb/relidb/datalog/parser"
	"github.com/relidb/relidb/datalog/query"
	"github.com/relidb/relidb/datalog/schema"
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

func algebrize(t *testing.T, sch *schema.Schema, src string) (*algebrizer.ConjoiningClauses, *query.Query) {
	t.Helper()
	q, err := parser.Parse(src)
	require.NoError(t, err)
	cc, err := algebrizer.Algebrize(sch, q)
	require.NoError(t, err)
	return cc, q
}

func TestPlanOmitsTagColumnForPinnedType(t *testing.T) {
	sch := fooBarSchema(t)
	cc, q := algebrize(t, sch, `[:find ?x :where [?x :foo/bar "yyy"]]`)
	plan := Plan(cc, q.Find.Vars)
	require.Len(t, plan, 1)
	assert.False(t, plan[0].HasTag)
}

func TestPlanIncludesTagColumnForUnresolvedAttribute(t *testing.T) {
	sch := schema.New()
	cc, q := algebrize(t, sch, `[:find ?x ?v :where [?x _ ?v]]`)
	plan := Plan(cc, q.Find.Vars)
	require.Len(t, plan, 2)
	assert.False(t, plan[0].HasTag, "?x is pinned to Ref by entity position")
	assert.True(t, plan[1].HasTag, "?v's type is never narrowed past AnyValueType")
}

func TestScalarDecodesFirstRowFirstColumn(t *testing.T) {
	sch := fooBarSchema(t)
	cc, q := algebrize(t, sch, `[:find ?x . :where [?x :foo/bar "yyy"]]`)
	plan := Plan(cc, q.Find.Vars)

	v, ok, err := Scalar(plan, [][]interface{}{{int64(42)}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, datalog.RefValue(42), v)
}

func TestScalarReportsAbsentOverZeroRows(t *testing.T) {
	sch := fooBarSchema(t)
	cc, q := algebrize(t, sch, `[:find ?x . :where [?x :foo/bar "yyy"]]`)
	plan := Plan(cc, q.Find.Vars)

	v, ok, err := Scalar(plan, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, datalog.TypedValue{}, v)
}

func TestTupleDecodesEveryColumnOfFirstRow(t *testing.T) {
	sch := fooBarSchema(t)
	cc, q := algebrize(t, sch, `{:find [?x] :where [[?x :foo/bar "yyy"]]}`)
	plan := Plan(cc, q.Find.Vars)

	row, ok, err := Tuple(plan, [][]interface{}{{int64(7)}})
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, row, 1)
	assert.Equal(t, datalog.RefValue(7), row[0])
}

func TestCollDecodesFirstColumnOfEveryRow(t *testing.T) {
	sch := fooBarSchema(t)
	cc, q := algebrize(t, sch, `[:find [?x ...] :where [?x :foo/bar "yyy"]]`)
	plan := Plan(cc, q.Find.Vars)

	out, err := Coll(plan, [][]interface{}{{int64(1)}, {int64(2)}})
	require.NoError(t, err)
	assert.Equal(t, []datalog.TypedValue{datalog.RefValue(1), datalog.RefValue(2)}, out)
}

func TestRelationDecodesTypeAmbiguousColumnViaItsTagSibling(t *testing.T) {
	sch := schema.New()
	cc, q := algebrize(t, sch, `[:find ?x ?v :where [?x _ ?v]]`)
	plan := Plan(cc, q.Find.Vars)

	rows := [][]interface{}{
		{int64(1), "hello", int64(datalog.TypeString)},
		{int64(2), int64(9), int64(datalog.TypeLong)},
	}
	out, err := Relation(plan, rows)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, datalog.RefValue(1), out[0][0])
	assert.Equal(t, datalog.StringValue("hello"), out[0][1])
	assert.Equal(t, datalog.RefValue(2), out[1][0])
	assert.Equal(t, datalog.LongValue(9), out[1][1])
}

func TestRelationRejectsColumnCountMismatch(t *testing.T) {
	sch := fooBarSchema(t)
	cc, q := algebrize(t, sch, `[:find ?x :where [?x :foo/bar "yyy"]]`)
	plan := Plan(cc, q.Find.Vars)

	_, err := Relation(plan, [][]interface{}{{int64(1), int64(2)}})
	require.Error(t, err)
	var perr *ProjectError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrCodeColumnCountMismatch, perr.Code)
}

func TestProjectDispatchesScalarShape(t *testing.T) {
	sch := fooBarSchema(t)
	cc, q := algebrize(t, sch, `[:find ?x . :where [?x :foo/bar "yyy"]]`)

	out, err := Project(cc, q, [][]interface{}{{int64(3)}})
	require.NoError(t, err)
	assert.Equal(t, datalog.RefValue(3), out)
}

func TestProjectDispatchesRelationShapeByDefault(t *testing.T) {
	sch := fooBarSchema(t)
	cc, q := algebrize(t, sch, `[:find ?x :where [?x :foo/bar "yyy"]]`)

	out, err := Project(cc, q, [][]interface{}{{int64(3)}, {int64(4)}})
	require.NoError(t, err)
	rows, ok := out.([][]datalog.TypedValue)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, datalog.RefValue(3), rows[0][0])
}

func TestProjectScalarOverZeroRowsReturnsNil(t *testing.T) {
	sch := fooBarSchema(t)
	cc, q := algebrize(t, sch, `[:find ?x . :where [?x :foo/bar "yyy"]]`)

	out, err := Project(cc, q, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}
