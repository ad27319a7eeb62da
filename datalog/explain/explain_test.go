package explain

import (
	"bytes"
	"testing"

	"github.com/relidb/relidb/datalog"
	"github.com/relidb/relidb/datalog/parser"
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

func TestCompileCapturesSQLAndParams(t *testing.T) {
	sch := fooBarSchema(t)
	q, err := parser.Parse(`[:find ?x . :where [?x :foo/bar "yyy"]]`)
	require.NoError(t, err)

	r, err := Compile(sch, q, nil)
	require.NoError(t, err)
	assert.False(t, r.KnownEmpty)
	assert.Contains(t, r.SQL, "LIMIT 1")
	require.Len(t, r.Params, 1)
	assert.Equal(t, "yyy", r.Params[0].Value)
}

func TestCompileSurfacesKnownEmptyReason(t *testing.T) {
	sch := schema.New()
	longKw, err := datalog.NewKeyword("foo", "count")
	require.NoError(t, err)
	boolKw, err := datalog.NewKeyword("foo", "hidden")
	require.NoError(t, err)
	require.NoError(t, sch.Add(schema.Attribute{Ident: longKw, Entid: 1, ValueType: datalog.TypeLong}))
	require.NoError(t, sch.Add(schema.Attribute{Ident: boolKw, Entid: 2, ValueType: datalog.TypeBoolean}))

	q, err := parser.Parse(`[:find ?x :where [?x :foo/count ?c] [?x :foo/hidden ?c]]`)
	require.NoError(t, err)

	r, err := Compile(sch, q, nil)
	require.NoError(t, err)
	assert.True(t, r.KnownEmpty)
	assert.NotEmpty(t, r.EmptyBecause)
}

func TestCompileUnresolvedIdentCollapsesToBareExistsCheck(t *testing.T) {
	sch := schema.New()
	q, err := parser.Parse(`[:find ?x :where [?x :db/ident :no/exist]]`)
	require.NoError(t, err)

	r, err := Compile(sch, q, nil)
	require.NoError(t, err)
	assert.True(t, r.KnownEmpty)
	assert.Equal(t, "SELECT DISTINCT 1 FROM (SELECT 1 WHERE 0) LIMIT 0", r.SQL)
}

func TestPrintRendersKnownEmptyReason(t *testing.T) {
	r := &Report{
		SQL:          "SELECT DISTINCT NULL AS `?x` FROM (SELECT 1 WHERE 0) LIMIT 0",
		KnownEmpty:   true,
		EmptyBecause: "?c can never satisfy all its type constraints",
	}
	var buf bytes.Buffer
	Print(&buf, r)
	assert.Contains(t, buf.String(), "?c can never satisfy all its type constraints")
}

func TestPrintRendersParameterTable(t *testing.T) {
	r := &Report{
		SQL:    "SELECT `datoms00`.e AS `?x` FROM `datoms` AS `datoms00` WHERE `datoms00`.v = $v0",
		Params: []sqlbuilder.Param{{Name: "$v0", Value: "yyy"}},
	}
	var buf bytes.Buffer
	Print(&buf, r)
	assert.Contains(t, buf.String(), "$v0")
	assert.Contains(t, buf.String(), "yyy")
}

const datomsDDL = "CREATE TABLE datoms (e INTEGER, a INTEGER, v, tx INTEGER, value_type_tag INTEGER)"

func TestDryRunAcceptsWellFormedSQL(t *testing.T) {
	sch := schema.New()
	q, err := parser.Parse(`[:find ?x :where [?x _ 1]]`)
	require.NoError(t, err)

	r, err := Compile(sch, q, nil)
	require.NoError(t, err)
	require.Empty(t, r.Params)

	assert.NoError(t, DryRun(datomsDDL, r))
}

func TestDryRunRejectsMalformedSQL(t *testing.T) {
	r := &Report{SQL: "SELECT FROM WHERE"}
	assert.Error(t, DryRun(datomsDDL, r))
}
