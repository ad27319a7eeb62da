package main

import (
	"testing"

	"github.com/relidb/relidb/datalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttrFlagParsesIdentAndType(t *testing.T) {
	attr, err := parseAttrFlag("person/name:string")
	require.NoError(t, err)
	assert.Equal(t, "person", attr.Ident.Namespace())
	assert.Equal(t, "name", attr.Ident.Name())
	assert.Equal(t, datalog.TypeString, attr.ValueType)
}

func TestParseAttrFlagParsesModifiers(t *testing.T) {
	attr, err := parseAttrFlag("person/friend:ref:many:unique")
	require.NoError(t, err)
	assert.True(t, attr.IsMany())
	assert.True(t, attr.Unique)
}

func TestParseAttrFlagRejectsUnknownType(t *testing.T) {
	_, err := parseAttrFlag("person/name:nope")
	assert.Error(t, err)
}

func TestBuildSchemaAssignsSequentialEntids(t *testing.T) {
	sch, err := buildSchema([]string{"person/name:string", "person/age:long"})
	require.NoError(t, err)

	kw, err := datalog.NewKeyword("person", "age")
	require.NoError(t, err)
	attr, ok := sch.AttributeByIdent(kw)
	require.True(t, ok)
	assert.Equal(t, datalog.Entid(2), attr.Entid)
}

func TestParseInputFlagGuessesTypes(t *testing.T) {
	name, v, err := parseInputFlag("n=5")
	require.NoError(t, err)
	assert.Equal(t, "n", name)
	assert.Equal(t, datalog.LongValue(5), v)

	name, v, err = parseInputFlag("s=hello")
	require.NoError(t, err)
	assert.Equal(t, "s", name)
	assert.Equal(t, datalog.StringValue("hello"), v)
}
