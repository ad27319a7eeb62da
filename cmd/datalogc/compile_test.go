package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileQueryProducesSQLAndParams(t *testing.T) {
	root := &rootOptions{Attrs: []string{"person/name:string"}}
	out, err := compileQuery(root, `[:find ?x . :where [?x :person/name "Alice"]]`)
	require.NoError(t, err)
	assert.Contains(t, out.SQL, "LIMIT 1")
	require.Len(t, out.Params, 1)
	assert.Equal(t, "Alice", out.Params[0].Value)
}

func TestCompileQueryResolvesBoundLimitVar(t *testing.T) {
	root := &rootOptions{
		Attrs:  []string{"person/name:string"},
		Inputs: []string{"n=3"},
	}
	out, err := compileQuery(root, `{:find [?x] :in [?n] :where [[?x :person/name "Alice"]] :limit ?n}`)
	require.NoError(t, err)
	assert.Contains(t, out.SQL, "LIMIT 3")
}

func TestCompileQueryRejectsBadAttrFlag(t *testing.T) {
	root := &rootOptions{Attrs: []string{"bogus"}}
	_, err := compileQuery(root, `[:find ?x :where [?x :person/name "Alice"]]`)
	assert.Error(t, err)
}
