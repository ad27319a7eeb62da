package query

import (
	"testing"

	"github.com/relidb/relidb/datalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataPatternCanonicalReversesAttribute(t *testing.T) {
	kw, err := datalog.NewKeyword("user", "_friend")
	require.NoError(t, err)

	p := DataPattern{
		E: VarPatternValue("a"),
		A: ConstAttrPattern(kw),
		V: VarPatternValue("b"),
	}
	require.True(t, p.Reversed())

	canon, err := p.Canonical()
	require.NoError(t, err)
	assert.False(t, canon.Reversed())
	assert.Equal(t, Variable("b"), canon.E.Var)
	assert.Equal(t, Variable("a"), canon.V.Var)
	assert.Equal(t, "friend", canon.A.Const.Name())
}

func TestDataPatternCanonicalRejectsConstValue(t *testing.T) {
	kw, err := datalog.NewKeyword("user", "_friend")
	require.NoError(t, err)

	p := DataPattern{
		E: VarPatternValue("a"),
		A: ConstAttrPattern(kw),
		V: ConstPatternValue(datalog.LongValue(1)),
	}
	_, err = p.Canonical()
	require.Error(t, err)
}

func TestDataPatternCanonicalIsNoopWhenForward(t *testing.T) {
	kw, err := datalog.NewKeyword("user", "friend")
	require.NoError(t, err)
	p := DataPattern{E: VarPatternValue("a"), A: ConstAttrPattern(kw), V: VarPatternValue("b")}
	canon, err := p.Canonical()
	require.NoError(t, err)
	assert.Equal(t, p, canon)
}
