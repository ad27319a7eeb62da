package datalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCompareTypedValuesNumericCrossType(t *testing.T) {
	assert.Zero(t, CompareTypedValues(LongValue(3), DoubleValue(3.0)))
	assert.Negative(t, CompareTypedValues(LongValue(2), DoubleValue(3.0)))
	assert.Positive(t, CompareTypedValues(DoubleValue(3.5), LongValue(3)))
}

func TestCompareTypedValuesString(t *testing.T) {
	assert.Negative(t, CompareTypedValues(StringValue("a"), StringValue("b")))
	assert.Zero(t, CompareTypedValues(StringValue("a"), StringValue("a")))
}

func TestCompareTypedValuesBoolean(t *testing.T) {
	assert.Negative(t, CompareTypedValues(BooleanValue(false), BooleanValue(true)))
	assert.Zero(t, CompareTypedValues(BooleanValue(true), BooleanValue(true)))
}

func TestCompareTypedValuesAcrossDistinctTags(t *testing.T) {
	// A bare long and a boolean must never compare equal even when their
	// underlying numeric payloads collide (0/1).
	assert.NotZero(t, CompareTypedValues(LongValue(1), BooleanValue(true)))
}

func TestCompareTypedValuesUuidAndInstant(t *testing.T) {
	u1 := uuid.New()
	u2 := uuid.New()
	assert.Zero(t, CompareTypedValues(UuidValue(u1), UuidValue(u1)))
	if u1.String() != u2.String() {
		assert.NotZero(t, CompareTypedValues(UuidValue(u1), UuidValue(u2)))
	}

	now := time.Now()
	later := now.Add(time.Second)
	assert.Negative(t, CompareTypedValues(InstantValue(now), InstantValue(later)))
}

func TestTypedValueEqual(t *testing.T) {
	assert.True(t, LongValue(5).Equal(LongValue(5)))
	assert.False(t, LongValue(5).Equal(DoubleValue(5)))
	assert.False(t, LongValue(1).Equal(BooleanValue(true)))
}
