// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedRoundTripInt16(t *testing.T) {
	slot, err := valueToSlot(IntValue(-1), Int16, false)
	require.NoError(t, err)
	assert.True(t, slot.HasInt)
	assert.Equal(t, uint32(0x0000FFFF), slot.IntValue)

	back, err := slotToValue(slot, Int16)
	require.NoError(t, err)
	x, ok := back.Int64()
	require.True(t, ok)
	assert.Equal(t, int64(-1), x)
}

func TestUInt32InLongToggle(t *testing.T) {
	slot, err := valueToSlot(UintValue(70000), UInt32, false)
	require.NoError(t, err)
	assert.True(t, slot.HasInt)
	assert.False(t, slot.HasLong)

	slot, err = valueToSlot(UintValue(70000), UInt32, true)
	require.NoError(t, err)
	assert.True(t, slot.HasLong)
	assert.False(t, slot.HasInt)
	assert.Equal(t, uint64(70000), slot.LongValue)
}

func TestSlotToValueToleratesWrongButUnambiguousSlot(t *testing.T) {
	// A peer wrote a UInt32 into the 64-bit long_value slot instead of
	// int_value; decode must still succeed.
	v, err := slotToValue(wireSlot{HasLong: true, LongValue: 42}, UInt32)
	require.NoError(t, err)
	x, ok := v.Uint64()
	require.True(t, ok)
	assert.Equal(t, uint64(42), x)
}

func TestSlotToValueToleratesBoolSlotForIntegerDatatype(t *testing.T) {
	v, err := slotToValue(wireSlot{HasBool: true, BoolValue: true}, Int32)
	require.NoError(t, err)
	x, ok := v.Int64()
	require.True(t, ok)
	assert.Equal(t, int64(1), x)

	v, err = slotToValue(wireSlot{HasBool: true, BoolValue: false}, UInt16)
	require.NoError(t, err)
	x, ok = v.Int64()
	require.True(t, ok)
	assert.Equal(t, int64(0), x)
}

func TestClampOutOfRangeIntegers(t *testing.T) {
	slot, err := valueToSlot(IntValue(300), Int8, false)
	require.NoError(t, err)
	v, err := slotToValue(slot, Int8)
	require.NoError(t, err)
	x, _ := v.Int64()
	assert.Equal(t, int64(127), x)

	slot, err = valueToSlot(IntValue(-5), UInt8, false)
	require.NoError(t, err)
	v, err = slotToValue(slot, UInt8)
	require.NoError(t, err)
	x, _ = v.Int64()
	assert.Equal(t, int64(0), x)
}

func TestUInt64NoSpuriousClamp(t *testing.T) {
	const big = uint64(18446744073709551615)
	slot, err := valueToSlot(UintValue(big), UInt64, false)
	require.NoError(t, err)
	v, err := slotToValue(slot, UInt64)
	require.NoError(t, err)
	x, ok := v.Uint64()
	require.True(t, ok)
	assert.Equal(t, big, x)
}

func TestArrayValueRoundTripThroughSlot(t *testing.T) {
	in := Int32ArrayValue([]int32{1, -2, 3})
	slot, err := valueToSlot(in, Int32Array, false)
	require.NoError(t, err)
	assert.True(t, slot.HasBytes)

	out, err := slotToValue(slot, Int32Array)
	require.NoError(t, err)
	arr, ok := out.Int32Array()
	require.True(t, ok)
	assert.Equal(t, []int32{1, -2, 3}, arr)
}

func TestBooleanArrayValueRoundTrip(t *testing.T) {
	in := BooleanArrayValue([]bool{true, false, true})
	arr, ok := in.BooleanArray()
	require.True(t, ok)
	assert.Equal(t, []bool{true, false, true}, arr)
}

func TestStringArrayValueRoundTrip(t *testing.T) {
	in := StringArrayValue([]string{"a", "b", "c"})
	arr, ok := in.StringArray()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, arr)
}

func TestNewValueInference(t *testing.T) {
	v, err := NewValue(int32(5))
	require.NoError(t, err)
	assert.Equal(t, Int64, v.Kind())

	v, err = NewValue("hi")
	require.NoError(t, err)
	assert.Equal(t, String, v.Kind())

	_, err = NewValue(struct{}{})
	assert.Error(t, err)
}
