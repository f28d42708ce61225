// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package arraypack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWidthRoundTrips(t *testing.T) {
	i16, err := UnpackInt16(PackInt16([]int16{-32768, 0, 32767}))
	require.NoError(t, err)
	assert.Equal(t, []int16{-32768, 0, 32767}, i16)

	u32, err := UnpackUint32(PackUint32([]uint32{0, 1, 4294967295}))
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 4294967295}, u32)

	i64, err := UnpackInt64(PackInt64([]int64{-1, 0, 1}))
	require.NoError(t, err)
	assert.Equal(t, []int64{-1, 0, 1}, i64)

	f32, err := UnpackFloat(PackFloat([]float32{1.5, -2.25}))
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2.25}, f32)

	f64, err := UnpackDouble(PackDouble([]float64{3.14159, -1}))
	require.NoError(t, err)
	assert.Equal(t, []float64{3.14159, -1}, f64)

	dt, err := UnpackDateTime(PackDateTime([]int64{1690000000000}))
	require.NoError(t, err)
	assert.Equal(t, []int64{1690000000000}, dt)
}

func TestUnpackRejectsMisalignedLength(t *testing.T) {
	_, err := UnpackInt32([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestBoolArrayRoundTripAllLengths(t *testing.T) {
	for n := 0; n <= 1024; n++ {
		vals := make([]bool, n)
		for i := range vals {
			vals[i] = i%3 == 0
		}
		packed := PackBool(vals)
		got, err := UnpackBool(packed)
		require.NoError(t, err)
		assert.Equal(t, vals, got, "n=%d", n)
	}
}

func TestUnpackBoolRejectsShortBody(t *testing.T) {
	packed := PackBool([]bool{true, false, true, true, true, true, true, true, true})
	_, err := UnpackBool(packed[:len(packed)-1])
	assert.Error(t, err)
}

func TestStringArrayRoundTrip(t *testing.T) {
	in := []string{"alpha", "", "beta gamma", "utf8-é"}
	got := UnpackString(PackString(in))
	assert.Equal(t, in, got)
}

func TestStringArrayEmpty(t *testing.T) {
	assert.Equal(t, []string{}, UnpackString(PackString(nil)))
	assert.Equal(t, []string{}, UnpackString(nil))
}
