// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wire

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWidthRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	EncodeUint8(&buf, 0xAB)
	EncodeInt16(&buf, -1234)
	EncodeUint32(&buf, 0xDEADBEEF)
	EncodeInt64(&buf, math.MinInt64)

	r := bytes.NewReader(buf.Bytes())
	u8, err := DecodeUint8(r)
	require.NoError(t, err)
	assert.EqualValues(t, 0xAB, u8)

	i16, err := DecodeInt16(r)
	require.NoError(t, err)
	assert.EqualValues(t, -1234, i16)

	u32, err := DecodeUint32(r)
	require.NoError(t, err)
	assert.EqualValues(t, 0xDEADBEEF, u32)

	i64, err := DecodeInt64(r)
	require.NoError(t, err)
	assert.EqualValues(t, math.MinInt64, i64)

	assert.Zero(t, r.Len())
}

func TestDecodeUint32ShortRead(t *testing.T) {
	r := bytes.NewReader([]byte{0x01, 0x02})
	_, err := DecodeUint32(r)
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestVarintBoundaries(t *testing.T) {
	values := []int64{0, 1, -1, 63, -63, 64, -64, 8191, -8191, 8192, -8192, math.MinInt64, math.MaxInt64}
	for _, v := range values {
		var buf bytes.Buffer
		EncodeVarint(&buf, v)
		assert.LessOrEqual(t, buf.Len(), maxVarintLen)
		assert.GreaterOrEqual(t, buf.Len(), 1)
		assert.Equal(t, buf.Len(), WriteSizeVarint(v))

		got, err := DecodeVarint(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestVarintZigZagExamples(t *testing.T) {
	// 1 maps to 2 (0x02); 3 maps to 6 (0x06): both single-byte groups,
	// matching the bytes observed in the spec's record test vector.
	var buf bytes.Buffer
	EncodeVarint(&buf, 1)
	assert.Equal(t, []byte{0x02}, buf.Bytes())

	buf.Reset()
	EncodeVarint(&buf, 3)
	assert.Equal(t, []byte{0x06}, buf.Bytes())

	buf.Reset()
	EncodeVarint(&buf, 9)
	assert.Equal(t, []byte{0x12}, buf.Bytes())
}

func TestDecodeVarintOverlong(t *testing.T) {
	// 10 continuation bytes followed by an 11th: exceeds the 64-bit width.
	overlong := bytes.Repeat([]byte{0xFF}, 11)
	_, err := DecodeVarint(bytes.NewReader(overlong))
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestBytesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	EncodeBytes(&buf, []byte("dog"))
	assert.Equal(t, WriteSizeBytes([]byte("dog")), buf.Len())

	got, err := DecodeBytes(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []byte("dog"), got)
}

func TestBytesEmpty(t *testing.T) {
	var buf bytes.Buffer
	EncodeBytes(&buf, nil)
	assert.Equal(t, []byte{0x00}, buf.Bytes())

	got, err := DecodeBytes(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOptionalBytesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	EncodeOptionalBytes(&buf, []byte("dog"), true)

	v, present, err := DecodeOptionalBytes(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, []byte("dog"), v)
}

func TestOptionalBytesAbsent(t *testing.T) {
	var buf bytes.Buffer
	EncodeOptionalBytes(&buf, nil, false)
	assert.Equal(t, []byte{0x00}, buf.Bytes())

	v, present, err := DecodeOptionalBytes(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.False(t, present)
	assert.Nil(t, v)
}

func TestOptionalBytesInvalidTag(t *testing.T) {
	_, _, err := DecodeOptionalBytes(bytes.NewReader([]byte{0x02}))
	assert.ErrorIs(t, err, ErrInvalidData)
}
