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

package record

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamwire/dataplane/wire"
)

func testBatch(baseOffset int64) Batch {
	return Batch{
		BaseOffset: baseOffset,
		Records: []Record{
			{
				Header: Header{OffsetDelta: 0, TimestampDelta: 0},
				Value:  Data("test"),
			},
		},
	}
}

func TestBatchRoundTrip(t *testing.T) {
	b := testBatch(100)

	var buf bytes.Buffer
	require.NoError(t, b.Encode(&buf, 0))
	assert.Equal(t, b.WriteSize(0), buf.Len())

	var got Batch
	require.NoError(t, got.Decode(bytes.NewReader(buf.Bytes()), 0))
	assert.Equal(t, b.BaseOffset, got.BaseOffset)
	require.Len(t, got.Records, 1)
	assert.Equal(t, []byte("test"), []byte(got.Records[0].Value))
	assert.EqualValues(t, 100, got.ComputedLastOffset())
}

func TestBatchDigestMismatchRejected(t *testing.T) {
	b := testBatch(0)
	var buf bytes.Buffer
	require.NoError(t, b.Encode(&buf, 0))

	corrupt := append([]byte{}, buf.Bytes()...)
	corrupt[len(corrupt)-1] ^= 0xFF // flip a byte inside the record payload

	var got Batch
	err := got.Decode(bytes.NewReader(corrupt), 0)
	assert.ErrorIs(t, err, wire.ErrInvalidData)
}

func TestRecordSetRoundTrip(t *testing.T) {
	rs := RecordSet{Batches: []Batch{testBatch(0), testBatch(1)}}

	var buf bytes.Buffer
	require.NoError(t, rs.Encode(&buf, 0))
	assert.Equal(t, rs.WriteSize(0), buf.Len())

	var got RecordSet
	require.NoError(t, got.Decode(bytes.NewReader(buf.Bytes()), 0))
	require.Len(t, got.Batches, 2)
}

func TestRecordSetTruncationTolerance(t *testing.T) {
	rs := RecordSet{Batches: []Batch{testBatch(0), testBatch(1), testBatch(2)}}

	var buf bytes.Buffer
	require.NoError(t, rs.Encode(&buf, 0))

	raw := buf.Bytes()
	truncated := raw[:len(raw)-10]

	// Rewrite the leading 4-byte big-endian signed length to match the
	// new, shorter body.
	newBodyLen := uint32(len(truncated) - 4)
	binary.BigEndian.PutUint32(truncated[:4], newBodyLen)

	var got RecordSet
	err := got.Decode(bytes.NewReader(truncated), 0)
	require.NoError(t, err)
	assert.Len(t, got.Batches, 2)
}

func TestRecordSetEmpty(t *testing.T) {
	rs := RecordSet{}
	var buf bytes.Buffer
	require.NoError(t, rs.Encode(&buf, 0))
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, buf.Bytes())

	var got RecordSet
	require.NoError(t, got.Decode(bytes.NewReader(buf.Bytes()), 0))
	assert.Empty(t, got.Batches)
}
