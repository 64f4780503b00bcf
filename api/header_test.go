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

package api

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{APIKey: KeyEcho, APIVersion: 3, CorrelationID: 42, ClientID: "producer-1", HasClientID: true}

	var buf bytes.Buffer
	require.NoError(t, h.Encode(&buf, 0))
	assert.Equal(t, h.WriteSize(0), buf.Len())

	var got Header
	require.NoError(t, got.Decode(bytes.NewReader(buf.Bytes()), 0))
	assert.Equal(t, h, got)
}

func TestHeaderNoClientID(t *testing.T) {
	h := Header{APIKey: KeyStatus, APIVersion: 0, CorrelationID: 7}

	var buf bytes.Buffer
	require.NoError(t, h.Encode(&buf, 0))

	var got Header
	require.NoError(t, got.Decode(bytes.NewReader(buf.Bytes()), 0))
	assert.False(t, got.HasClientID)
	assert.Empty(t, got.ClientID)
}

func TestPeekCorrelationIDMatchesDecode(t *testing.T) {
	req := NewRequest(&EchoRequest{Payload: []byte("ping")}, "")
	req.Header.CorrelationID = 99

	var buf bytes.Buffer
	require.NoError(t, req.Encode(&buf, 0))

	got, err := PeekCorrelationID(buf.Bytes())
	require.NoError(t, err)
	assert.EqualValues(t, 99, got)
}

func TestPeekCorrelationIDShortBody(t *testing.T) {
	_, err := PeekCorrelationID([]byte{0x00, 0x01})
	assert.Error(t, err)
}
