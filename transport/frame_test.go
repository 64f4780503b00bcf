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

package transport

import (
	"bytes"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrameThenReadFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello")))

	fr := NewFrameReader(&buf)
	got, err := fr.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestReadFrameEOFAtBoundary(t *testing.T) {
	fr := NewFrameReader(bytes.NewReader(nil))
	_, err := fr.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameUnexpectedEOFMidFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello")))
	truncated := buf.Bytes()[:buf.Len()-2]

	fr := NewFrameReader(bytes.NewReader(truncated))
	_, err := fr.ReadFrame()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestExclusiveSinkSerializesConcurrentSends(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	sink := NewExclusiveSink(client)

	var wg sync.WaitGroup
	const n = 8
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = sink.Send(&frameMsg{b: []byte{byte(i)}}, 0)
		}(i)
	}

	fr := NewFrameReader(server)
	seen := 0
	for seen < n {
		body, err := fr.ReadFrame()
		require.NoError(t, err)
		require.Len(t, body, 1)
		seen++
	}
	wg.Wait()
}

type frameMsg struct{ b []byte }

func (m *frameMsg) WriteSize(int16) int { return len(m.b) }
func (m *frameMsg) Encode(dst *bytes.Buffer, _ int16) error {
	dst.Write(m.b)
	return nil
}
