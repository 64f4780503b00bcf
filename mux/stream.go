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

package mux

import (
	"bytes"
	"context"
	"io"

	"github.com/streamwire/dataplane/api"
	"github.com/streamwire/dataplane/logger"
	"github.com/streamwire/dataplane/wire"
)

// Stream yields decoded responses for a Queue exchange, one at a time, in
// the order the peer emitted them. PT is the pointer-receiver decoder for
// T, the same pattern callers use for json.Unmarshal(&v) - it lets Next
// decode straight into a zero value of T without a separate factory.
type Stream[T any, PT interface {
	*T
	wire.Decoder
}] struct {
	m               *Multiplexer
	correlationID   int32
	waiter          *queueWaiter
	protocolVersion int16

	// name identifies this stream in log output, the same role a
	// pubsub subscription's generated id plays for its queue.
	name string
}

// Next blocks for the next response frame and decodes it into T. Every
// response frame carries an api.Header ahead of the payload, the same
// shape SendAndReceive unwraps, so Next decodes and discards one before
// decoding T off the same reader. It returns io.EOF once the multiplexer
// shuts down (including when the peer closes the connection), and
// ctx.Err() if ctx is done first.
func (s *Stream[T, PT]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case frame := <-s.waiter.ch:
		if frame == nil {
			return zero, io.EOF
		}
		src := bytes.NewReader(frame)
		var hdr api.Header
		if err := hdr.Decode(src, s.protocolVersion); err != nil {
			return zero, err
		}
		var v T
		pt := PT(&v)
		if err := pt.Decode(src, s.protocolVersion); err != nil {
			return zero, err
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.m.terminate:
		return zero, io.EOF
	}
}

// Close drops the stream handle. The waiter is evicted lazily on the
// dispatcher's next registration sweep rather than synchronously, so
// Close never blocks on the dispatcher goroutine.
func (s *Stream[T, PT]) Close() {
	s.waiter.close()
	cancelsTotal.Inc()
	logger.Debugf("mux: closed queue stream %s", s.name)
}
