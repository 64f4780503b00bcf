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
	"sync"

	"github.com/streamwire/dataplane/wire"
)

// ExclusiveSink wraps the write half of a duplex transport so concurrent
// exchanges can each emit a complete frame without interleaving their
// bytes on the wire. Once a write fails the sink is poisoned: every
// subsequent Send returns the same error without touching the transport
// again, since a partial write has already left the peer's framing
// unrecoverable.
type ExclusiveSink struct {
	mut     sync.Mutex
	w       io.Writer
	lastErr error
}

func NewExclusiveSink(w io.Writer) *ExclusiveSink {
	return &ExclusiveSink{w: w}
}

// Send encodes msg at version and writes it as one length-prefixed frame.
func (s *ExclusiveSink) Send(msg wire.Encoder, version int16) error {
	var body bytes.Buffer
	body.Grow(msg.WriteSize(version))
	if err := msg.Encode(&body, version); err != nil {
		return err
	}

	s.mut.Lock()
	defer s.mut.Unlock()

	if s.lastErr != nil {
		return s.lastErr
	}
	if err := WriteFrame(s.w, body.Bytes()); err != nil {
		s.lastErr = err
		return err
	}
	return nil
}
