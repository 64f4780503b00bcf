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
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/streamwire/dataplane/common"
)

// WriteFrame writes a single u32-length-prefixed frame. The prefix is
// big-endian to match every other multi-byte field on the wire.
func WriteFrame(w io.Writer, body []byte) error {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(body)))
	if _, err := w.Write(prefix[:]); err != nil {
		return errors.Wrap(err, "transport: write frame prefix")
	}
	if _, err := w.Write(body); err != nil {
		return errors.Wrap(err, "transport: write frame body")
	}
	return nil
}

// FrameReader yields complete frame bodies from the read half of a duplex
// transport, one ReadFrame call per frame.
type FrameReader struct {
	r io.Reader
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r}
}

// ReadFrame blocks for exactly one frame and returns its body, without the
// 4-byte length prefix. A clean peer close at a frame boundary surfaces as
// io.EOF unchanged; a close mid-frame surfaces as io.ErrUnexpectedEOF, both
// propagated verbatim so the dispatcher can tell the two apart.
func (f *FrameReader) ReadFrame() ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(f.r, prefix[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(prefix[:])
	if n > common.MaxFrameSize {
		return nil, errors.Errorf("transport: frame of %d bytes exceeds MaxFrameSize", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(f.r, body); err != nil {
		if err == io.EOF {
			// The prefix was read, so this close is mid-frame.
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return body, nil
}
