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
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/streamwire/dataplane/logger"
	"github.com/streamwire/dataplane/wire"
)

// RecordSet is a length-prefixed concatenation of batches, used both for
// on-disk storage and as a request/response payload. Decoding tolerates a
// truncated trailing batch: this is mandatory for on-disk recovery, since
// storage can be cut off mid-write at any byte.
type RecordSet struct {
	Batches []Batch
}

func (rs RecordSet) innerSize(version int16) int {
	n := 0
	for _, b := range rs.Batches {
		n += b.WriteSize(version)
	}
	return n
}

// WriteSize returns the total on-wire length, including the 4-byte prefix.
func (rs RecordSet) WriteSize(version int16) int {
	return 4 + rs.innerSize(version)
}

func (rs RecordSet) Encode(dst *bytes.Buffer, version int16) error {
	var body bytes.Buffer
	for i := range rs.Batches {
		if err := rs.Batches[i].Encode(&body, version); err != nil {
			return err
		}
	}
	if body.Len() > math.MaxInt32 {
		return errors.Wrap(wire.ErrInvalidInput, "record set exceeds 32-bit length")
	}
	wire.EncodeInt32(dst, int32(body.Len()))
	dst.Write(body.Bytes())
	return nil
}

// Decode reads the 32-bit length, constrains decoding to exactly that many
// bytes, and repeatedly decodes a batch from the bounded sub-reader. The
// first batch-level error, including an unexpected EOF from a truncated
// trailing batch, stops the loop; the batches decoded so far are kept and
// no error is returned. A truncation or corruption in the record-set's own
// outer length prefix is still a hard failure, since that isn't a
// per-batch boundary.
func (rs *RecordSet) Decode(src *bytes.Reader, version int16) error {
	length, err := wire.DecodeInt32(src)
	if err != nil {
		return err
	}
	if length < 0 || int64(src.Len()) < int64(length) {
		return wire.ErrUnexpectedEOF
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(src, body); err != nil {
		return errors.Wrap(wire.ErrUnexpectedEOF, err.Error())
	}
	sub := bytes.NewReader(body)

	var batches []Batch
	for sub.Len() > 0 {
		var b Batch
		if err := b.Decode(sub, version); err != nil {
			logger.Debugf("record-set: stopping after %d batch(es), trailing batch unreadable: %v", len(batches), err)
			break
		}
		batches = append(batches, b)
	}
	rs.Batches = batches
	return nil
}
