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

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/streamwire/dataplane/wire"
)

// Batch is an ordered group of records sharing a base offset. It carries
// an xxhash digest over its encoded records so a corrupted (but not
// truncated) batch is rejected rather than silently misparsed, the same
// role internal/labels.Labels.Hash plays for a label set's identity.
type Batch struct {
	BaseOffset int64
	Records    []Record
}

// ComputedLastOffset returns the highest offset any record in the batch
// occupies, derived from BaseOffset and each record's OffsetDelta.
func (b Batch) ComputedLastOffset() int64 {
	last := b.BaseOffset
	for _, r := range b.Records {
		if off := b.BaseOffset + r.Header.OffsetDelta; off > last {
			last = off
		}
	}
	return last
}

func digestOf(p []byte) uint64 {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.Write(p)
	return xxhash.Sum64(buf.Bytes())
}

func (b Batch) innerSize(version int16) int {
	n := wire.WriteSizeVarint(int64(len(b.Records))) + 8 // record count + digest
	for _, r := range b.Records {
		n += r.WriteSize(version)
	}
	return n
}

// WriteSize returns the total on-wire length: base offset (8) + batch
// length (4) + inner body.
func (b Batch) WriteSize(version int16) int {
	return 8 + 4 + b.innerSize(version)
}

func (b Batch) Encode(dst *bytes.Buffer, version int16) error {
	var records bytes.Buffer
	for i := range b.Records {
		if err := b.Records[i].Encode(&records, version); err != nil {
			return err
		}
	}
	digest := digestOf(records.Bytes())

	wire.EncodeInt64(dst, b.BaseOffset)
	inner := wire.WriteSizeVarint(int64(len(b.Records))) + 8 + records.Len()
	wire.EncodeInt32(dst, int32(inner))
	wire.EncodeVarint(dst, int64(len(b.Records)))
	wire.EncodeUint64(dst, digest)
	dst.Write(records.Bytes())
	return nil
}

// Decode reads base offset, batch length, record count and digest, then
// decodes exactly that many records from the declared batch body. Any
// short read or digest mismatch fails with wire.ErrUnexpectedEOF or
// wire.ErrInvalidData respectively; the caller (RecordSet.Decode) treats
// both as a batch-level failure that stops the overall decode.
func (b *Batch) Decode(src *bytes.Reader, version int16) error {
	baseOffset, err := wire.DecodeInt64(src)
	if err != nil {
		return err
	}
	batchLen, err := wire.DecodeInt32(src)
	if err != nil {
		return err
	}
	if batchLen < 0 || int64(src.Len()) < int64(batchLen) {
		return wire.ErrUnexpectedEOF
	}

	body := make([]byte, batchLen)
	if _, err := io.ReadFull(src, body); err != nil {
		return errors.Wrap(wire.ErrUnexpectedEOF, err.Error())
	}
	sub := bytes.NewReader(body)

	count, err := wire.DecodeVarint(sub)
	if err != nil {
		return err
	}
	if count < 0 {
		return errors.Wrapf(wire.ErrInvalidData, "negative record count %d", count)
	}
	digest, err := wire.DecodeUint64(sub)
	if err != nil {
		return err
	}

	recordsBlob := body[len(body)-sub.Len():]
	if got := digestOf(recordsBlob); got != digest {
		return errors.Wrap(wire.ErrInvalidData, "batch digest mismatch")
	}

	records := make([]Record, 0, count)
	for i := int64(0); i < count; i++ {
		var rec Record
		if err := rec.Decode(sub, version); err != nil {
			return err
		}
		records = append(records, rec)
	}

	b.BaseOffset = baseOffset
	b.Records = records
	return nil
}
