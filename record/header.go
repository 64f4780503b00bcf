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

// Package record implements the L2 record/batch codec: RecordHeader,
// Record, Batch and RecordSet, including the truncation-tolerant decode
// required for on-disk recovery.
package record

import (
	"bytes"

	"github.com/streamwire/dataplane/wire"
)

// Header carries the per-record fields that are relative to the
// containing batch's base offset and base timestamp.
type Header struct {
	// Attributes is reserved for future flags; no bit is assigned today.
	Attributes int8

	// TimestampDelta is relative to the batch's base timestamp.
	TimestampDelta int64

	// OffsetDelta is relative to the batch's base offset.
	OffsetDelta int64
}

func (h Header) WriteSize(int16) int {
	return 1 + wire.WriteSizeVarint(h.TimestampDelta) + wire.WriteSizeVarint(h.OffsetDelta)
}

func (h Header) Encode(dst *bytes.Buffer, version int16) error {
	wire.EncodeInt8(dst, h.Attributes)
	wire.EncodeVarint(dst, h.TimestampDelta)
	wire.EncodeVarint(dst, h.OffsetDelta)
	return nil
}

func (h *Header) Decode(src *bytes.Reader, version int16) error {
	attrs, err := wire.DecodeInt8(src)
	if err != nil {
		return err
	}
	tsDelta, err := wire.DecodeVarint(src)
	if err != nil {
		return err
	}
	offDelta, err := wire.DecodeVarint(src)
	if err != nil {
		return err
	}
	h.Attributes = attrs
	h.TimestampDelta = tsDelta
	h.OffsetDelta = offDelta
	return nil
}
