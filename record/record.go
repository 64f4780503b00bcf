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

	"github.com/pkg/errors"

	"github.com/streamwire/dataplane/wire"
)

// Record is the smallest unit of user data: a header, an optional key, a
// value, and a headers count. Individual header entries are not encoded;
// only their count is carried, matching the Non-goal of schema evolution
// for record contents.
type Record struct {
	Header  Header
	Key     Data
	HasKey  bool
	Value   Data
	Headers int64
}

func (r Record) innerSize(version int16) int {
	return r.Header.WriteSize(version) +
		wire.WriteSizeOptionalBytes(r.Key, r.HasKey) +
		wire.WriteSizeBytes(r.Value) +
		wire.WriteSizeVarint(r.Headers)
}

// WriteSize returns the total on-wire length, including the outer
// length-prefix varint.
func (r Record) WriteSize(version int16) int {
	inner := r.innerSize(version)
	return wire.WriteSizeVarint(int64(inner)) + inner
}

// Encode appends the outer length-prefix followed by the four fields in
// order: header, optional key, value, headers count.
func (r Record) Encode(dst *bytes.Buffer, version int16) error {
	inner := r.innerSize(version)
	wire.EncodeVarint(dst, int64(inner))
	if err := r.Header.Encode(dst, version); err != nil {
		return err
	}
	wire.EncodeOptionalBytes(dst, r.Key, r.HasKey)
	wire.EncodeBytes(dst, r.Value)
	wire.EncodeVarint(dst, r.Headers)
	return nil
}

// Decode reads the outer length-prefix and constrains field decoding to
// exactly that many bytes, so a malformed inner field cannot read past the
// record's declared boundary. A short read at any point, including one
// that leaves fewer than the declared bytes available, fails with
// wire.ErrUnexpectedEOF; no field is ever skipped.
func (r *Record) Decode(src *bytes.Reader, version int16) error {
	inner, err := wire.DecodeVarint(src)
	if err != nil {
		return err
	}
	if inner < 0 || int64(src.Len()) < inner {
		return wire.ErrUnexpectedEOF
	}

	body := make([]byte, inner)
	if _, err := io.ReadFull(src, body); err != nil {
		return errors.Wrap(wire.ErrUnexpectedEOF, err.Error())
	}
	sub := bytes.NewReader(body)

	var hdr Header
	if err := hdr.Decode(sub, version); err != nil {
		return err
	}
	key, hasKey, err := wire.DecodeOptionalBytes(sub)
	if err != nil {
		return err
	}
	value, err := wire.DecodeBytes(sub)
	if err != nil {
		return err
	}
	headers, err := wire.DecodeVarint(sub)
	if err != nil {
		return err
	}

	r.Header = hdr
	r.Key = key
	r.HasKey = hasKey
	r.Value = value
	r.Headers = headers
	return nil
}
