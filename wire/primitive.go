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

package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// readExact pulls exactly n bytes from src, translating a short read into
// ErrUnexpectedEOF instead of the stdlib's io.ErrUnexpectedEOF/io.EOF.
func readExact(src *bytes.Reader, n int) ([]byte, error) {
	if src.Len() < n {
		return nil, ErrUnexpectedEOF
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(src, buf); err != nil {
		return nil, errors.Wrap(ErrUnexpectedEOF, err.Error())
	}
	return buf, nil
}

// EncodeUint8 appends an unsigned 8-bit integer.
func EncodeUint8(dst *bytes.Buffer, v uint8) {
	dst.WriteByte(v)
}

// DecodeUint8 consumes an unsigned 8-bit integer.
func DecodeUint8(src *bytes.Reader) (uint8, error) {
	b, err := src.ReadByte()
	if err != nil {
		return 0, ErrUnexpectedEOF
	}
	return b, nil
}

// EncodeInt8 appends a signed 8-bit integer.
func EncodeInt8(dst *bytes.Buffer, v int8) {
	dst.WriteByte(byte(v))
}

// DecodeInt8 consumes a signed 8-bit integer.
func DecodeInt8(src *bytes.Reader) (int8, error) {
	b, err := DecodeUint8(src)
	return int8(b), err
}

// EncodeUint16 appends a big-endian unsigned 16-bit integer.
func EncodeUint16(dst *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	dst.Write(b[:])
}

// DecodeUint16 consumes a big-endian unsigned 16-bit integer.
func DecodeUint16(src *bytes.Reader) (uint16, error) {
	b, err := readExact(src, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// EncodeInt16 appends a big-endian signed 16-bit integer.
func EncodeInt16(dst *bytes.Buffer, v int16) {
	EncodeUint16(dst, uint16(v))
}

// DecodeInt16 consumes a big-endian signed 16-bit integer.
func DecodeInt16(src *bytes.Reader) (int16, error) {
	v, err := DecodeUint16(src)
	return int16(v), err
}

// EncodeUint32 appends a big-endian unsigned 32-bit integer.
func EncodeUint32(dst *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	dst.Write(b[:])
}

// DecodeUint32 consumes a big-endian unsigned 32-bit integer.
func DecodeUint32(src *bytes.Reader) (uint32, error) {
	b, err := readExact(src, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// EncodeInt32 appends a big-endian signed 32-bit integer.
func EncodeInt32(dst *bytes.Buffer, v int32) {
	EncodeUint32(dst, uint32(v))
}

// DecodeInt32 consumes a big-endian signed 32-bit integer.
func DecodeInt32(src *bytes.Reader) (int32, error) {
	v, err := DecodeUint32(src)
	return int32(v), err
}

// EncodeUint64 appends a big-endian unsigned 64-bit integer.
func EncodeUint64(dst *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	dst.Write(b[:])
}

// DecodeUint64 consumes a big-endian unsigned 64-bit integer.
func DecodeUint64(src *bytes.Reader) (uint64, error) {
	b, err := readExact(src, 8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// EncodeInt64 appends a big-endian signed 64-bit integer.
func EncodeInt64(dst *bytes.Buffer, v int64) {
	EncodeUint64(dst, uint64(v))
}

// DecodeInt64 consumes a big-endian signed 64-bit integer.
func DecodeInt64(src *bytes.Reader) (int64, error) {
	v, err := DecodeUint64(src)
	return int64(v), err
}

// EncodeBool appends a single byte, 0x01 for true and 0x00 for false.
func EncodeBool(dst *bytes.Buffer, v bool) {
	if v {
		dst.WriteByte(0x01)
		return
	}
	dst.WriteByte(0x00)
}

// DecodeBool consumes a single boolean byte.
func DecodeBool(src *bytes.Reader) (bool, error) {
	b, err := DecodeUint8(src)
	if err != nil {
		return false, err
	}
	switch b {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, errors.Wrapf(ErrInvalidData, "bool tag %#x", b)
	}
}

const maxVarintLen = binary.MaxVarintLen64

// EncodeVarint appends v zig-zag mapped and base-128 continuation-bit encoded,
// the scheme used for every variable-length integer on the wire (record
// header deltas, byte-string lengths, the record-set inner length).
func EncodeVarint(dst *bytes.Buffer, v int64) {
	var buf [maxVarintLen]byte
	n := binary.PutVarint(buf[:], v)
	dst.Write(buf[:n])
}

// WriteSizeVarint returns the number of bytes EncodeVarint would produce.
func WriteSizeVarint(v int64) int {
	var buf [maxVarintLen]byte
	return binary.PutVarint(buf[:], v)
}

// DecodeVarint consumes a zig-zag/base-128 varint, at most 10 bytes wide.
func DecodeVarint(src *bytes.Reader) (int64, error) {
	start := src.Len()
	v, err := binary.ReadVarint(src)
	if err != nil {
		if start == src.Len() {
			return 0, ErrUnexpectedEOF
		}
		if err == io.ErrUnexpectedEOF {
			return 0, ErrUnexpectedEOF
		}
		// Overflow past 10 bytes, or a group that never terminates.
		return 0, errors.Wrap(ErrInvalidData, err.Error())
	}
	return v, nil
}

// EncodeBytes appends a byte string as a varint length followed by the raw
// bytes. A nil and an empty slice encode identically (length 0).
func EncodeBytes(dst *bytes.Buffer, p []byte) {
	EncodeVarint(dst, int64(len(p)))
	dst.Write(p)
}

// WriteSizeBytes returns the number of bytes EncodeBytes would produce.
func WriteSizeBytes(p []byte) int {
	return WriteSizeVarint(int64(len(p))) + len(p)
}

// DecodeBytes consumes a varint length followed by that many raw bytes.
// The returned slice is a fresh copy, never a view into the reader's
// backing array, so callers may retain it safely.
func DecodeBytes(src *bytes.Reader) ([]byte, error) {
	n, err := DecodeVarint(src)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > int64(src.Len()) {
		if n < 0 {
			return nil, errors.Wrapf(ErrInvalidData, "negative length %d", n)
		}
		return nil, ErrUnexpectedEOF
	}
	if n == 0 {
		return []byte{}, nil
	}
	return readExact(src, int(n))
}
