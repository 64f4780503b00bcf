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

	"github.com/pkg/errors"
)

const (
	tagAbsent  = 0x00
	tagPresent = 0x01
)

// EncodeOptionalBytes emits the one-byte presence tag followed by the
// byte-string encoding of v when present is true, or the absent tag alone.
func EncodeOptionalBytes(dst *bytes.Buffer, v []byte, present bool) {
	if !present {
		dst.WriteByte(tagAbsent)
		return
	}
	dst.WriteByte(tagPresent)
	EncodeBytes(dst, v)
}

// WriteSizeOptionalBytes returns the number of bytes EncodeOptionalBytes
// would produce.
func WriteSizeOptionalBytes(v []byte, present bool) int {
	if !present {
		return 1
	}
	return 1 + WriteSizeBytes(v)
}

// DecodeOptionalBytes consumes the presence tag and, if present, the inner
// byte string. The second return value reports presence.
func DecodeOptionalBytes(src *bytes.Reader) ([]byte, bool, error) {
	tag, err := DecodeUint8(src)
	if err != nil {
		return nil, false, err
	}
	switch tag {
	case tagAbsent:
		return nil, false, nil
	case tagPresent:
		v, err := DecodeBytes(src)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	default:
		return nil, false, errors.Wrapf(ErrInvalidData, "optional tag %#x", tag)
	}
}
