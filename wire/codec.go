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

// Package wire implements the primitive codec shared by every higher layer
// of the dataplane: fixed-width integers, zig-zag varints, length-prefixed
// byte strings and the one-byte optional tag.
package wire

import "bytes"

// Encoder is implemented by every composite type that can write itself onto
// the wire. WriteSize must be pure and must equal the number of bytes Encode
// appends for the same value and version.
type Encoder interface {
	WriteSize(version int16) int
	Encode(dst *bytes.Buffer, version int16) error
}

// Decoder is implemented by every composite type that can read itself off
// the wire. Decode mutates the receiver in place so zero-value composites
// can be reused as decode targets.
type Decoder interface {
	Decode(src *bytes.Reader, version int16) error
}
