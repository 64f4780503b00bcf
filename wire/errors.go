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

import "github.com/pkg/errors"

// Sentinel error kinds shared by every layer built on top of wire.
//
// Callers distinguish kinds with errors.Is, never by matching strings.
var (
	// ErrUnexpectedEOF means the source held fewer bytes than a value requires.
	ErrUnexpectedEOF = errors.New("wire: unexpected end of input")

	// ErrInvalidData means the bytes present do not form a valid encoding
	// (overlong varint, unrecognised optional tag, oversize length).
	ErrInvalidData = errors.New("wire: invalid data")

	// ErrInvalidInput means the caller asked to encode a value that
	// violates a caller-imposed constraint.
	ErrInvalidInput = errors.New("wire: invalid input")
)
