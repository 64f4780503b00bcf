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

package api

import (
	"bytes"

	"github.com/streamwire/dataplane/wire"
)

// Built-in demo api-keys exercised by the serve command and by the
// multiplexer's own integration tests: a Serial echo and a Queue that
// streams a fixed count of status ticks.
const (
	KeyEcho   uint16 = 0
	KeyStatus uint16 = 1
)

// EchoRequest is a Serial exchange: send a payload, get the same payload
// back exactly once.
type EchoRequest struct {
	Payload []byte
}

func (r EchoRequest) APIKey() uint16     { return KeyEcho }
func (r EchoRequest) APIVersion() uint16 { return 0 }

func (r EchoRequest) WriteSize(version int16) int { return wire.WriteSizeBytes(r.Payload) }

func (r EchoRequest) Encode(dst *bytes.Buffer, version int16) error {
	wire.EncodeBytes(dst, r.Payload)
	return nil
}

func (r *EchoRequest) Decode(src *bytes.Reader, version int16) error {
	p, err := wire.DecodeBytes(src)
	if err != nil {
		return err
	}
	r.Payload = p
	return nil
}

// EchoResponse carries the payload back unchanged.
type EchoResponse struct {
	Payload []byte
}

func (r EchoResponse) WriteSize(version int16) int { return wire.WriteSizeBytes(r.Payload) }

func (r EchoResponse) Encode(dst *bytes.Buffer, version int16) error {
	wire.EncodeBytes(dst, r.Payload)
	return nil
}

func (r *EchoResponse) Decode(src *bytes.Reader, version int16) error {
	p, err := wire.DecodeBytes(src)
	if err != nil {
		return err
	}
	r.Payload = p
	return nil
}

// StatusRequest is a Queue exchange: the server streams Count
// StatusResponse values, one per emission, then sends nothing more; no
// end-of-stream marker follows the last value.
type StatusRequest struct {
	Count int32
}

func (r StatusRequest) APIKey() uint16     { return KeyStatus }
func (r StatusRequest) APIVersion() uint16 { return 0 }

func (r StatusRequest) WriteSize(version int16) int { return 4 }

func (r StatusRequest) Encode(dst *bytes.Buffer, version int16) error {
	wire.EncodeInt32(dst, r.Count)
	return nil
}

func (r *StatusRequest) Decode(src *bytes.Reader, version int16) error {
	n, err := wire.DecodeInt32(src)
	if err != nil {
		return err
	}
	r.Count = n
	return nil
}

// StatusResponse is one tick of a status stream.
type StatusResponse struct {
	Sequence int32
}

func (r StatusResponse) WriteSize(version int16) int { return 4 }

func (r StatusResponse) Encode(dst *bytes.Buffer, version int16) error {
	wire.EncodeInt32(dst, r.Sequence)
	return nil
}

func (r *StatusResponse) Decode(src *bytes.Reader, version int16) error {
	n, err := wire.DecodeInt32(src)
	if err != nil {
		return err
	}
	r.Sequence = n
	return nil
}
