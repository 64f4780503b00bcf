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

// Package api implements the L3 request/response envelope: a fixed-layout
// header carrying the api-key, api-version and correlation id, and the
// constructors that wrap a typed payload with it.
package api

import (
	"bytes"
	"encoding/binary"

	"github.com/streamwire/dataplane/wire"
)

// Header is the fixed layout every frame body begins with. Correlation id
// zero is reserved for unsolicited/broadcast messages; a multiplexer
// allocates 1, 2, 3, ... monotonically for everything else.
type Header struct {
	APIKey        uint16
	APIVersion    uint16
	CorrelationID int32
	ClientID      string
	HasClientID   bool
}

func (h Header) WriteSize(version int16) int {
	return 2 + 2 + 4 + wire.WriteSizeOptionalBytes([]byte(h.ClientID), h.HasClientID)
}

func (h Header) Encode(dst *bytes.Buffer, version int16) error {
	wire.EncodeUint16(dst, h.APIKey)
	wire.EncodeUint16(dst, h.APIVersion)
	wire.EncodeInt32(dst, h.CorrelationID)
	wire.EncodeOptionalBytes(dst, []byte(h.ClientID), h.HasClientID)
	return nil
}

func (h *Header) Decode(src *bytes.Reader, version int16) error {
	apiKey, err := wire.DecodeUint16(src)
	if err != nil {
		return err
	}
	apiVersion, err := wire.DecodeUint16(src)
	if err != nil {
		return err
	}
	correlationID, err := wire.DecodeInt32(src)
	if err != nil {
		return err
	}
	clientID, hasClientID, err := wire.DecodeOptionalBytes(src)
	if err != nil {
		return err
	}

	h.APIKey = apiKey
	h.APIVersion = apiVersion
	h.CorrelationID = correlationID
	h.ClientID = string(clientID)
	h.HasClientID = hasClientID
	return nil
}

// headerCorrelationIDOffset is the byte offset of the correlation id
// within an encoded Header: 2 bytes api-key + 2 bytes api-version.
const headerCorrelationIDOffset = 4

// PeekCorrelationID reads only the 32-bit correlation id from a frame
// body's head, leaving the body untouched for the application decoder
// that runs later. This is what lets the multiplexer's dispatcher route a
// frame without decoding (or even knowing the shape of) its payload.
func PeekCorrelationID(body []byte) (int32, error) {
	if len(body) < headerCorrelationIDOffset+4 {
		return 0, wire.ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint32(body[headerCorrelationIDOffset : headerCorrelationIDOffset+4])
	return int32(v), nil
}
