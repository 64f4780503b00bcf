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

// ResponseMessage pairs a Header mirroring the originating request with an
// encoded response payload. A Queue exchange writes one per emission; a
// Serial exchange writes exactly one.
type ResponseMessage struct {
	Header  Header
	Message wire.Encoder
}

// NewResponse mirrors reqHeader's correlation id, api-key and api-version
// so the caller's multiplexer can route the reply back to the exchange
// that requested it.
func NewResponse(reqHeader Header, msg wire.Encoder) ResponseMessage {
	return ResponseMessage{Header: reqHeader, Message: msg}
}

func (m ResponseMessage) WriteSize(version int16) int {
	return m.Header.WriteSize(version) + m.Message.WriteSize(version)
}

func (m ResponseMessage) Encode(dst *bytes.Buffer, version int16) error {
	if err := m.Header.Encode(dst, version); err != nil {
		return err
	}
	return m.Message.Encode(dst, version)
}
