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

// Request is implemented by every typed request payload. APIKey and
// APIVersion tell NewRequest how to fill the envelope's Header.
type Request interface {
	wire.Encoder
	APIKey() uint16
	APIVersion() uint16
}

// RequestMessage pairs a Header with a typed request payload, ready to be
// handed to a multiplexer exchange.
type RequestMessage struct {
	Header  Header
	Message Request
}

// NewRequest builds a RequestMessage with api-key/api-version copied from
// msg. CorrelationID is left zero; the multiplexer stamps it when the
// exchange is registered, immediately before the frame is written.
func NewRequest(msg Request, clientID string) RequestMessage {
	return RequestMessage{
		Header: Header{
			APIKey:      msg.APIKey(),
			APIVersion:  msg.APIVersion(),
			ClientID:    clientID,
			HasClientID: clientID != "",
		},
		Message: msg,
	}
}

func (m RequestMessage) WriteSize(version int16) int {
	return m.Header.WriteSize(version) + m.Message.WriteSize(version)
}

func (m RequestMessage) Encode(dst *bytes.Buffer, version int16) error {
	if err := m.Header.Encode(dst, version); err != nil {
		return err
	}
	return m.Message.Encode(dst, version)
}
