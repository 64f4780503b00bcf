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

// Package transport frames the multiplexer's duplex byte stream: reading
// complete length-prefixed frames off one side, and serializing writes to
// the other behind a mutex so concurrent exchanges never interleave bytes.
package transport

import "io"

// Conn is the duplex transport a multiplexer runs over. Any
// io.ReadWriteCloser qualifies - a *net.TCPConn, a TLS conn, an in-memory
// net.Pipe half used by tests.
type Conn interface {
	io.ReadWriteCloser
}
