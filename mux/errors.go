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

package mux

import "github.com/pkg/errors"

// Sentinel error kinds specific to the multiplexer, completing the set
// wire.Err* started. Callers distinguish kinds with errors.Is.
var (
	// ErrTimedOut means a Serial exchange waited longer than
	// FLV_SOCKET_WAIT for its response.
	ErrTimedOut = errors.New("mux: timed out waiting for response")

	// ErrBrokenPipe means the transport's write half failed; the
	// multiplexer is no longer usable.
	ErrBrokenPipe = errors.New("mux: broken pipe")

	// ErrSocketClosed means the dispatcher observed the peer close the
	// connection (EOF) or Close was called.
	ErrSocketClosed = errors.New("mux: socket closed")
)
