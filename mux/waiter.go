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

import (
	"sync"
	"time"
)

// serialWaiter is a one-shot slot for a Serial exchange: the dispatcher
// fills it exactly once, then closes done. The registering goroutine
// blocks on done, never on a channel receive directly, so a timeout or
// cancellation can race the fill without either side leaking.
type serialWaiter struct {
	done  chan struct{}
	frame []byte
}

func newSerialWaiter() *serialWaiter {
	return &serialWaiter{done: make(chan struct{})}
}

// fill stores frame and signals done. The dispatcher only ever calls this
// once per waiter; a correlation id is removed from the waiter map in the
// same step that fills it.
func (w *serialWaiter) fill(frame []byte) {
	w.frame = frame
	close(w.done)
}

// queueWaiter is a bounded producer/consumer channel of frames backing a
// Queue exchange. A nil frame value pushed onto ch signals stream end.
type queueWaiter struct {
	ch     chan []byte
	closed chan struct{}
	once   sync.Once
}

func newQueueWaiter(capacity int) *queueWaiter {
	return &queueWaiter{
		ch:     make(chan []byte, capacity),
		closed: make(chan struct{}),
	}
}

// push delivers frame, blocking for backpressure when the queue is full.
// It gives up only if the receiver dropped the stream (closed) or the
// multiplexer itself is shutting down (terminate) - the spec's "queues
// apply backpressure, never drop" rule holds for every live receiver.
func (w *queueWaiter) push(frame []byte, terminate <-chan struct{}) {
	select {
	case w.ch <- frame:
	case <-w.closed:
	case <-terminate:
	}
}

// end delivers the stream-end signal without blocking: if the channel is
// full the nil is dropped, and the receiver sees EOF from the
// multiplexer's terminate channel, which Stream.Next also selects on.
func (w *queueWaiter) end() {
	select {
	case w.ch <- nil:
	default:
	}
}

func (w *queueWaiter) isClosed() bool {
	select {
	case <-w.closed:
		return true
	default:
		return false
	}
}

// close marks the waiter closed so the dispatcher's lazy sweep can evict
// it; safe to call more than once.
func (w *queueWaiter) close() {
	w.once.Do(func() { close(w.closed) })
}

type waiterKind uint8

const (
	kindSerial waiterKind = iota
	kindQueue
)

// waiterEntry is the map value for a registered exchange, tagged by kind
// since a single map holds both flavors keyed by correlation id.
type waiterEntry struct {
	kind   waiterKind
	apiKey uint16
	sentAt time.Time
	serial *serialWaiter
	queue  *queueWaiter
}
