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

// Package mux multiplexes many concurrent request/response exchanges over
// a single duplex transport. Every exchange is either Serial (one request,
// one response) or Queue (one request, a stream of responses); both are
// routed purely by the correlation id a shared dispatcher goroutine reads
// off each inbound frame.
package mux

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/streamwire/dataplane/api"
	"github.com/streamwire/dataplane/internal/envcache"
	"github.com/streamwire/dataplane/internal/rescue"
	"github.com/streamwire/dataplane/logger"
	"github.com/streamwire/dataplane/transport"
	"github.com/streamwire/dataplane/wire"
)

var socketWait = envcache.Int("FLV_SOCKET_WAIT", 10)

// queueCapacity bounds how many undelivered frames a Queue exchange may
// buffer in front of a slow consumer before push starts to backpressure
// the dispatcher loop itself.
const queueCapacity = 64

// Multiplexer owns one duplex transport and every exchange running over
// it. Callers never touch the transport directly once a Multiplexer wraps
// it.
type Multiplexer struct {
	sink     *transport.ExclusiveSink
	reader   *transport.FrameReader
	closer   io.Closer
	recorder Recorder

	protocolVersion int16
	clientID        string

	nextID int32 // atomic; correlation ids start at 1

	mut       sync.Mutex
	waiters   map[int32]*waiterEntry
	closed    bool
	closeErr  error

	terminate chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Option configures a Multiplexer at construction.
type Option func(*Multiplexer)

// WithRecorder attaches a Recorder that observes dispatch latency,
// timeouts and in-flight depth, independent of the package's own
// promauto metrics.
func WithRecorder(r Recorder) Option {
	return func(m *Multiplexer) { m.recorder = r }
}

// WithClientID sets the client-id stamped on every outgoing request
// header.
func WithClientID(id string) Option {
	return func(m *Multiplexer) { m.clientID = id }
}

// WithProtocolVersion sets the wire version passed to every Encode/Decode
// call this multiplexer makes.
func WithProtocolVersion(v int16) Option {
	return func(m *Multiplexer) { m.protocolVersion = v }
}

// New wraps conn in a Multiplexer and starts its dispatcher goroutine.
// Close must be called to release the dispatcher and the transport.
func New(conn transport.Conn, opts ...Option) *Multiplexer {
	m := &Multiplexer{
		sink:      transport.NewExclusiveSink(conn),
		reader:    transport.NewFrameReader(conn),
		closer:    conn,
		recorder:  noopRecorder{},
		waiters:   make(map[int32]*waiterEntry),
		terminate: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.wg.Add(1)
	go m.dispatchLoop()
	return m
}

// Stats is a point-in-time snapshot of multiplexer state, pulled on
// demand rather than pushed per-event so callers with no interest in
// telemetry pay nothing for it.
type Stats struct {
	Inflight int
}

func (m *Multiplexer) Stats() Stats {
	m.mut.Lock()
	defer m.mut.Unlock()
	return Stats{Inflight: len(m.waiters)}
}

func (m *Multiplexer) allocateID() int32 {
	return atomic.AddInt32(&m.nextID, 1)
}

// SendAndReceive runs a Serial exchange: register a one-shot waiter for a
// freshly allocated correlation id, write the request, then block for
// either the matching response, FLV_SOCKET_WAIT elapsing, ctx being
// cancelled, or the multiplexer closing - whichever comes first. The
// waiter is always registered before the request is written, so a
// response racing the registration can never be dropped.
func SendAndReceive[T any, PT interface {
	*T
	wire.Decoder
}](ctx context.Context, m *Multiplexer, req api.Request) (T, error) {
	var zero T

	id := m.allocateID()
	waiter := newSerialWaiter()
	sentAt := time.Now()

	m.mut.Lock()
	if m.closed {
		err := m.closeErr
		m.mut.Unlock()
		return zero, err
	}
	m.waiters[id] = &waiterEntry{kind: kindSerial, apiKey: req.APIKey(), sentAt: sentAt, serial: waiter}
	inflightExchanges.Inc()
	n := len(m.waiters)
	m.mut.Unlock()
	m.recorder.SetInflight(n)

	defer func() {
		m.mut.Lock()
		delete(m.waiters, id)
		n := len(m.waiters)
		m.mut.Unlock()
		inflightExchanges.Dec()
		m.recorder.SetInflight(n)
	}()

	msg := api.NewRequest(req, m.clientID)
	msg.Header.CorrelationID = id
	if err := m.sink.Send(msg, m.protocolVersion); err != nil {
		return zero, errors.Wrap(ErrBrokenPipe, err.Error())
	}

	timer := time.NewTimer(time.Duration(socketWait()) * time.Second)
	defer timer.Stop()

	select {
	case <-waiter.done:
		if waiter.frame == nil {
			return zero, m.closeErrOrDefault()
		}
		var v T
		pt := PT(&v)
		var hdr api.Header
		src := bytes.NewReader(waiter.frame)
		if err := hdr.Decode(src, m.protocolVersion); err != nil {
			return zero, err
		}
		if err := pt.Decode(src, m.protocolVersion); err != nil {
			return zero, err
		}
		m.recorder.ObserveDispatchLatency(req.APIKey(), time.Since(sentAt).Seconds())
		return v, nil
	case <-timer.C:
		timeoutsTotal.Inc()
		m.recorder.IncTimeouts(req.APIKey())
		return zero, ErrTimedOut
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-m.terminate:
		return zero, m.closeErrOrDefault()
	}
}

// CreateStream runs a Queue exchange: register a bounded-channel waiter,
// write the request, and return a Stream the caller drains at its own
// pace. Before registering the new waiter, CreateStream sweeps the
// existing waiter map for Queue entries the caller has already Close'd
// and removes them - the lazy cancellation the spec calls for, instead of
// a background GC goroutine.
func CreateStream[T any, PT interface {
	*T
	wire.Decoder
}](ctx context.Context, m *Multiplexer, req api.Request) (*Stream[T, PT], error) {
	id := m.allocateID()
	waiter := newQueueWaiter(queueCapacity)

	m.mut.Lock()
	if m.closed {
		err := m.closeErr
		m.mut.Unlock()
		return nil, err
	}
	for otherID, entry := range m.waiters {
		if entry.kind == kindQueue && entry.queue.isClosed() {
			delete(m.waiters, otherID)
			inflightExchanges.Dec()
		}
	}
	m.waiters[id] = &waiterEntry{kind: kindQueue, apiKey: req.APIKey(), sentAt: time.Now(), queue: waiter}
	inflightExchanges.Inc()
	n := len(m.waiters)
	m.mut.Unlock()
	m.recorder.SetInflight(n)

	msg := api.NewRequest(req, m.clientID)
	msg.Header.CorrelationID = id
	if err := m.sink.Send(msg, m.protocolVersion); err != nil {
		m.mut.Lock()
		delete(m.waiters, id)
		n := len(m.waiters)
		m.mut.Unlock()
		inflightExchanges.Dec()
		m.recorder.SetInflight(n)
		return nil, errors.Wrap(ErrBrokenPipe, err.Error())
	}

	streamName := uuid.New().String()
	logger.Debugf("mux: opened queue stream %s for correlation id %d (api-key %d)", streamName, id, req.APIKey())
	return &Stream[T, PT]{m: m, correlationID: id, waiter: waiter, protocolVersion: m.protocolVersion, name: streamName}, nil
}

// dispatchLoop is the sole reader of the transport. It reads one frame,
// peeks its correlation id without decoding the payload, and routes it to
// whichever waiter (if any) is registered for that id. A panic while
// routing a single frame is contained by rescue.HandleCrash and does not
// bring the loop down; an I/O error or EOF from the transport itself
// always does, since the transport is no longer usable either way.
func (m *Multiplexer) dispatchLoop() {
	defer m.wg.Done()
	defer m.shutdown()

	for {
		frame, err := m.reader.ReadFrame()
		if err != nil {
			if err == io.EOF {
				m.setCloseErr(ErrSocketClosed)
			} else {
				m.setCloseErr(errors.Wrap(ErrSocketClosed, err.Error()))
			}
			return
		}
		m.routeFrame(frame)
	}
}

func (m *Multiplexer) routeFrame(frame []byte) {
	defer rescue.HandleCrash()

	correlationID, err := api.PeekCorrelationID(frame)
	if err != nil {
		logger.Warnf("mux: dropping unroutable frame: %v", err)
		droppedFramesTotal.Inc()
		return
	}

	m.mut.Lock()
	entry, ok := m.waiters[correlationID]
	if ok && entry.kind == kindSerial {
		delete(m.waiters, correlationID)
	}
	m.mut.Unlock()

	if !ok {
		logger.Debugf("mux: no waiter for correlation id %d, dropping frame", correlationID)
		droppedFramesTotal.Inc()
		return
	}

	switch entry.kind {
	case kindSerial:
		// SendAndReceive's own deferred cleanup decrements the gauge when
		// it wakes; this goroutine only unblocks it.
		entry.serial.fill(frame)
	case kindQueue:
		entry.queue.push(frame, m.terminate)
	}
}

// shutdown runs once the dispatcher loop exits for any reason: every
// outstanding Serial waiter is woken with a nil frame (SendAndReceive then
// returns the multiplexer's close error without decoding - there is no
// response coming) and every Queue waiter is sent a stream-end signal.
func (m *Multiplexer) shutdown() {
	m.mut.Lock()
	waiters := m.waiters
	m.waiters = make(map[int32]*waiterEntry)
	m.closed = true
	m.mut.Unlock()

	// Each waiter's own owner (SendAndReceive's defer, or the next
	// CreateStream sweep) decrements the gauge when it observes its
	// waiter end; this loop only wakes them, so it never touches the
	// gauge itself.
	for _, entry := range waiters {
		switch entry.kind {
		case kindSerial:
			entry.serial.fill(nil)
		case kindQueue:
			entry.queue.end()
		}
	}
	m.recorder.SetInflight(0)

	m.closeOnce.Do(func() { close(m.terminate) })
}

func (m *Multiplexer) setCloseErr(err error) {
	m.mut.Lock()
	if m.closeErr == nil {
		m.closeErr = err
	}
	m.mut.Unlock()
}

func (m *Multiplexer) closeErrOrDefault() error {
	m.mut.Lock()
	defer m.mut.Unlock()
	if m.closeErr != nil {
		return m.closeErr
	}
	return ErrSocketClosed
}

// Close closes the underlying transport, which ends the dispatcher loop,
// and waits for the loop to exit. A failure to close the transport is
// returned wrapped in a multierror.Error.
func (m *Multiplexer) Close() error {
	m.setCloseErr(ErrSocketClosed)

	var result *multierror.Error
	if err := m.closer.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	m.wg.Wait()
	return result.ErrorOrNil()
}
