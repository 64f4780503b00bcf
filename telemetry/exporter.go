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

// Package telemetry periodically snapshots multiplexer stats into
// internal/metricstorage and ships them to a Prometheus remote-write
// endpoint: a snappy-compressed protobuf WriteRequest over HTTP, the same
// wire format the roundtrip metrics sinker used.
package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gogo/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/streamwire/dataplane/internal/labels"
	"github.com/streamwire/dataplane/internal/metricstorage"
	"github.com/streamwire/dataplane/logger"
)

// Stats is the subset of multiplexer state the exporter turns into
// metrics. *mux.Multiplexer's Stats method returns this shape without
// this package ever importing mux.
type Stats struct {
	Inflight int
}

// StatsFunc is pulled by Exporter on every tick.
type StatsFunc func() Stats

// Config controls how often and where the exporter ships metrics.
type Config struct {
	Endpoint string        `config:"endpoint"`
	Interval time.Duration `config:"interval"`
	Instance string        `config:"instance"`
}

// Exporter owns one metricstorage.Storage fed from registered StatsFunc
// sources and periodically remote-writes it. It also implements
// mux.Recorder structurally, so a Multiplexer can be built with
// mux.WithRecorder(exporter) without this package importing mux.
type Exporter struct {
	cfg     Config
	storage *metricstorage.Storage
	client  *http.Client

	mut     sync.Mutex
	sources map[string]StatsFunc
}

// New builds an Exporter backed by storage, which the caller is
// responsible for constructing via metricstorage.New (it may be nil if
// the caller disabled metric storage, in which case Tick is a no-op).
func New(cfg Config, storage *metricstorage.Storage) *Exporter {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	return &Exporter{
		cfg:     cfg,
		storage: storage,
		client:  &http.Client{Timeout: 10 * time.Second},
		sources: make(map[string]StatsFunc),
	}
}

// Register names a multiplexer connection and its Stats accessor; Tick
// reports one inflight-exchange gauge per registered name.
func (e *Exporter) Register(name string, fn StatsFunc) {
	e.mut.Lock()
	defer e.mut.Unlock()
	e.sources[name] = fn
}

// Unregister drops a connection once it closes.
func (e *Exporter) Unregister(name string) {
	e.mut.Lock()
	defer e.mut.Unlock()
	delete(e.sources, name)
}

// ObserveDispatchLatency implements mux.Recorder.
func (e *Exporter) ObserveDispatchLatency(apiKey uint16, seconds float64) {
	if e.storage == nil {
		return
	}
	e.storage.Update(metricstorage.ConstMetric{
		Model:  metricstorage.ModelHistogram,
		Unit:   metricstorage.UnitSeconds,
		Name:   "mux_dispatch_latency_seconds",
		Labels: labels.Labels{{Name: "api_key", Value: fmt.Sprintf("%d", apiKey)}},
		Value:  seconds,
	})
}

// IncTimeouts implements mux.Recorder.
func (e *Exporter) IncTimeouts(apiKey uint16) {
	if e.storage == nil {
		return
	}
	e.storage.Update(metricstorage.ConstMetric{
		Model:  metricstorage.ModelCounter,
		Name:   "mux_timeouts_total",
		Labels: labels.Labels{{Name: "api_key", Value: fmt.Sprintf("%d", apiKey)}},
		Value:  1,
	})
}

// SetInflight implements mux.Recorder, though Exporter prefers the
// per-connection Tick snapshot below since a bare count carries no
// connection identity.
func (e *Exporter) SetInflight(int) {}

// Tick snapshots every registered source into storage as a gauge. Call it
// on every Run iteration, before pushing.
func (e *Exporter) Tick() {
	if e.storage == nil {
		return
	}
	e.mut.Lock()
	snapshot := make(map[string]StatsFunc, len(e.sources))
	for name, fn := range e.sources {
		snapshot[name] = fn
	}
	e.mut.Unlock()

	for name, fn := range snapshot {
		stats := fn()
		e.storage.Update(metricstorage.ConstMetric{
			Model:  metricstorage.ModelGauge,
			Name:   "mux_inflight_exchanges",
			Labels: labels.Labels{{Name: "connection", Value: name}},
			Value:  float64(stats.Inflight),
		})
	}
}

// Run blocks, ticking and pushing every cfg.Interval until ctx is done.
func (e *Exporter) Run(ctx context.Context) {
	if e.storage == nil || e.cfg.Endpoint == "" {
		return
	}
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.Tick()
			if err := e.push(ctx); err != nil {
				logger.Warnf("telemetry: remote-write failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (e *Exporter) push(ctx context.Context) error {
	wr := e.storage.WriteRequest()
	if len(wr.Timeseries) == 0 {
		return nil
	}

	raw, err := proto.Marshal(wr)
	if err != nil {
		return errors.Wrap(err, "telemetry: marshal write request")
	}
	compressed := snappy.Encode(nil, raw)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Endpoint, bytes.NewReader(compressed))
	if err != nil {
		return errors.Wrap(err, "telemetry: build request")
	}
	req.Header.Set("Content-Type", "application/x-protobuf")
	req.Header.Set("Content-Encoding", "snappy")
	req.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "telemetry: send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return errors.Errorf("telemetry: remote-write returned status %d", resp.StatusCode)
	}
	return nil
}
