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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/streamwire/dataplane/common"
)

var (
	inflightExchanges = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: common.App,
		Subsystem: "mux",
		Name:      "inflight_exchanges",
		Help:      "outstanding multiplexer exchanges awaiting a response",
	})
	timeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: common.App,
		Subsystem: "mux",
		Name:      "timeouts_total",
		Help:      "serial exchanges that exceeded FLV_SOCKET_WAIT",
	})
	cancelsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: common.App,
		Subsystem: "mux",
		Name:      "cancels_total",
		Help:      "queue exchanges evicted after the caller dropped the stream",
	})
	droppedFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: common.App,
		Subsystem: "mux",
		Name:      "dropped_frames_total",
		Help:      "frames whose correlation id had no registered waiter",
	})
)

// Recorder receives multiplexer telemetry events for an external
// self-observability sink (see the telemetry package), independent of the
// promauto metrics above which always feed the local /metrics endpoint.
// Multiplexer never imports the telemetry package; any type with these
// three methods satisfies this interface.
type Recorder interface {
	ObserveDispatchLatency(apiKey uint16, seconds float64)
	IncTimeouts(apiKey uint16)
	SetInflight(n int)
}

type noopRecorder struct{}

func (noopRecorder) ObserveDispatchLatency(uint16, float64) {}
func (noopRecorder) IncTimeouts(uint16)                     {}
func (noopRecorder) SetInflight(int)                        {}
