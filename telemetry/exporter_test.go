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

package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamwire/dataplane/confengine"
	"github.com/streamwire/dataplane/internal/metricstorage"
)

func newTestStorage(t *testing.T) *metricstorage.Storage {
	t.Helper()
	conf, err := confengine.LoadContent([]byte("metricsStorage:\n  enabled: true\n  expired: 5m\n"))
	require.NoError(t, err)
	storage, err := metricstorage.New(conf)
	require.NoError(t, err)
	require.NotNil(t, storage)
	t.Cleanup(storage.Close)
	return storage
}

func TestExporterPushSendsSnappyCompressedProtobuf(t *testing.T) {
	var gotEncoding, gotVersion string
	var bodyLen int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEncoding = r.Header.Get("Content-Encoding")
		gotVersion = r.Header.Get("X-Prometheus-Remote-Write-Version")
		body, _ := io.ReadAll(r.Body)
		bodyLen = len(body)
		decoded, err := snappy.Decode(nil, body)
		assert.NoError(t, err)
		assert.NotEmpty(t, decoded)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	storage := newTestStorage(t)
	exp := New(Config{Endpoint: srv.URL, Interval: time.Second}, storage)
	exp.Register("conn-1", func() Stats { return Stats{Inflight: 3} })
	exp.Tick()

	require.NoError(t, exp.push(context.Background()))
	assert.Equal(t, "snappy", gotEncoding)
	assert.Equal(t, "0.1.0", gotVersion)
	assert.Greater(t, bodyLen, 0)
}

func TestExporterPushNoopWhenEmpty(t *testing.T) {
	storage := newTestStorage(t)
	exp := New(Config{Endpoint: "http://unused.invalid"}, storage)
	assert.NoError(t, exp.push(context.Background()))
}

func TestExporterRecorderMethodsNoopWithoutStorage(t *testing.T) {
	exp := New(Config{}, nil)
	exp.ObserveDispatchLatency(0, 0.5)
	exp.IncTimeouts(0)
	exp.SetInflight(4)
	exp.Tick()
}
