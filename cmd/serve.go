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

package cmd

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"

	"github.com/streamwire/dataplane/api"
	"github.com/streamwire/dataplane/common"
	"github.com/streamwire/dataplane/confengine"
	"github.com/streamwire/dataplane/internal/metricstorage"
	"github.com/streamwire/dataplane/internal/rescue"
	"github.com/streamwire/dataplane/internal/sigs"
	"github.com/streamwire/dataplane/logger"
	"github.com/streamwire/dataplane/server"
	"github.com/streamwire/dataplane/telemetry"
	"github.com/streamwire/dataplane/transport"
)

// serveConfig is the "serve" section of the yaml config file.
type serveConfig struct {
	Address        string `config:"address"`
	MaxConnections int    `config:"maxConnections"`
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "accept connections and answer the built-in demo api",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}

	applyLoggerOptions(conf)

	var cfg serveConfig
	if conf.Has("serve") {
		if err := conf.UnpackChild("serve", &cfg); err != nil {
			return err
		}
	}
	if cfg.Address == "" {
		cfg.Address = ":9420"
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 1024
	}

	storage, err := metricstorage.New(conf)
	if err != nil {
		return err
	}
	if storage != nil {
		defer storage.Close()
	}

	exporter := buildTelemetryExporter(conf, storage)
	if exporter != nil {
		exporter.Register("serve", func() telemetry.Stats {
			return telemetry.Stats{Inflight: int(atomic.LoadInt64(&activeConns))}
		})
	}

	admin, err := server.New(conf)
	if err != nil {
		return err
	}
	if admin != nil {
		registerAdminRoutes(admin, storage)
		go func() {
			if err := admin.ListenAndServe(); err != nil {
				logger.Errorf("admin server stopped: %v", err)
			}
		}()
	}

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}
	ln = netutil.LimitListener(ln, cfg.MaxConnections)
	logger.Infof("serve: listening on %s", cfg.Address)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if exporter != nil {
		go exporter.Run(ctx)
	}

	go func() {
		<-sigs.Terminate()
		logger.Infof("serve: shutting down")
		cancel()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go handleConn(conn)
	}
}

// activeConns tracks live connections handleConn is serving, the
// "connection/request count" the serve exporter's registered StatsFunc
// reports on every telemetry tick.
var activeConns int64

// handleConn answers every request on conn with the built-in demo api
// until the peer disconnects. Unlike mux.Multiplexer, which routes
// responses back to a caller that initiated requests, this is the
// responder side: it only ever replies to frames it receives.
func handleConn(conn net.Conn) {
	defer conn.Close()
	defer rescue.HandleCrash()

	atomic.AddInt64(&activeConns, 1)
	defer atomic.AddInt64(&activeConns, -1)

	reader := transport.NewFrameReader(conn)
	for {
		frame, err := reader.ReadFrame()
		if err != nil {
			return
		}
		if err := respond(conn, frame); err != nil {
			logger.Warnf("serve: %v", err)
			return
		}
	}
}

func respond(conn net.Conn, frame []byte) error {
	var hdr api.Header
	src := bytes.NewReader(frame)
	if err := hdr.Decode(src, 0); err != nil {
		return err
	}

	var reply api.ResponseMessage
	switch hdr.APIKey {
	case api.KeyEcho:
		var req api.EchoRequest
		if err := req.Decode(src, 0); err != nil {
			return err
		}
		reply = api.NewResponse(hdr, &api.EchoResponse{Payload: req.Payload})
		return sendFrame(conn, reply)

	case api.KeyStatus:
		var req api.StatusRequest
		if err := req.Decode(src, 0); err != nil {
			return err
		}
		for i := int32(0); i < req.Count; i++ {
			reply = api.NewResponse(hdr, &api.StatusResponse{Sequence: i})
			if err := sendFrame(conn, reply); err != nil {
				return err
			}
		}
		return nil

	default:
		logger.Debugf("serve: dropping request for unknown api-key %d", hdr.APIKey)
		return nil
	}
}

func sendFrame(conn net.Conn, msg api.ResponseMessage) error {
	var buf bytes.Buffer
	if err := msg.Encode(&buf, 0); err != nil {
		return err
	}
	return transport.WriteFrame(conn, buf.Bytes())
}

// defaultConfig keeps the sections server.New and metricstorage.New
// unconditionally unpack present, but disabled, when no --config is given.
const defaultConfig = "server:\n  enabled: false\nmetricsStorage:\n  enabled: false\n"

func loadConfig() (*confengine.Config, error) {
	if configPath == "" {
		return confengine.LoadContent([]byte(defaultConfig))
	}
	return confengine.LoadConfigPath(configPath)
}

func applyLoggerOptions(conf *confengine.Config) {
	if !conf.Has("logger") {
		return
	}
	var opt logger.Options
	if err := conf.UnpackChild("logger", &opt); err != nil {
		logger.Warnf("serve: invalid logger config: %v", err)
		return
	}
	logger.SetOptions(opt)
}

func buildTelemetryExporter(conf *confengine.Config, storage *metricstorage.Storage) *telemetry.Exporter {
	if storage == nil || !conf.Has("telemetry") {
		return nil
	}
	var cfg telemetry.Config
	if err := conf.UnpackChild("telemetry", &cfg); err != nil {
		logger.Warnf("serve: invalid telemetry config: %v", err)
		return nil
	}
	return telemetry.New(cfg, storage)
}

func registerAdminRoutes(admin *server.Server, storage *metricstorage.Storage) {
	admin.RegisterGetRoute("/metrics", promhttp.Handler().ServeHTTP)

	if storage != nil {
		admin.RegisterGetRoute("/-/write-metrics", func(w http.ResponseWriter, r *http.Request) {
			storage.WritePrometheus(w)
		})
	}

	admin.RegisterPostRoute("/-/logger", func(w http.ResponseWriter, r *http.Request) {
		level := r.URL.Query().Get("level")
		if level == "" {
			http.Error(w, "missing level query parameter", http.StatusBadRequest)
			return
		}
		logger.SetLoggerLevel(level)
		w.WriteHeader(http.StatusNoContent)
	})

	admin.RegisterGetRoute("/status", func(w http.ResponseWriter, r *http.Request) {
		info := common.GetBuildInfo()
		status := common.NewOptions()
		status.Merge("uptime", time.Now().Format(time.RFC3339))
		status.Merge("version", info.Version)
		status.Merge("gitHash", info.GitHash)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status)
	})
}
