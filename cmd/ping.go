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
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/streamwire/dataplane/api"
	"github.com/streamwire/dataplane/confengine"
	"github.com/streamwire/dataplane/internal/metricstorage"
	"github.com/streamwire/dataplane/mux"
	"github.com/streamwire/dataplane/telemetry"
)

func newPingCmd() *cobra.Command {
	var address, message string
	var showMetrics bool
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "connect to a serve instance and exchange one echo request over the multiplexer",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := net.Dial("tcp", address)
			if err != nil {
				return err
			}

			// metricsStorage backs the recorder passed to mux.New, so the
			// dispatch-latency histogram this exchange produces is real
			// data, not the default no-op recorder's silence.
			conf, err := confengine.LoadContent([]byte("metricsStorage:\n  enabled: true\n"))
			if err != nil {
				return err
			}
			storage, err := metricstorage.New(conf)
			if err != nil {
				return err
			}
			defer storage.Close()
			exporter := telemetry.New(telemetry.Config{}, storage)

			m := mux.New(conn, mux.WithClientID("ping-"+uuid.NewString()), mux.WithRecorder(exporter))
			defer m.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			resp, err := mux.SendAndReceive[api.EchoResponse](ctx, m, &api.EchoRequest{Payload: []byte(message)})
			if err != nil {
				return err
			}
			fmt.Printf("echo: %s\n", resp.Payload)

			if showMetrics {
				storage.WritePrometheus(os.Stdout)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "127.0.0.1:9420", "address of a serve instance")
	cmd.Flags().StringVar(&message, "message", "ping", "payload to echo")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print the recorded dispatch-latency metric after the exchange")
	return cmd
}
