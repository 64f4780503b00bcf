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

// Package cmd wires the command-line surface on top of confengine, the
// logger and the dataplane server.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/streamwire/dataplane/common"
)

var configPath string

// NewRootCmd 创建并返回根命令
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   common.App,
		Short: "streamwire dataplane: record codec, request framing and connection multiplexer",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the yaml config file")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newPingCmd())
	return cmd
}
