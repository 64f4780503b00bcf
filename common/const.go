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

package common

const (
	// App 应用程序名称
	App = "dataplane"

	// Version 应用程序版本
	Version = "v0.0.1"

	// MaxFrameSize 单个 Frame body 的最大长度
	//
	// 拒绝任何声明长度超过此值的 Frame 避免一个错误或恶意的长度前缀
	// 导致分配出过大的缓冲区
	MaxFrameSize = 16 * 1024 * 1024
)
