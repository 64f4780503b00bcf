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

// Package envcache reads a small, fixed set of environment variables once
// and caches the parsed result for the remaining lifetime of the process.
package envcache

import (
	"os"
	"sync"

	"github.com/spf13/cast"
)

// Int returns a getter that reads name from the environment on its first
// call, coerces it with spf13/cast, and returns def whenever the variable
// is absent or does not parse. Subsequent calls return the cached value.
func Int(name string, def int) func() int {
	var once sync.Once
	var v int
	return func() int {
		once.Do(func() {
			v = def
			s, ok := os.LookupEnv(name)
			if !ok {
				return
			}
			if n, err := cast.ToIntE(s); err == nil {
				v = n
			}
		})
		return v
	}
}
