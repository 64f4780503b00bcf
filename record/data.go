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

package record

import (
	"github.com/streamwire/dataplane/internal/bufbytes"
	"github.com/streamwire/dataplane/internal/envcache"
)

// maxStringDisplay caches FLV_MAX_STRING_DISPLAY, read once at first use.
var maxStringDisplay = envcache.Int("FLV_MAX_STRING_DISPLAY", 16384)

// Data is a record's key or value payload. Its String/Describe methods
// cap the rendered preview to FLV_MAX_STRING_DISPLAY bytes so logging or
// debug dumps of large records stay bounded. The cap counts bytes, not
// characters: a multi-byte UTF-8 character at the cut is split.
type Data []byte

// Describe renders the payload capped to FLV_MAX_STRING_DISPLAY bytes.
func (d Data) Describe() string {
	capped := bufbytes.New(maxStringDisplay())
	capped.Write(d)
	return capped.Text()
}

func (d Data) String() string {
	return d.Describe()
}
