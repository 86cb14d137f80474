// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"encoding/json"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentBuild(t *testing.T) {
	tests := []struct {
		name    string
		info    *debug.BuildInfo
		ok      bool
		ldflags string
		want    BuildInfo
	}{
		{
			name: "no_build_info",
			want: BuildInfo{Version: "dev"},
		},
		{
			name: "devel_module_with_vcs",
			ok:   true,
			info: &debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789abcdef"},
					{Key: "vcs.time", Value: "2025-01-02T03:04:05Z"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			want: BuildInfo{Version: "dev", Revision: "0123456789abcdef", Time: "2025-01-02T03:04:05Z", Dirty: true},
		},
		{
			name: "tagged_module",
			ok:   true,
			info: &debug.BuildInfo{Main: debug.Module{Version: "v1.2.3"}},
			want: BuildInfo{Version: "v1.2.3"},
		},
		{
			name:    "ldflags_override",
			ok:      true,
			info:    &debug.BuildInfo{Main: debug.Module{Version: "v1.2.3"}},
			ldflags: "v9.9.9",
			want:    BuildInfo{Version: "v9.9.9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prevRead, prevVersion := readBuildInfo, version
			t.Cleanup(func() { readBuildInfo, version = prevRead, prevVersion })

			readBuildInfo = func() (*debug.BuildInfo, bool) { return tt.info, tt.ok }
			version = tt.ldflags

			got := CurrentBuild()
			assert.NotEmpty(t, got.GoVersion)
			assert.NotEmpty(t, got.Platform)

			got.GoVersion, got.Platform = "", ""
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildInfoString(t *testing.T) {
	info := BuildInfo{
		Version:   "v1.0.0",
		GoVersion: "go1.24.0",
		Platform:  "linux/amd64",
		Revision:  "0123456789abcdef",
		Time:      "2025-01-02T03:04:05Z",
		Dirty:     true,
	}
	assert.Equal(t, "📸 prdbackup v1.0.0 (0123456789ab-dirty)\n   built 2025-01-02T03:04:05Z with go1.24.0 for linux/amd64\n", info.String())

	info.Revision = ""
	info.Dirty = false
	assert.Contains(t, info.String(), "(unknown)")
}

func TestVersionCmdJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := newVersionCmd()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--json"})
	require.NoError(t, cmd.Execute())

	var got BuildInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, CurrentBuild(), got)
}
