package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietanhduong/ndktrace/pkg/syms"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    *Config
		wantErr string
	}{
		{
			name: "empty keeps defaults",
			data: "",
			want: Default(),
		},
		{
			name: "all fields",
			data: `
ndk: /opt/android-ndk
libraries: /src/app/build/intermediates
searchPaths:
  - /mnt/toolchains
timeout: 5s
demangle: full
`,
			want: &Config{
				NDK:         "/opt/android-ndk",
				Libraries:   "/src/app/build/intermediates",
				SearchPaths: []string{"/mnt/toolchains"},
				Timeout:     5 * time.Second,
				Demangle:    "full",
			},
		},
		{name: "bad demangle", data: "demangle: pretty", wantErr: "demangle"},
		{name: "negative timeout", data: "timeout: -1s", wantErr: "timeout"},
		{name: "blank search path", data: "searchPaths: [' ']", wantErr: "searchPaths[0]"},
		{name: "not yaml", data: "ndk: [", wantErr: "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.data))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "ndktrace.yaml")
	require.NoError(t, os.WriteFile(p, []byte("timeout: 0s\ndemangle: Simplified\n"), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)
	opts := cfg.Options()
	assert.Equal(t, time.Duration(0), opts.Timeout)
	assert.Equal(t, syms.DemangleSimplified, opts.DemangleType)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
