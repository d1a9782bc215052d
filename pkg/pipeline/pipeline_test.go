package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietanhduong/ndktrace/pkg/ndk"
	"github.com/vietanhduong/ndktrace/pkg/syms"
)

// fakeSymbolizer fails for 0x0000001 and otherwise answers with a function
// and a source line derived from the address.
const fakeSymbolizer = `
if [ "$3" = "0x0000001" ]; then
	echo "bad address" >&2
	exit 1
fi
printf 'fn_%s\n' "$3"
printf ' at %s:1\n' "$(basename "$2")"
`

type fixture struct {
	ndk  string
	libs string
}

func newFixture(t *testing.T, tools map[string]string) fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	root := t.TempDir()
	f := fixture{ndk: filepath.Join(root, "ndk"), libs: filepath.Join(root, "out")}

	bin := filepath.Join(f.ndk, "toolchains", "llvm", "prebuilt", "linux-x86_64", "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	for name, body := range tools {
		require.NoError(t, os.WriteFile(filepath.Join(bin, name), []byte("#!/bin/sh\n"+body), 0o755))
	}

	for _, p := range []string{"obj/local/arm64-v8a/libfoo.so", "obj/local/arm64-v8a/libbar.so"} {
		p = filepath.Join(f.libs, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("ELF"), 0o644))
	}
	return f
}

func TestRun(t *testing.T) {
	f := newFixture(t, map[string]string{"llvm-symbolizer": fakeSymbolizer})
	p := New(nil, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		stack string
		want  string
	}{
		{
			name:  "single frame",
			stack: "#00 pc 0005a6c8  /system/lib/libfoo.so",
			want:  "#0x005a6c8 => fn_0x005a6c8 at libfoo.so:1\n\n",
		},
		{
			name: "tombstone keeps input order",
			stack: "backtrace:\n" +
				"      #00 pc 000000000001e2d0  /data/app/com.example/lib/arm64/libbar.so (crash+16)\n" +
				"      #01 pc 000000000005a6c8  /data/app/com.example/lib/arm64/libfoo.so (BuildId: abc)\r\n",
			want: "#0x001e2d0 => fn_0x001e2d0 at libbar.so:1\n\n" +
				"#0x005a6c8 => fn_0x005a6c8 at libfoo.so:1\n\n",
		},
		{
			name:  "missing library is skipped",
			stack: "#00 pc 0005a6c8  /system/lib/libmissing.so",
			want:  "",
		},
		{
			name:  "no frames",
			stack: "Abort message: 'boom'\nsignal 11 (SIGSEGV)",
			want:  "",
		},
		{
			name: "failed address does not stop the run",
			stack: "#00 pc 00000001  /system/lib/libfoo.so\n" +
				"#01 pc 0005a6c8  /system/lib/libfoo.so",
			want: "#0x0000001 => resolve failed, exit code: 1\n\n" +
				"#0x005a6c8 => fn_0x005a6c8 at libfoo.so:1\n\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Run(ctx, tt.stack, f.libs, f.ndk)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("report mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunLibraryFile(t *testing.T) {
	f := newFixture(t, map[string]string{"llvm-symbolizer": fakeSymbolizer})
	lib := filepath.Join(f.libs, "obj", "local", "arm64-v8a", "libfoo.so")

	got, err := New(nil, nil, nil).Run(context.Background(),
		"#00 pc 0005a6c8  /system/lib/libfoo.so\n#01 pc 0001e2d0  /system/lib/libbar.so", lib, f.ndk)
	require.NoError(t, err)
	assert.Equal(t, "#0x005a6c8 => fn_0x005a6c8 at libfoo.so:1\n\n", got)
}

func TestRunFallsBackToAddr2line(t *testing.T) {
	f := newFixture(t, map[string]string{
		"llvm-addr2line": "printf '%s at %s\\n' \"$6\" \"$(basename \"$2\")\"\n",
	})
	results, err := New(nil, nil, nil).Resolve(context.Background(),
		"#00 pc 000000000005a6c8  /system/lib/libfoo.so", f.libs, f.ndk)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "000000000005a6c8", results[0].Address)
	assert.Equal(t, "000000000005a6c8 at libfoo.so", results[0].Text)
	assert.Equal(t, "libfoo.so", results[0].Frame.Library)
	assert.NoError(t, results[0].Err)
}

func TestRunWithoutTools(t *testing.T) {
	f := newFixture(t, nil)
	got, err := New(nil, nil, nil).Run(context.Background(), "#00 pc 0005a6c8  /system/lib/libfoo.so", f.libs, f.ndk)
	require.NoError(t, err)
	assert.Equal(t, NoToolMessage, got)
}

func TestRunPreconditions(t *testing.T) {
	tests := []struct {
		name             string
		stack, lib, root string
		want             error
	}{
		{name: "no ndk", stack: "x", lib: "/out", root: "  ", want: ErrNoNDKPath},
		{name: "no library", stack: "x", lib: "", root: "/ndk", want: ErrNoLibraryPath},
		{name: "no stack", stack: " \n ", lib: "/out", root: "/ndk", want: ErrNoStack},
		{name: "ndk checked first", stack: "", lib: "", root: "", want: ErrNoNDKPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(nil, nil, nil).Run(context.Background(), tt.stack, tt.lib, tt.root)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Empty(t, got)
		})
	}
}

func TestRunCanceled(t *testing.T) {
	f := newFixture(t, map[string]string{"llvm-symbolizer": fakeSymbolizer})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil, nil, nil).Run(ctx, "#00 pc 0005a6c8  /system/lib/libfoo.so", f.libs, f.ndk)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunTimeoutIsReported(t *testing.T) {
	f := newFixture(t, map[string]string{"llvm-symbolizer": "sleep 10\n"})
	p := New(ndk.NewLocator(), nil, &syms.Options{Timeout: 100 * time.Millisecond})
	results, err := p.Resolve(context.Background(), "#00 pc 0005a6c8  /system/lib/libfoo.so", f.libs, f.ndk)
	require.NoError(t, err)
	require.Len(t, results, 1)
	var timeoutErr *syms.TimeoutError
	assert.True(t, errors.As(results[0].Err, &timeoutErr), "got %v", results[0].Err)
	assert.Contains(t, Format(results), "#0x005a6c8 => exec error:")
}
