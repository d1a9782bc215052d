package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/golang/glog"
	"github.com/samber/lo"
	"github.com/vietanhduong/ndktrace/pkg/ndk"
	"github.com/vietanhduong/ndktrace/pkg/pipeline"
	"github.com/vietanhduong/ndktrace/pkg/stack"
	"github.com/vietanhduong/ndktrace/pkg/syms"
)

// Symbolizes a backtrace frame by frame, printing the original line next to
// its resolution and reporting frames that were skipped.
func main() {
	var libPath string
	var stackPath string
	var demangle string
	flag.StringVar(&libPath, "lib", "", "Directory holding the unstripped libraries")
	flag.StringVar(&stackPath, "stack", "", "File holding the backtrace")
	flag.StringVar(&demangle, "demangle", "full", "Demangle type")
	flag.Parse()
	defer glog.Flush()

	if libPath == "" || stackPath == "" {
		glog.Errorf("Both -lib and -stack are required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	locator := ndk.NewLocator()
	installs := locator.Scan()
	for _, i := range installs {
		glog.Infof("Found NDK %s", i)
	}
	install, ok := lo.Find(installs, func(i ndk.Installation) bool {
		_, ok := i.Tools.Preferred()
		return ok
	})
	if !ok {
		glog.Errorf("No NDK with llvm-symbolizer or llvm-addr2line found")
		os.Exit(1)
	}

	dt, err := syms.ParseDemangleType(demangle)
	if err != nil {
		glog.Errorf("Invalid demangle type: %v", err)
		os.Exit(1)
	}
	opts := syms.DefaultOptions()
	opts.DemangleType = dt

	raw, err := os.ReadFile(stackPath)
	if err != nil {
		glog.Errorf("Failed to read %s: %v", stackPath, err)
		os.Exit(1)
	}

	results, err := pipeline.New(locator, nil, opts).Resolve(ctx, string(raw), libPath, install.Root)
	if err != nil {
		glog.Errorf("Failed to resolve: %v", err)
		os.Exit(1)
	}

	resolved := lo.SliceToMap(results, func(r pipeline.Result) (string, pipeline.Result) {
		return r.Frame.Raw, r
	})
	for _, frame := range stack.Parse(string(raw)) {
		r, ok := resolved[frame.Raw]
		switch {
		case !ok:
			fmt.Printf("%s\n    skipped: %s not found\n", strings.TrimSpace(frame.Raw), frame.Library)
		case r.Err != nil:
			fmt.Printf("%s\n    error: %v\n", strings.TrimSpace(frame.Raw), r.Err)
		default:
			fmt.Printf("%s\n    %s\n", strings.TrimSpace(frame.Raw), r.Text)
		}
	}
}
