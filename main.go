package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/vietanhduong/ndktrace/pkg/config"
	"github.com/vietanhduong/ndktrace/pkg/library"
	"github.com/vietanhduong/ndktrace/pkg/ndk"
	"github.com/vietanhduong/ndktrace/pkg/pipeline"
	"github.com/vietanhduong/ndktrace/pkg/server"
)

func main() {
	var (
		configPath string
		ndkRoot    string
		libPath    string
		stackPath  string
		demangle   string
		timeout    time.Duration
		scan       bool
		serveMCP   bool
	)
	flag.StringVar(&configPath, "config", "", "YAML config file. Flags override its values.")
	flag.StringVar(&ndkRoot, "ndk", "", "NDK root. Defaults to the first discovered NDK.")
	flag.StringVar(&libPath, "lib", "", "Unstripped library file or a directory holding the build output.")
	flag.StringVar(&stackPath, "stack", "-", "File holding the native backtrace, - for stdin.")
	flag.StringVar(&demangle, "demangle", "none", "Demangle resolved names: none, simplified, templates, full.")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for a single tool invocation, 0 to disable.")
	flag.BoolVar(&scan, "scan", false, "Print the discovered NDKs with their tools and exit.")
	flag.BoolVar(&serveMCP, "mcp", false, "Serve the symbolizer as MCP tools over stdio.")
	flag.Parse()
	defer glog.Flush()

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			glog.Errorf("Failed to load config: %v", err)
			exit(1)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ndk":
			cfg.NDK = ndkRoot
		case "lib":
			cfg.Libraries = libPath
		case "demangle":
			cfg.Demangle = demangle
		case "timeout":
			cfg.Timeout = timeout
		}
	})
	if err := cfg.Validate(); err != nil {
		glog.Errorf("Invalid options: %v", err)
		exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ndks := ndk.NewLocator(ndk.WithSearchPaths(cfg.SearchPaths...))
	p := pipeline.New(ndks, library.NewLocator(nil), cfg.Options())

	if scan {
		installs := ndks.Scan()
		if len(installs) == 0 {
			fmt.Fprintln(os.Stderr, "No NDK found")
			exit(1)
		}
		for _, i := range installs {
			fmt.Println(i)
		}
		return
	}

	if serveMCP {
		if err := server.New(ndks, p, cfg.NDK).Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			glog.Errorf("MCP server stopped: %v", err)
			exit(1)
		}
		return
	}

	if cfg.NDK == "" {
		root, ok := ndks.Default()
		if !ok {
			glog.Errorf("No NDK found, specify one with -ndk")
			exit(1)
		}
		glog.Infof("Using NDK %s", root)
		cfg.NDK = root
	}

	text, err := readStack(stackPath)
	if err != nil {
		glog.Errorf("Failed to read stack: %v", err)
		exit(1)
	}

	report, err := p.Run(ctx, text, cfg.Libraries, cfg.NDK)
	if err != nil {
		glog.Errorf("Failed to symbolize: %v", err)
		exit(1)
	}
	fmt.Print(report)
}

func readStack(path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func exit(code int) {
	glog.Flush()
	os.Exit(code)
}
