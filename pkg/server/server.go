package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/samber/lo"
	"github.com/vietanhduong/ndktrace/pkg/ndk"
	"github.com/vietanhduong/ndktrace/pkg/pipeline"
)

const (
	NAME    = "ndktrace"
	VERSION = "v0.1.0"
)

type FindNDKArgs struct{}

type SymbolizeStackArgs struct {
	NDKPath     string `json:"ndkPath,omitempty" jsonschema:"NDK root. Defaults to the configured or first discovered NDK."`
	LibraryPath string `json:"libraryPath" jsonschema:"Required. Unstripped .so file or a directory searched for the libraries named in the stack."`
	Stack       string `json:"stack" jsonschema:"Required. Native backtrace as printed by logcat or a tombstone."`
}

// Server exposes NDK discovery and stack symbolization as MCP tools.
type Server struct {
	ndks     *ndk.Locator
	pipeline *pipeline.Pipeline
	// ndkRoot is used when a call names no NDK.
	ndkRoot string
}

func New(ndks *ndk.Locator, p *pipeline.Pipeline, ndkRoot string) *Server {
	if ndks == nil {
		ndks = ndk.NewLocator()
	}
	if p == nil {
		p = pipeline.New(ndks, nil, nil)
	}
	return &Server{ndks: ndks, pipeline: p, ndkRoot: ndkRoot}
}

func (s *Server) MCP() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: NAME, Version: VERSION}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_ndk",
		Description: "List Android NDK installations found on this machine with their llvm-symbolizer and llvm-addr2line paths.",
	}, s.findNDK)

	mcp.AddTool(server, &mcp.Tool{
		Name: "symbolize_stack",
		Description: `Resolve the "pc <offset> <library>" frames of a native Android backtrace to functions and source lines.
Every frame whose library is found under libraryPath is reported as "#<address> => <resolution>".`,
	}, s.symbolizeStack)
	return server
}

// Run serves until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	glog.Infof("Serving MCP %s %s", NAME, VERSION)
	return s.MCP().Run(ctx, t)
}

func (s *Server) findNDK(ctx context.Context, req *mcp.CallToolRequest, args FindNDKArgs) (*mcp.CallToolResult, any, error) {
	installs := s.ndks.Scan()
	text := "no NDK found"
	if len(installs) > 0 {
		text = strings.Join(lo.Map(installs, func(i ndk.Installation, _ int) string { return i.String() }), "\n")
	}
	return textResult(text), nil, nil
}

func (s *Server) symbolizeStack(ctx context.Context, req *mcp.CallToolRequest, args SymbolizeStackArgs) (*mcp.CallToolResult, any, error) {
	root := lo.Ternary(args.NDKPath != "", args.NDKPath, s.ndkRoot)
	if root == "" {
		root, _ = s.ndks.Default()
	}
	report, err := s.pipeline.Run(ctx, args.Stack, args.LibraryPath, root)
	if err != nil {
		return nil, nil, fmt.Errorf("symbolize: %w", err)
	}
	if report == "" {
		report = "no frame matched a library under " + args.LibraryPath
	}
	return textResult(report), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
