package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/vietanhduong/ndktrace/pkg/library"
	"github.com/vietanhduong/ndktrace/pkg/ndk"
	"github.com/vietanhduong/ndktrace/pkg/stack"
	"github.com/vietanhduong/ndktrace/pkg/syms"
)

// NoToolMessage is the whole report when the NDK ships neither resolver.
const NoToolMessage = "no llvm-symbolizer or llvm-addr2line found"

var (
	ErrNoNDKPath     = errors.New("no NDK path specified")
	ErrNoLibraryPath = errors.New("no library path specified")
	ErrNoStack       = errors.New("no stack trace specified")
)

// Result is the resolution of one stack frame. Err is set when the tool
// could not resolve the address; Text may be empty on success.
type Result struct {
	Frame   stack.Frame
	Address string
	Text    string
	Err     error
}

func (r Result) String() string {
	text := r.Text
	if r.Err != nil {
		text = r.Err.Error()
	}
	return fmt.Sprintf("#%s => %s", r.Address, text)
}

type Pipeline struct {
	ndks *ndk.Locator
	libs *library.Locator
	opts *syms.Options
}

func New(ndks *ndk.Locator, libs *library.Locator, opts *syms.Options) *Pipeline {
	if ndks == nil {
		ndks = ndk.NewLocator()
	}
	if libs == nil {
		libs = library.NewLocator(nil)
	}
	if opts == nil {
		opts = syms.DefaultOptions()
	}
	return &Pipeline{ndks: ndks, libs: libs, opts: opts}
}

// Run resolves every frame of stackText and formats the report.
func (p *Pipeline) Run(ctx context.Context, stackText, libraryRoot, ndkRoot string) (string, error) {
	results, err := p.Resolve(ctx, stackText, libraryRoot, ndkRoot)
	if errors.Is(err, errNoTool) {
		return NoToolMessage, nil
	}
	if err != nil {
		return "", err
	}
	return Format(results), nil
}

var errNoTool = errors.New(NoToolMessage)

// Resolve returns one Result per frame whose library was found, in input
// order. Lines that are not frames and frames of libraries absent under
// libraryRoot are skipped.
func (p *Pipeline) Resolve(ctx context.Context, stackText, libraryRoot, ndkRoot string) ([]Result, error) {
	ndkRoot, libraryRoot = strings.TrimSpace(ndkRoot), strings.TrimSpace(libraryRoot)
	switch {
	case ndkRoot == "":
		return nil, ErrNoNDKPath
	case libraryRoot == "":
		return nil, ErrNoLibraryPath
	case strings.TrimSpace(stackText) == "":
		return nil, ErrNoStack
	}

	tools := p.ndks.FindTools(ndkRoot)
	tool, ok := tools.Preferred()
	if !ok {
		glog.Warningf("No resolver tool under %s", ndkRoot)
		return nil, errNoTool
	}
	resolver, err := syms.NewResolver(tool, p.opts)
	if err != nil {
		return nil, fmt.Errorf("new resolver: %w", err)
	}
	glog.V(1).Infof("Using %s", tool)

	var ret []Result
	for _, line := range stack.Lines(stackText) {
		if err := ctx.Err(); err != nil {
			return ret, err
		}
		frame, ok := stack.ParseLine(line)
		if !ok {
			continue
		}
		lib, ok := p.libs.Locate(libraryRoot, frame.Library)
		if !ok {
			glog.V(2).Infof("Skip %s: %s not found under %s", frame.Address, frame.Library, libraryRoot)
			continue
		}
		text, err := resolver.Resolve(ctx, lib, frame.Address)
		if err != nil {
			glog.V(1).Infof("Resolve %s in %s: %v", frame.Address, lib, err)
		}
		ret = append(ret, Result{
			Frame:   *frame,
			Address: resolver.Address(frame.Address),
			Text:    text,
			Err:     err,
		})
	}
	return ret, nil
}

// Format renders results one per entry, each followed by a blank line.
func Format(results []Result) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteString(r.String())
		b.WriteString("\n\n")
	}
	return b.String()
}
