package syms

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// llvm-symbolizer only honours the low 7 hex digits of an unprefixed offset.
const symbolizerAddrWidth = 7

type Resolver struct {
	tool Tool
	opts *Options
	run  runFunc
}

func NewResolver(tool Tool, opts *Options) (*Resolver, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if tool.Kind != SYMBOLIZER && tool.Kind != ADDR2LINE {
		return nil, fmt.Errorf("unsupported tool kind %q", tool.Kind)
	}
	if tool.Path == "" {
		return nil, fmt.Errorf("no path for %s", tool.Kind)
	}
	return &Resolver{tool: tool, opts: opts, run: run}, nil
}

func (r *Resolver) Tool() Tool { return r.tool }

// Address returns the form of raw handed to the tool.
func (r *Resolver) Address(raw string) string {
	if r.tool.Kind == SYMBOLIZER {
		return NormalizeAddress(raw)
	}
	return raw
}

// Resolve runs the tool once for raw inside library. An empty result with a
// nil error means the tool had nothing to say about the address.
func (r *Resolver) Resolve(ctx context.Context, library, raw string) (string, error) {
	lib, err := filepath.Abs(library)
	if err != nil {
		return "", &ExecError{Tool: string(r.tool.Kind), Err: fmt.Errorf("abs %s: %w", library, err)}
	}
	var args []string
	switch r.tool.Kind {
	case SYMBOLIZER:
		args = symbolizerArgs(lib, r.Address(raw))
	default:
		args = addr2lineArgs(lib, raw)
	}
	lines, err := r.run(ctx, r.opts.Timeout, r.tool.Path, args...)
	if err != nil {
		return "", err
	}
	if opts := r.opts.DemangleType.ToOptions(); len(opts) > 0 {
		for i := range lines {
			lines[i] = demangleLine(lines[i], opts...)
		}
	}
	return strings.Join(lines, ""), nil
}

func NormalizeAddress(raw string) string {
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		return raw
	}
	if len(raw) > symbolizerAddrWidth {
		raw = raw[len(raw)-symbolizerAddrWidth:]
	}
	return "0x" + raw
}

func symbolizerArgs(library, addr string) []string {
	return []string{"-e", library, addr}
}

func addr2lineArgs(library, addr string) []string {
	return []string{"-e", library, "-f", "-C", "-p", addr}
}
