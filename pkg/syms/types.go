package syms

import (
	"fmt"
	"strings"
	"time"

	"github.com/ianlancetaylor/demangle"
	"golang.org/x/exp/slices"
)

type ToolKind string

const (
	SYMBOLIZER ToolKind = "llvm-symbolizer"
	ADDR2LINE  ToolKind = "llvm-addr2line"
)

// Tool is an executable inside an NDK able to map a library offset to a
// source location.
type Tool struct {
	Path string
	Kind ToolKind
}

func (t Tool) String() string { return fmt.Sprintf("%s (%s)", t.Path, t.Kind) }

type Options struct {
	// Timeout bounds a single tool invocation. Zero disables it.
	Timeout      time.Duration
	DemangleType DemangleType
}

const DEFAULT_TIMEOUT = 30 * time.Second

var defaultOpts = &Options{
	Timeout:      DEFAULT_TIMEOUT,
	DemangleType: DemangleNone,
}

func DefaultOptions() *Options {
	opts := *defaultOpts
	return &opts
}

type DemangleType string

const (
	DemangleNone       DemangleType = "NONE"
	DemangleSimplified DemangleType = "SIMPLIFIED"
	DemangleTemplates  DemangleType = "TEMPLATES"
	DemangleFull       DemangleType = "FULL"
)

var DemangleTypes = []DemangleType{DemangleNone, DemangleSimplified, DemangleTemplates, DemangleFull}

func ParseDemangleType(s string) (DemangleType, error) {
	if s == "" {
		return DemangleNone, nil
	}
	dt := DemangleType(strings.ToUpper(s))
	if slices.Contains(DemangleTypes, dt) {
		return dt, nil
	}
	return "", fmt.Errorf("unknown demangle type %q", s)
}

func (dt DemangleType) ToOptions() []demangle.Option {
	switch dt {
	case DemangleNone:
		return nil
	case DemangleSimplified:
		return []demangle.Option{demangle.NoParams, demangle.NoEnclosingParams, demangle.NoTemplateParams}
	case DemangleTemplates:
		return []demangle.Option{demangle.NoParams, demangle.NoEnclosingParams}
	default:
		return []demangle.Option{demangle.NoClones}
	}
}

// ExitError reports a tool that ran but exited with a non-zero status.
type ExitError struct {
	Tool   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string { return fmt.Sprintf("resolve failed, exit code: %d", e.Code) }

// ExecError reports a tool that could not be started or whose output could
// not be read.
type ExecError struct {
	Tool string
	Err  error
}

func (e *ExecError) Error() string { return fmt.Sprintf("exec error: %v", e.Err) }

func (e *ExecError) Unwrap() error { return e.Err }

type TimeoutError struct {
	Tool    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("exec error: %s timed out after %v", e.Tool, e.Timeout)
}
