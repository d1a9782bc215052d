package ndk

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/vietanhduong/ndktrace/pkg/syms"
)

type Tools struct {
	Symbolizer *syms.Tool
	Addr2line  *syms.Tool
}

// Preferred returns llvm-symbolizer when available, llvm-addr2line otherwise.
func (t Tools) Preferred() (syms.Tool, bool) {
	if t.Symbolizer != nil {
		return *t.Symbolizer, true
	}
	if t.Addr2line != nil {
		return *t.Addr2line, true
	}
	return syms.Tool{}, false
}

func (l *Locator) FindTools(root string) Tools {
	var ret Tools
	if t, ok := l.FindSymbolizer(root); ok {
		ret.Symbolizer = &t
	}
	if t, ok := l.FindAddr2line(root); ok {
		ret.Addr2line = &t
	}
	return ret
}

func (l *Locator) FindSymbolizer(root string) (syms.Tool, bool) {
	return l.findTool(root, syms.SYMBOLIZER)
}

func (l *Locator) FindAddr2line(root string) (syms.Tool, bool) {
	return l.findTool(root, syms.ADDR2LINE)
}

// findTool looks in toolchains/llvm/prebuilt/<host>/bin; an NDK ships a
// single host directory.
func (l *Locator) findTool(root string, kind syms.ToolKind) (syms.Tool, bool) {
	if root == "" {
		return syms.Tool{}, false
	}
	prebuilt := filepath.Join(root, "toolchains", "llvm", "prebuilt")
	for _, host := range l.subdirs(prebuilt) {
		for _, name := range []string{string(kind), string(kind) + ".exe"} {
			p := filepath.Join(host, "bin", name)
			if isDir, err := afero.IsDir(l.fs, p); err == nil && !isDir {
				return syms.Tool{Path: p, Kind: kind}, true
			}
		}
	}
	return syms.Tool{}, false
}

// Installation is a discovered NDK root with the resolvers it ships.
type Installation struct {
	Root  string
	Tools Tools
}

func (i Installation) String() string {
	var b strings.Builder
	b.WriteString(i.Root)
	for _, t := range []*syms.Tool{i.Tools.Symbolizer, i.Tools.Addr2line} {
		if t != nil {
			fmt.Fprintf(&b, "\n  %s: %s", t.Kind, t.Path)
		}
	}
	if _, ok := i.Tools.Preferred(); !ok {
		b.WriteString("\n  (no resolver tools)")
	}
	return b.String()
}

// Scan discovers NDKs and looks up the tools of each.
func (l *Locator) Scan() []Installation {
	return lo.Map(l.FindCandidates(), func(root string, _ int) Installation {
		return Installation{Root: root, Tools: l.FindTools(root)}
	})
}
