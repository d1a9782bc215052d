package syms

import (
	"regexp"

	"github.com/ianlancetaylor/demangle"
)

var mangledRe = regexp.MustCompile(`_Z[0-9A-Za-z_.$]+`)

func demangleLine(line string, opts ...demangle.Option) string {
	return mangledRe.ReplaceAllStringFunc(line, func(sym string) string {
		return demangle.Filter(sym, opts...)
	})
}
