package stack

import (
	"regexp"
	"strings"
)

var frameRe = regexp.MustCompile(`.*pc\s+([0-9a-fA-F]+)\s+(\S+)`)

// ParseLine extracts a frame from a single backtrace line. Lines without a
// "pc <hex> <path>" sequence are not frames.
func ParseLine(line string) (*Frame, bool) {
	m := frameRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	return &Frame{
		Address: m[1],
		Library: libraryName(m[2]),
		Path:    m[2],
		Raw:     line,
	}, true
}

func Parse(text string) []Frame {
	var ret []Frame
	for _, line := range Lines(text) {
		if f, ok := ParseLine(line); ok {
			ret = append(ret, *f)
		}
	}
	return ret
}

// Lines splits text on line breaks, tolerating CRLF input.
func Lines(text string) []string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	return lines
}

func libraryName(p string) string {
	// Libraries loaded straight from an APK are printed as base.apk!libfoo.so.
	if i := strings.LastIndexByte(p, '!'); i >= 0 && i < len(p)-1 {
		p = p[i+1:]
	}
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		p = p[i+1:]
	}
	return p
}
