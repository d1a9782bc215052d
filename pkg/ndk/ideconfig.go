package ndk

import (
	"bufio"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	bufra "github.com/avvmoto/buf-readerat"
	"github.com/golang/glog"
	"github.com/spf13/afero"
)

const sdkPathProperty = "android.sdk.path="

var (
	sdkPathAttrRe = regexp.MustCompile(`android\.sdk\.path"\s+value="([^"]*)"`)
	sdkPathTagRe  = regexp.MustCompile(`android\.sdk\.path.*?>(.*?)<`)
)

// sdkPathsFromConfigDir reads the SDK location recorded by Android Studio in
// dir or its options/ subdirectory.
func (l *Locator) sdkPathsFromConfigDir(dir string) []string {
	var ret []string
	for _, d := range []string{dir, filepath.Join(dir, "options")} {
		if sdk, ok := l.scanConfig(filepath.Join(d, "idea.properties"), matchProperties); ok {
			ret = append(ret, l.expandMacros(sdk))
		}
		entries, err := afero.ReadDir(l.fs, d)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
				continue
			}
			if sdk, ok := l.scanConfig(filepath.Join(d, e.Name()), matchXML); ok {
				ret = append(ret, l.expandMacros(sdk))
			}
		}
	}
	return ret
}

func matchProperties(line string) (string, bool) {
	if !strings.HasPrefix(line, sdkPathProperty) {
		return "", false
	}
	v := strings.TrimSpace(strings.TrimPrefix(line, sdkPathProperty))
	return v, v != ""
}

func matchXML(line string) (string, bool) {
	for _, re := range []*regexp.Regexp{sdkPathAttrRe, sdkPathTagRe} {
		if m := re.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[1]) != "" {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// scanConfig streams p line by line and returns the first match.
func (l *Locator) scanConfig(p string, match func(string) (string, bool)) (string, bool) {
	f, err := l.fs.Open(p)
	if err != nil {
		return "", false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return "", false
	}

	r := io.NewSectionReader(bufra.NewBufReaderAt(f, 16*1024), 0, info.Size())
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if v, ok := match(scanner.Text()); ok {
			return v, true
		}
	}
	if err := scanner.Err(); err != nil {
		glog.Warningf("Failed to scan %s: %v", p, err)
	}
	return "", false
}

// expandMacros resolves the $USER_HOME$ placeholder Android Studio writes
// into its option files.
func (l *Locator) expandMacros(p string) string {
	if l.home != "" {
		p = strings.ReplaceAll(p, "$USER_HOME$", l.home)
	}
	return p
}
