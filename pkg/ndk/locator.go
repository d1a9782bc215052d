package ndk

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/golang/glog"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// Locator discovers NDK installations. All process state it reads (file
// system, environment, home directory, OS, registry) is injectable.
type Locator struct {
	fs       afero.Fs
	getenv   func(string) string
	home     string
	goos     string
	registry Registry
	extra    []string
	probes   []probe
}

type Option func(*Locator)

func WithFs(fs afero.Fs) Option { return func(l *Locator) { l.fs = fs } }

func WithEnv(getenv func(string) string) Option { return func(l *Locator) { l.getenv = getenv } }

func WithHome(home string) Option { return func(l *Locator) { l.home = home } }

func WithGOOS(goos string) Option { return func(l *Locator) { l.goos = goos } }

func WithRegistry(r Registry) Option { return func(l *Locator) { l.registry = r } }

// WithSearchPaths adds install locations scanned after the built-in ones.
func WithSearchPaths(paths ...string) Option {
	return func(l *Locator) { l.extra = append(l.extra, paths...) }
}

func NewLocator(opts ...Option) *Locator {
	this := &Locator{
		fs:       afero.NewOsFs(),
		getenv:   os.Getenv,
		goos:     runtime.GOOS,
		registry: defaultRegistry(),
		probes:   defaultProbes,
	}
	if home, err := os.UserHomeDir(); err == nil {
		this.home = home
	}
	for _, opt := range opts {
		opt(this)
	}
	if this.registry == nil {
		this.registry = noRegistry{}
	}
	return this
}

// FindCandidates returns every valid NDK root found, deduplicated by
// canonical path in the order the probes reported them.
func (l *Locator) FindCandidates() []string {
	raw := lo.FlatMap(l.probes, func(p probe, _ int) []string { return p(l) })
	paths := lo.Uniq(lo.Map(raw, func(p string, _ int) string { return l.canonical(p) }))
	ret := lo.Filter(paths, func(p string, _ int) bool { return p != "" && l.IsNDK(p) })
	glog.V(2).Infof("Checked %d NDK path(s), found %d", len(paths), len(ret))
	return ret
}

// Default returns the first discovered NDK.
func (l *Locator) Default() (string, bool) {
	candidates := l.FindCandidates()
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0], true
}

// IsNDK reports whether dir looks like an NDK root: toolchains/ and build/
// must both exist, plus source.properties or ndk-build.
func (l *Locator) IsNDK(dir string) bool {
	if ok, _ := afero.DirExists(l.fs, dir); !ok {
		return false
	}
	for _, name := range []string{"toolchains", "build"} {
		if !l.exists(filepath.Join(dir, name)) {
			return false
		}
	}
	for _, name := range []string{"source.properties", "ndk-build"} {
		if l.exists(filepath.Join(dir, name)) {
			return true
		}
	}
	return false
}

func (l *Locator) exists(p string) bool {
	ok, _ := afero.Exists(l.fs, p)
	return ok
}

// subdirs lists the immediate subdirectories of dir.
func (l *Locator) subdirs(dir string) []string {
	if dir == "" {
		return nil
	}
	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return nil
	}
	var ret []string
	for _, e := range entries {
		if e.IsDir() {
			ret = append(ret, filepath.Join(dir, e.Name()))
		}
	}
	return ret
}

func (l *Locator) canonical(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if _, ok := l.fs.(*afero.OsFs); ok {
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
	}
	return abs
}
