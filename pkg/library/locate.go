package library

import (
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/spf13/afero"
)

// Locator finds unstripped libraries on disk.
type Locator struct {
	fs afero.Fs
}

func NewLocator(fs afero.Fs) *Locator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Locator{fs: fs}
}

// Locate returns the file for library name under target. target is either the
// library itself, matched by exact file name, or a directory searched
// depth-first in lexical order.
func (l *Locator) Locate(target, name string) (string, bool) {
	if target == "" || name == "" {
		return "", false
	}
	info, err := l.fs.Stat(target)
	if err != nil {
		glog.V(2).Infof("Library root %s: %v", target, err)
		return "", false
	}
	if info.Mode().IsRegular() {
		if filepath.Base(target) == name {
			return target, true
		}
		return "", false
	}
	if !info.IsDir() {
		return "", false
	}
	return l.search(target, name)
}

type dirCursor struct {
	dir     string
	entries []os.FileInfo
	next    int
}

// search walks root depth-first, entering a subdirectory as soon as it is
// met. The walk keeps its own stack of open directories.
func (l *Locator) search(root, name string) (string, bool) {
	var stack []*dirCursor
	push := func(dir string) {
		entries, err := afero.ReadDir(l.fs, dir)
		if err != nil {
			glog.V(3).Infof("Skip unreadable dir %s: %v", dir, err)
			return
		}
		stack = append(stack, &dirCursor{dir: dir, entries: entries})
	}

	push(root)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.entries) {
			stack = stack[:len(stack)-1]
			continue
		}
		e := top.entries[top.next]
		top.next++

		p := filepath.Join(top.dir, e.Name())
		if e.IsDir() {
			push(p)
			continue
		}
		if e.Name() == name && l.isFile(p, e) {
			return p, true
		}
	}
	return "", false
}

// isFile accepts regular files and symlinks to regular files.
func (l *Locator) isFile(p string, info os.FileInfo) bool {
	if info.Mode().IsRegular() {
		return true
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return false
	}
	target, err := l.fs.Stat(p)
	return err == nil && target.Mode().IsRegular()
}
