// Package walker provides the recursive directory walk used by all manifest
// scanners. It follows symlinks and guards against cycles with a visited
// device:inode set, so a link loop terminates instead of recursing forever.
package walker

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	logger "github.com/sirupsen/logrus"
)

// VisitFunc is called once per matched regular file.
type VisitFunc func(path string) error

// Options restricts a walk. Match selects files by base name; SkipDir prunes
// whole directories by base name (e.g. node_modules). Nil means "everything".
type Options struct {
	Match   func(name string) bool
	SkipDir func(name string) bool
}

// Walker walks directory trees for the scanners. It is stateless between
// calls; the cycle-guard set is per walk.
type Walker struct{}

func New() *Walker {
	return &Walker{}
}

type fileID struct {
	dev uint64
	ino uint64
}

// Walk visits every matched regular file under root, following symlinks.
// A root that is itself a file is visited directly when it matches.
// Unreadable entries below the root are logged and skipped.
func (w *Walker) Walk(root string, opts Options, visit VisitFunc) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", root, err)
	}

	if !info.IsDir() {
		if opts.Match == nil || opts.Match(info.Name()) {
			return visit(root)
		}
		return nil
	}

	seen := make(map[fileID]struct{})
	if id, ok := statID(info); ok {
		seen[id] = struct{}{}
	}
	return w.walkDir(root, opts, visit, seen)
}

func (w *Walker) walkDir(dir string, opts Options, visit VisitFunc, seen map[fileID]struct{}) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Debugf("[walker] skipping unreadable directory %s: %v", dir, err)
		return nil
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		// Stat follows symlinks, so linked dirs and files are resolved here.
		info, err := os.Stat(path)
		if err != nil {
			logger.Debugf("[walker] skipping broken entry %s: %v", path, err)
			continue
		}

		if info.IsDir() {
			if opts.SkipDir != nil && opts.SkipDir(entry.Name()) {
				continue
			}
			if id, ok := statID(info); ok {
				if _, visited := seen[id]; visited {
					continue
				}
				seen[id] = struct{}{}
			}
			if err := w.walkDir(path, opts, visit, seen); err != nil {
				return err
			}
			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}
		if opts.Match != nil && !opts.Match(entry.Name()) {
			continue
		}
		if err := visit(path); err != nil {
			return err
		}
	}
	return nil
}

func statID(info os.FileInfo) (fileID, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileID{}, false
	}
	//nolint:unconvert // Dev is int32 on some platforms
	return fileID{dev: uint64(st.Dev), ino: uint64(st.Ino)}, true
}
