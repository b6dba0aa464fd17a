// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package workspace discovers locale files inside a project tree.
//
// Patterns use glob syntax with '/' as the separator: '*' stays within one
// path segment and '**' spans any number of segments, including none, so
// "config/locales/**/*.yml" matches both config/locales/en.yml and
// config/locales/models/user/en.yml.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultPattern is the locale file pattern used when none is configured.
const DefaultPattern = "config/locales/**/*.yml"

var errNoPatterns = errors.New("no locale file patterns configured")

// skippedDirs are never descended into during discovery.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"tmp":          true,
	"log":          true,
}

// Source lists and reads locale files below a root directory.
type Source struct {
	root     string
	fsys     fs.FS
	patterns []string
	matchers []glob.Glob
}

// Open returns a Source over the directory root.
func Open(root string, patterns []string) (*Source, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root %s: %w", root, err)
	}

	return New(os.DirFS(abs), abs, patterns)
}

// New returns a Source over fsys. root is only used to build absolute paths.
func New(fsys fs.FS, root string, patterns []string) (*Source, error) {
	if len(patterns) == 0 {
		return nil, errNoPatterns
	}

	s := &Source{root: root, fsys: fsys}

	for _, p := range patterns {
		p = strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(p)), "./")
		if p == "" {
			continue
		}

		for _, variant := range expand(p) {
			g, err := glob.Compile(variant, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid locale file pattern %q: %w", p, err)
			}

			s.matchers = append(s.matchers, g)
		}

		s.patterns = append(s.patterns, p)
	}

	if len(s.matchers) == 0 {
		return nil, errNoPatterns
	}

	return s, nil
}

// expand returns p plus the variants where each "**/" matches zero directories.
func expand(p string) []string {
	out := []string{p}

	for i := 0; i < len(out); i++ {
		if idx := strings.Index(out[i], "**/"); idx >= 0 {
			collapsed := out[i][:idx] + out[i][idx+3:]
			out = append(out, collapsed)
		}
	}

	return out
}

// Root returns the absolute workspace root.
func (s *Source) Root() string {
	return s.root
}

// Patterns returns the normalized patterns.
func (s *Source) Patterns() []string {
	return append([]string(nil), s.patterns...)
}

// Match reports whether the workspace-relative path rel is a locale file.
func (s *Source) Match(rel string) bool {
	rel = filepath.ToSlash(rel)

	for _, g := range s.matchers {
		if g.Match(rel) {
			return true
		}
	}

	return false
}

// Rel converts an absolute path under the root to a workspace-relative one.
func (s *Source) Rel(p string) (string, bool) {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(p), true
	}

	rel, err := filepath.Rel(s.root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}

	return filepath.ToSlash(rel), true
}

// Abs joins a workspace-relative path onto the root.
func (s *Source) Abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// Discover returns every matching file, sorted by path.
func (s *Source) Discover(ctx context.Context) ([]string, error) {
	var found []string

	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if p != "." && skippedDirs[d.Name()] {
				return fs.SkipDir
			}

			return nil
		}

		if s.Match(p) {
			found = append(found, p)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover locale files: %w", err)
	}

	sort.Strings(found)

	return found, nil
}

// ReadFile reads a workspace-relative file.
func (s *Source) ReadFile(ctx context.Context, rel string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(s.fsys, rel)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}

	return data, nil
}

// WatchDirs returns the existing directories that may hold matching files:
// the literal prefix of each pattern and everything below it.
func (s *Source) WatchDirs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)

	var dirs []string

	for _, p := range s.patterns {
		base := staticPrefix(p)

		err := fs.WalkDir(s.fsys, base, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return fs.SkipDir
				}

				return err
			}

			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			if !d.IsDir() {
				return nil
			}

			if p != base && skippedDirs[d.Name()] {
				return fs.SkipDir
			}

			if !seen[p] {
				seen[p] = true
				dirs = append(dirs, p)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list watch directories: %w", err)
		}
	}

	sort.Strings(dirs)

	return dirs, nil
}

// staticPrefix returns the directory part of p before the first glob meta character.
func staticPrefix(p string) string {
	cut := strings.IndexAny(p, "*?[{")
	if cut < 0 {
		return path.Dir(p)
	}

	dir := path.Dir(p[:cut] + "x")
	if dir == "" {
		return "."
	}

	return dir
}
