// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/railsi18n/railsi18n/core/workspace"
)

type countingReloader struct {
	calls atomic.Int32
}

func (c *countingReloader) ScheduleReload() { c.calls.Add(1) }

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newWatcher(t *testing.T) (string, *countingReloader) {
	t.Helper()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config", "locales", "en.yml"), "en:\n  a: b\n")

	src, err := workspace.Open(root, []string{workspace.DefaultPattern})
	require.NoError(t, err)

	target := &countingReloader{}

	w, err := New(context.Background(), src, target)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, w.Close()) })

	return root, target
}

func TestWatcherReloadsOnLocaleChange(t *testing.T) {
	t.Parallel()

	root, target := newWatcher(t)

	writeFile(t, filepath.Join(root, "config", "locales", "en.yml"), "en:\n  a: c\n")

	assert.Eventually(t, func() bool { return target.calls.Load() > 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	root, target := newWatcher(t)

	writeFile(t, filepath.Join(root, "config", "locales", "README.md"), "docs")

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), target.calls.Load())
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	t.Parallel()

	root, target := newWatcher(t)

	dir := filepath.Join(root, "config", "locales", "admin")
	require.NoError(t, os.Mkdir(dir, 0o755))

	assert.Eventually(t, func() bool { return target.calls.Load() > 0 }, 2*time.Second, 10*time.Millisecond)

	before := target.calls.Load()

	// Give the watcher a moment to register the new directory.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "ja.yml"), "ja:\n  a: b\n")

	assert.Eventually(t, func() bool { return target.calls.Load() > before }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	src, err := workspace.Open(root, []string{workspace.DefaultPattern})
	require.NoError(t, err)

	w, err := New(context.Background(), src, &countingReloader{})
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
