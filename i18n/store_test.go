// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/railsi18n/railsi18n/core/textpos"
)

// memSource is an in-memory Source. Files are discovered in sorted order.
type memSource struct {
	mu        sync.Mutex
	files     map[string]string
	readErr   map[string]error
	discovers atomic.Int32
	delay     time.Duration
}

func newMemSource(files map[string]string) *memSource {
	return &memSource{files: files, readErr: map[string]error{}}
}

func (m *memSource) Discover(ctx context.Context) ([]string, error) {
	m.discovers.Add(1)

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}

	sort.Strings(out)

	return out, nil
}

func (m *memSource) ReadFile(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.readErr[path]; err != nil {
		return nil, err
	}

	content, ok := m.files[path]
	if !ok {
		return nil, errors.New("no such file")
	}

	return []byte(content), nil
}

func (m *memSource) set(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[path] = content
}

func (m *memSource) failRead(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.readErr[path] = err
}

// absSource resolves discovered paths against root.
type absSource struct {
	*memSource

	root string
}

func (a absSource) Abs(path string) string { return a.root + "/" + path }

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func newLoadedStore(t *testing.T, src Source, opts Options) *Store {
	t.Helper()

	s, err := New(src, opts)
	require.NoError(t, err)
	t.Cleanup(s.Dispose)

	_, err = s.Load(context.Background())
	require.NoError(t, err)

	return s
}

func TestNewRequiresSource(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Options{})
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestNewCanonicalizesLocales(t *testing.T) {
	t.Parallel()

	s, err := New(newMemSource(nil), Options{Locales: []string{" en ", ":ja", "en", ""}})
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "ja"}, s.Locales())
	assert.Equal(t, StateEmpty, s.State())
}

func TestLoadMergesFiles(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{
		"config/locales/en.yml":       "en:\n  users:\n    index:\n      heading: All users\n",
		"config/locales/ja.yml":       "ja:\n  users:\n    index:\n      heading: ユーザー\n",
		"config/locales/users/en.yml": "en:\n  users:\n    show:\n      title: Profile\n",
	})

	s := newLoadedStore(t, src, Options{Locales: []string{"en", "ja"}})

	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, uint64(1), s.Generation())
	assert.Equal(t, []string{"en", "ja"}, s.AvailableLocales())

	tr, ok := s.Get("users.index.heading")
	require.True(t, ok)
	assert.Equal(t, "All users", tr.Value)
	assert.Equal(t, "config/locales/en.yml", tr.Path)
	assert.Equal(t, textpos.Position{Line: 3, Character: 6}, tr.Range.Start)

	tr, ok = s.Get("users.show.title")
	require.True(t, ok)
	assert.Equal(t, "config/locales/users/en.yml", tr.Path)

	tr, ok = s.GetByLocale("users.index.heading", "ja")
	require.True(t, ok)
	assert.Equal(t, "ユーザー", tr.Value)
}

func TestLoadLastFileWins(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{
		"a.yml": "en:\n  title: first\n",
		"b.yml": "en:\n  title: second\n",
	})

	s := newLoadedStore(t, src, Options{Locales: []string{"en"}})

	tr, ok := s.Get("title")
	require.True(t, ok)
	assert.Equal(t, "second", tr.Value)
	assert.Equal(t, "b.yml", tr.Path)
}

func TestGetHasNoFallback(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{
		"en.yml": "en:\n  only_en: yes\n",
		"ja.yml": "ja:\n  only_ja: はい\n",
	})

	s := newLoadedStore(t, src, Options{Locales: []string{"en", "ja"}, StrictMissingKeys: true})

	_, ok := s.Get("only_ja")
	assert.False(t, ok, "a key missing from the default locale is not found")

	_, ok = s.GetByLocale("only_ja", "ja")
	assert.True(t, ok)

	_, ok = s.GetByLocale("only_en", "fr")
	assert.False(t, ok, "unknown locale")
}

func TestDefaultLocale(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{
		"ja.yml": "ja:\n  a: b\n",
		"fr.yml": "fr:\n  a: c\n",
	})

	s := newLoadedStore(t, src, Options{Locales: []string{"de", "ja", "fr"}})

	locale, ok := s.DefaultLocale()
	require.True(t, ok)
	assert.Equal(t, "ja", locale, "first priority locale with data")

	s2 := newLoadedStore(t, src, Options{})

	locale, ok = s2.DefaultLocale()
	require.True(t, ok)
	assert.Equal(t, "fr", locale, "first discovered locale without priorities")
}

func TestEntriesSorted(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{
		"en.yml": "en:\n  b: two\n  a: one\n  c:\n    d: three\n",
	})

	s := newLoadedStore(t, src, Options{Locales: []string{"en"}})

	entries := s.Entries()
	require.Len(t, entries, 3)

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}

	assert.Equal(t, []string{"a", "b", "c.d"}, keys)
	assert.Equal(t, "three", entries[2].Translation.Value)
}

func TestLoadSkipsMalformed(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{
		"bad.yml":  "en:\n  a: [unclosed\n",
		"good.yml": "en:\n  a: fine\n",
		"notes.md": "not a locale file",
	})

	s, err := New(src, Options{Locales: []string{"en"}})
	require.NoError(t, err)
	t.Cleanup(s.Dispose)

	report, err := s.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Files)
	assert.Equal(t, 1, report.Keys)
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, "bad.yml", report.Skipped[0].Path)
	assert.Equal(t, "notes.md", report.Skipped[1].Path)

	tr, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "fine", tr.Value)
}

func TestFailedReloadKeepsPreviousTables(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{"en.yml": "en:\n  a: one\n"})
	s := newLoadedStore(t, src, Options{Locales: []string{"en"}})

	src.set("en.yml", "en:\n  a: two\n")
	src.failRead("en.yml", errors.New("permission denied"))

	_, err := s.Load(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, uint64(1), s.Generation())

	tr, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "one", tr.Value)
}

func TestFailedFirstLoadStaysEmpty(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{"en.yml": "en:\n  a: one\n"})
	src.failRead("en.yml", errors.New("permission denied"))

	s, err := New(src, Options{})
	require.NoError(t, err)
	t.Cleanup(s.Dispose)

	_, err = s.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateEmpty, s.State())
	assert.Empty(t, s.AvailableLocales())
}

func TestOnLoadHooks(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{"en.yml": "en:\n  a: one\n"})

	s, err := New(src, Options{})
	require.NoError(t, err)
	t.Cleanup(s.Dispose)

	var reports []LoadReport

	s.OnLoad(func(r LoadReport, err error) {
		assert.NoError(t, err)

		reports = append(reports, r)
	})

	_, err = s.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, reports, 1)
	assert.Equal(t, []string{"en"}, reports[0].Locales)
}

func TestOnLoadHooksRegisteredDuringLoad(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{"en.yml": "en:\n  a: one\n"})

	s, err := New(src, Options{})
	require.NoError(t, err)
	t.Cleanup(s.Dispose)

	var outer, inner int

	s.OnLoad(func(LoadReport, error) {
		outer++
		if outer == 1 {
			s.OnLoad(func(LoadReport, error) { inner++ })
		}
	})

	_, err = s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, outer)
	assert.Equal(t, 0, inner, "a hook added while notifying waits for the next load")

	_, err = s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, outer)
	assert.Equal(t, 1, inner)
}

func TestTranslationPaths(t *testing.T) {
	t.Parallel()

	files := map[string]string{"config/locales/en.yml": "en:\n  a: one\n"}

	tests := []struct {
		name   string
		source Source
		want   string
	}{
		{name: "relative source", source: newMemSource(files), want: "config/locales/en.yml"},
		{
			name:   "absolute source",
			source: absSource{memSource: newMemSource(files), root: "/work"},
			want:   "/work/config/locales/en.yml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newLoadedStore(t, tt.source, Options{})

			tr, ok := s.Get("a")
			require.True(t, ok)
			assert.Equal(t, tt.want, tr.Path)
			assert.Equal(t, "one", tr.Value)
		})
	}
}

func TestConcurrentLoadsShareWork(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{"en.yml": "en:\n  a: one\n"})
	src.delay = 50 * time.Millisecond

	s, err := New(src, Options{})
	require.NoError(t, err)
	t.Cleanup(s.Dispose)

	var wg sync.WaitGroup

	for range 5 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := s.Load(context.Background())
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.Less(t, src.discovers.Load(), int32(5))
	assert.Equal(t, StateReady, s.State())
}

func TestScheduleReloadCoalesces(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{"en.yml": "en:\n  a: one\n"})
	s := newLoadedStore(t, src, Options{ReloadDebounce: 20 * time.Millisecond})

	src.set("en.yml", "en:\n  a: two\n")

	for range 10 {
		s.ScheduleReload()
	}

	assert.Eventually(t, func() bool {
		tr, ok := s.Get("a")
		return ok && tr.Value == "two"
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, uint64(2), s.Generation(), "one reload for the whole burst")
}

func TestDispose(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{"en.yml": "en:\n  a: one\n"})

	s, err := New(src, Options{})
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	require.NoError(t, err)

	var closed atomic.Int32

	s.Attach(closerFunc(func() error {
		closed.Add(1)
		return nil
	}))

	s.Dispose()
	s.Dispose()

	assert.Equal(t, StateDisposed, s.State())
	assert.Equal(t, int32(1), closed.Load())

	_, ok := s.Get("a")
	assert.False(t, ok)
	assert.Nil(t, s.Entries())

	_, err = s.Load(context.Background())
	require.ErrorIs(t, err, ErrDisposed)

	s.Attach(closerFunc(func() error {
		closed.Add(1)
		return nil
	}))
	assert.Equal(t, int32(2), closed.Load(), "attaching after dispose closes immediately")

	s.ScheduleReload()
}

func TestMatchLocale(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{
		"en.yml":    "en:\n  a: b\n",
		"pt-BR.yml": "pt-BR:\n  a: c\n",
		"de-CH.yml": "de-CH:\n  a: d\n",
	})

	s := newLoadedStore(t, src, Options{})

	tests := []struct {
		want   string
		expect string
		ok     bool
	}{
		{want: "en", expect: "en", ok: true},
		{want: ":pt-BR", expect: "pt-BR", ok: true},
		{want: "pt_BR", expect: "pt-BR", ok: true},
		{want: "en-GB", expect: "en", ok: true},
		{want: "pt_br", expect: "pt-BR", ok: true},
		{want: "de-CH-1901", expect: "de-CH", ok: true},
		{want: "ja", ok: false},
	}

	for _, tt := range tests {
		got, ok := s.MatchLocale(tt.want)
		assert.Equal(t, tt.ok, ok, tt.want)

		if tt.ok {
			assert.Equal(t, tt.expect, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Japanese (日本語)", DisplayName("ja"))
	assert.Equal(t, "English", DisplayName("en"))
	assert.Equal(t, "not a locale!", DisplayName("not a locale!"))
	assert.True(t, SameLanguage("pt_BR", "pt-BR"))
	assert.False(t, SameLanguage("pt-BR", "pt-PT"))
}
