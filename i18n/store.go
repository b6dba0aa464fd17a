// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"codeberg.org/railsi18n/railsi18n/core/debounce"
	"codeberg.org/railsi18n/railsi18n/core/localefile"
)

var (
	// ErrDisposed is returned by operations on a disposed Store.
	ErrDisposed = errors.New("locale store disposed")

	// ErrNoSource is returned by New when no file source is given.
	ErrNoSource = errors.New("locale store needs a file source")
)

// Translation is a resolved dictionary entry.
type Translation = localefile.Translation

// Entry pairs a dictionary key with its translation.
type Entry struct {
	Key         string
	Translation Translation
}

// State is the lifecycle state of a Store.
type State int32

// Store states.
const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Source discovers and reads locale files.
type Source interface {
	// Discover lists locale files in a deterministic order.
	Discover(ctx context.Context) ([]string, error)
	// ReadFile returns the content of a discovered file.
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// AbsSource is a Source that can turn a discovered path into an absolute
// one. Translations loaded from it carry absolute paths.
type AbsSource interface {
	Source
	Abs(path string) string
}

// Options configures a Store.
type Options struct {
	// Locales is the priority list. The first locale that has data is the
	// default locale; only listed locales are loaded. An empty list loads
	// every locale and defaults to the first one discovered.
	Locales []string
	// Concurrency bounds parallel file parsing. Zero means unbounded.
	Concurrency int
	// ReloadDebounce is the quiet period before a scheduled reload runs.
	ReloadDebounce time.Duration
	// StrictMissingKeys logs every missing (locale, key) pair once.
	StrictMissingKeys bool
}

// DefaultReloadDebounce is used when Options.ReloadDebounce is zero.
const DefaultReloadDebounce = 300 * time.Millisecond

// snapshot is an immutable view of all loaded tables.
type snapshot struct {
	tables map[string]map[string]Translation
	order  []string
}

// Store holds per-locale flat translation tables.
//
// Readers always observe a complete snapshot: loads build new tables off to
// the side and publish them with a single atomic swap.
type Store struct {
	source Source
	opts   Options
	logger zerolog.Logger

	snap       atomic.Pointer[snapshot]
	state      atomic.Int32
	generation atomic.Uint64

	loads singleflight.Group

	reloadMu  sync.Mutex
	reloading bool
	pending   bool
	debouncer *debounce.Debouncer

	hooksMu sync.Mutex
	hooks   []func(LoadReport, error)
	closers []io.Closer

	// missingKeyOnce deduplicates strict-mode warnings.
	// The key is locale+"\x00"+key.
	missingKeyOnce sync.Map
}

// New returns an empty Store reading from source.
func New(source Source, opts Options) (*Store, error) {
	if source == nil {
		return nil, ErrNoSource
	}

	if opts.ReloadDebounce == 0 {
		opts.ReloadDebounce = DefaultReloadDebounce
	}

	opts.Locales = canonicalLocales(opts.Locales)

	s := &Store{
		source: source,
		opts:   opts,
		logger: log.With().Str("sys", "i18n").Logger(),
	}

	s.debouncer = debounce.New(opts.ReloadDebounce, s.runReload)

	return s, nil
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	return State(s.state.Load())
}

// Generation increments on every successful load.
func (s *Store) Generation() uint64 {
	return s.generation.Load()
}

// Locales returns the configured priority list.
func (s *Store) Locales() []string {
	return append([]string(nil), s.opts.Locales...)
}

// AvailableLocales returns the loaded locales in discovery order.
func (s *Store) AvailableLocales() []string {
	snap := s.snap.Load()
	if snap == nil {
		return nil
	}

	return append([]string(nil), snap.order...)
}

// DefaultLocale returns the first priority locale that has data.
func (s *Store) DefaultLocale() (string, bool) {
	return s.snap.Load().defaultLocale(s.opts.Locales)
}

func (snap *snapshot) defaultLocale(priority []string) (string, bool) {
	if snap == nil {
		return "", false
	}

	for _, locale := range priority {
		if _, ok := snap.tables[locale]; ok {
			return locale, true
		}
	}

	if len(priority) == 0 && len(snap.order) > 0 {
		return snap.order[0], true
	}

	return "", false
}

// Get looks key up in the default locale only. A miss there is reported as
// not found even when another locale defines the key.
func (s *Store) Get(key string) (Translation, bool) {
	snap := s.snap.Load()

	locale, ok := snap.defaultLocale(s.opts.Locales)
	if !ok {
		return Translation{}, false
	}

	tr, ok := snap.tables[locale][key]
	if !ok {
		s.logMissingOnce(locale, key)
	}

	return tr, ok
}

// GetByLocale looks key up in one explicit locale.
func (s *Store) GetByLocale(key, locale string) (Translation, bool) {
	snap := s.snap.Load()
	if snap == nil {
		return Translation{}, false
	}

	table, ok := snap.tables[locale]
	if !ok {
		return Translation{}, false
	}

	tr, ok := table[key]
	if !ok {
		s.logMissingOnce(locale, key)
	}

	return tr, ok
}

// Entries returns every entry of the default locale, sorted by key.
func (s *Store) Entries() []Entry {
	snap := s.snap.Load()

	locale, ok := snap.defaultLocale(s.opts.Locales)
	if !ok {
		return nil
	}

	table := snap.tables[locale]

	out := make([]Entry, 0, len(table))
	for k, tr := range table {
		out = append(out, Entry{Key: k, Translation: tr})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out
}

// OnLoad registers fn to be called after every load attempt, successful or not.
func (s *Store) OnLoad(fn func(LoadReport, error)) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()

	s.hooks = append(s.hooks, fn)
}

// Attach ties c to the store lifetime; it is closed on Dispose. Attaching to
// a disposed store closes c immediately.
func (s *Store) Attach(c io.Closer) {
	s.hooksMu.Lock()

	if s.State() == StateDisposed {
		s.hooksMu.Unlock()

		if err := c.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close attached resource")
		}

		return
	}

	s.closers = append(s.closers, c)
	s.hooksMu.Unlock()
}

// Dispose releases all state. It is safe to call more than once.
func (s *Store) Dispose() {
	if State(s.state.Swap(int32(StateDisposed))) == StateDisposed {
		return
	}

	s.debouncer.Stop()
	s.snap.Store(nil)

	s.hooksMu.Lock()
	closers := s.closers
	s.closers = nil
	s.hooks = nil
	s.hooksMu.Unlock()

	for _, c := range closers {
		if err := c.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close attached resource")
		}
	}

	s.logger.Debug().Msg("Disposed locale store")
}
