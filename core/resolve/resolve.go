// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package resolve connects detected call sites to the locale store.

A Resolver scans a Document, normalizes each occurrence into candidate
dictionary keys and looks them up. The results feed the editor-facing
outputs: definitions, inline annotations, hover tables, completions and the
"convert to absolute key" edit.
*/
package resolve

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codeberg.org/railsi18n/railsi18n/core/audit"
	"codeberg.org/railsi18n/railsi18n/core/keys"
	"codeberg.org/railsi18n/railsi18n/core/lrucache"
	"codeberg.org/railsi18n/railsi18n/core/scanner"
	"codeberg.org/railsi18n/railsi18n/core/textpos"
	"codeberg.org/railsi18n/railsi18n/i18n"
)

// Dictionary is the lookup surface of a locale store.
type Dictionary interface {
	Get(key string) (i18n.Translation, bool)
	GetByLocale(key, locale string) (i18n.Translation, bool)
	Entries() []i18n.Entry
	Locales() []string
	AvailableLocales() []string
	Generation() uint64
}

// Document is a source file as the caller currently sees it.
type Document struct {
	Path string
	Text string
}

// Result is the outcome of resolving one key.
type Result struct {
	Key           string           `json:"key"`
	NormalizedKey string           `json:"normalizedKey"`
	Locale        string           `json:"locale,omitempty"`
	Found         bool             `json:"found"`
	Translation   i18n.Translation `json:"translation"`
}

// LocaleResult is one row of a multi-locale lookup. Translation is nil when
// the locale lacks the key.
type LocaleResult struct {
	Locale      string            `json:"locale"`
	Translation *i18n.Translation `json:"translation,omitempty"`
}

// MultiResult holds a key resolved across every configured locale.
type MultiResult struct {
	Key           string         `json:"key"`
	NormalizedKey string         `json:"normalizedKey"`
	Locales       []LocaleResult `json:"locales"`
}

// Options tunes the rendered outputs.
type Options struct {
	// MaxLength truncates annotation values.
	MaxLength int
	// HoverMaxLength truncates hover table values.
	HoverMaxLength int
}

// Defaults for Options.
const (
	DefaultMaxLength      = 40
	DefaultHoverMaxLength = 100

	// MissingText marks a key that has no translation.
	MissingText = "[missing translation]"
)

// Resolver resolves occurrences in documents. It is safe for concurrent use.
type Resolver struct {
	dict    Dictionary
	scanner *scanner.Scanner
	keys    *keys.Normalizer
	cache   *lrucache.Cache
	opts    Options
	logger  zerolog.Logger
}

// New returns a Resolver. cache may be nil to disable caching.
func New(dict Dictionary, sc *scanner.Scanner, n *keys.Normalizer, cache *lrucache.Cache, opts Options) *Resolver {
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}

	if opts.HoverMaxLength <= 0 {
		opts.HoverMaxLength = DefaultHoverMaxLength
	}

	return &Resolver{
		dict:    dict,
		scanner: sc,
		keys:    n,
		cache:   cache,
		opts:    opts,
		logger:  log.With().Str("sys", "resolve").Logger(),
	}
}

// Candidates returns the dictionary keys an occurrence may refer to, in
// lookup order. It returns nil when the occurrence cannot be normalized.
func (r *Resolver) Candidates(occ scanner.Occurrence, docPath string) []string {
	switch occ.Kind {
	case scanner.Attribute:
		return []string{r.keys.AttributeKey(occ.Model, occ.Attribute)}
	case scanner.Localize:
		return r.keys.LocalizeKeys(occ.Variable, occ.Format)
	default:
		key, ok := r.keys.Absolute(occ.RawKey, docPath)
		if !ok {
			return nil
		}

		return []string{key}
	}
}

// ForKey resolves a raw key as written in doc. It returns false when the key
// cannot be normalized, for example a lazy key outside the views root.
func (r *Resolver) ForKey(doc Document, key string) (Result, bool) {
	normalized, ok := r.keys.Absolute(key, doc.Path)
	if !ok {
		return Result{}, false
	}

	return r.lookup(key, []string{normalized}), true
}

// ForPosition resolves the occurrence under pos.
func (r *Resolver) ForPosition(_ context.Context, doc Document, pos textpos.Position) (Result, scanner.Occurrence, bool) {
	occ, ok := r.scanner.At(doc.Text, pos)
	if !ok {
		return Result{}, scanner.Occurrence{}, false
	}

	candidates := r.Candidates(occ, doc.Path)
	if len(candidates) == 0 {
		return Result{}, occ, false
	}

	return r.lookup(occ.RawKey, candidates), occ, true
}

// Localize resolves a format name. An empty typ tries date formats before
// time formats.
func (r *Resolver) Localize(format string, typ keys.FormatType) Result {
	return r.lookup(format, keys.FormatKeys(format, typ))
}

// lookup tries candidates in order against the default locale and returns
// the first hit, or a miss carrying the first candidate.
func (r *Resolver) lookup(raw string, candidates []string) Result {
	for _, key := range candidates {
		if tr, ok := r.dict.Get(key); ok {
			return Result{
				Key:           raw,
				NormalizedKey: key,
				Locale:        tr.Locale,
				Found:         true,
				Translation:   tr,
			}
		}
	}

	return Result{Key: raw, NormalizedKey: candidates[0]}
}

// MultiLocaleForKey resolves key in every configured locale.
func (r *Resolver) MultiLocaleForKey(doc Document, key string) (MultiResult, bool) {
	normalized, ok := r.keys.Absolute(key, doc.Path)
	if !ok {
		return MultiResult{}, false
	}

	return r.multi(key, normalized), true
}

// MultiLocaleForPosition resolves the occurrence under pos in every
// configured locale. For localize calls the first candidate the default
// locale defines is used.
func (r *Resolver) MultiLocaleForPosition(ctx context.Context, doc Document, pos textpos.Position) (MultiResult, scanner.Occurrence, bool) {
	res, occ, ok := r.ForPosition(ctx, doc, pos)
	if !ok {
		return MultiResult{}, occ, false
	}

	return r.multi(res.Key, res.NormalizedKey), occ, true
}

func (r *Resolver) multi(raw, normalized string) MultiResult {
	out := MultiResult{Key: raw, NormalizedKey: normalized}

	for _, locale := range r.locales() {
		row := LocaleResult{Locale: locale}

		if tr, ok := r.dict.GetByLocale(normalized, locale); ok {
			row.Translation = &tr
		}

		out.Locales = append(out.Locales, row)
	}

	return out
}

// locales returns the configured priority list, or every loaded locale when
// none is configured.
func (r *Resolver) locales() []string {
	if l := r.dict.Locales(); len(l) > 0 {
		return l
	}

	return r.dict.AvailableLocales()
}

// Location points into a locale file.
type Location struct {
	Path  string        `json:"path"`
	Range textpos.Range `json:"range"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%s", l.Path, l.Range.Start)
}

// Definition returns where the key under pos is defined.
func (r *Resolver) Definition(ctx context.Context, doc Document, pos textpos.Position) (Location, bool) {
	res, _, ok := r.ForPosition(ctx, doc, pos)
	if !ok || !res.Found {
		return Location{}, false
	}

	return Location{Path: r.absPath(res.Translation.Path), Range: res.Translation.Range}, true
}

func (r *Resolver) absPath(p string) string {
	if filepath.IsAbs(p) || r.keys.WorkspaceRoot == "" {
		return p
	}

	return filepath.Join(r.keys.WorkspaceRoot, filepath.FromSlash(p))
}

// scan returns the occurrences of doc, cached by path and content.
func (r *Resolver) scan(ctx context.Context, doc Document) ([]scanner.Occurrence, error) {
	if r.cache == nil {
		return r.scanDocument(ctx, doc)
	}

	key := lrucache.Key("scan", doc.Path, doc.Text)

	if v, ok := r.cache.Get(key); ok {
		if occs, ok := v.([]scanner.Occurrence); ok {
			return occs, nil
		}
	}

	occs, err := r.scanDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	r.cache.Add(key, occs)

	return occs, nil
}

func (r *Resolver) scanDocument(ctx context.Context, doc Document) ([]scanner.Occurrence, error) {
	span := audit.Span{Op: audit.OpScan, Path: doc.Path, Bytes: len(doc.Text)}
	ctx = span.Begin(ctx)

	occs, err := r.scanner.Scan(ctx, doc.Text)

	span.Entries, span.Error = len(occs), err
	span.End()
	span.Log()

	if err != nil {
		r.logger.Debug().Err(err).Str("path", doc.Path).Msg("Scan interrupted")

		return nil, err
	}

	return occs, nil
}

// generationKey formats the store generation for cache keys.
func (r *Resolver) generationKey() string {
	return strconv.FormatUint(r.dict.Generation(), 10)
}
