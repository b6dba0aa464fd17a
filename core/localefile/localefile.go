// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package localefile turns locale documents into flat per-locale tables.

A locale document maps a top-level locale tag to a nested tree of
translations:

	en:
	  users:
	    index:
	      heading: "All users"

which flattens to the key "users.index.heading" in the "en" table. Ruby
symbol sigils are stripped from every key component, so ":en:" and "en:"
name the same locale. Sequences flatten to indexed keys ("date.day_names.0").

YAML is the primary format. JSON documents with the same shape and gettext
.po catalogues (one locale per file, named after the file) are accepted too.
*/
package localefile

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"codeberg.org/railsi18n/railsi18n/core/textpos"
)

var (
	// ErrMalformed is returned when a locale document cannot be decoded.
	ErrMalformed = errors.New("malformed locale file")

	// ErrUnsupportedFormat is returned for file extensions without a decoder.
	ErrUnsupportedFormat = errors.New("unsupported locale file format")
)

// Translation is a single resolved entry of a locale table. Path is the
// file path handed to Parse.
type Translation struct {
	Locale string        `json:"locale"`
	Path   string        `json:"path"`
	Value  string        `json:"value"`
	Range  textpos.Range `json:"range"`
}

// Table holds the flattened translations of one locale from one file.
type Table struct {
	Locale  string
	Entries map[string]Translation
}

// Format identifies a locale document encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatPO   Format = "po"
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	case ".po":
		return FormatPO, true
	default:
		return "", false
	}
}

// Parse decodes content read from path and returns one table per retained
// locale, in the order the locales appear in the document.
//
// Only locales listed in locales are kept; an empty list keeps every locale.
// Positions that cannot be recovered are reported as the zero position.
func Parse(path string, content []byte, locales []string) ([]Table, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	b := newBuilder(path, locales)

	var err error

	switch format {
	case FormatYAML:
		err = parseYAML(b, content)
	case FormatJSON:
		err = parseJSON(b, content)
	case FormatPO:
		err = parsePO(b, content)
	}

	if err != nil {
		return nil, err
	}

	return b.tables(), nil
}

// StripSigil removes exactly one leading ':' from a key component.
func StripSigil(key string) string {
	return strings.TrimPrefix(key, ":")
}

// builder accumulates flattened entries per locale, keeping locale order.
type builder struct {
	path    string
	locales []string
	order   []string
	byName  map[string]map[string]Translation
}

func newBuilder(path string, locales []string) *builder {
	return &builder{
		path:    path,
		locales: locales,
		byName:  make(map[string]map[string]Translation),
	}
}

// accepts reports whether locale passes the recognized-locale filter.
func (b *builder) accepts(locale string) bool {
	if locale == "" {
		return false
	}

	if len(b.locales) == 0 {
		return true
	}

	return slices.ContainsFunc(b.locales, func(l string) bool {
		return StripSigil(l) == locale
	})
}

// open makes sure a table exists for locale, even when it ends up empty.
func (b *builder) open(locale string) {
	if _, ok := b.byName[locale]; ok {
		return
	}

	b.byName[locale] = make(map[string]Translation)
	b.order = append(b.order, locale)
}

func (b *builder) add(locale, key, value string, pos textpos.Position) {
	if key == "" {
		return
	}

	b.open(locale)
	b.byName[locale][key] = Translation{
		Locale: locale,
		Path:   b.path,
		Value:  value,
		Range:  textpos.Point(pos),
	}
}

func (b *builder) tables() []Table {
	out := make([]Table, 0, len(b.order))

	for _, locale := range b.order {
		out = append(out, Table{Locale: locale, Entries: b.byName[locale]})
	}

	return out
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}

	return prefix + "." + key
}

func indexKey(prefix string, i int) string {
	return joinKey(prefix, strconv.Itoa(i))
}
