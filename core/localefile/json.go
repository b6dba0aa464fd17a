// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package localefile

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"codeberg.org/railsi18n/railsi18n/core/textpos"
)

func parseJSON(b *builder, content []byte) error {
	if !gjson.ValidBytes(content) {
		return fmt.Errorf("%w: %s: invalid JSON", ErrMalformed, b.path)
	}

	src := string(content)
	root := gjson.Parse(src)

	if !root.IsObject() {
		return nil
	}

	w := &jsonWalker{src: src, lines: textpos.NewIndex(src)}
	base := max(strings.Index(src, root.Raw), 0)

	w.members(root, base, func(rawKey string, value gjson.Result, keyOffset, valueOffset int) {
		locale := StripSigil(rawKey)
		if !b.accepts(locale) {
			return
		}

		b.open(locale)

		w.flatten("", value, valueOffset, func(key, v string, offset int) {
			b.add(locale, key, v, w.lines.Position(offset))
		})
	})

	return nil
}

// jsonWalker recovers absolute offsets by locating each raw member in the source.
type jsonWalker struct {
	src   string
	lines *textpos.Index
}

// members iterates an object whose raw text starts at base.
func (w *jsonWalker) members(obj gjson.Result, base int, fn func(key string, value gjson.Result, keyOffset, valueOffset int)) {
	cursor := base

	obj.ForEach(func(key, value gjson.Result) bool {
		keyOffset := w.locate(key.Raw, &cursor)
		valueOffset := w.locate(value.Raw, &cursor)

		fn(key.String(), value, keyOffset, valueOffset)

		return true
	})
}

func (w *jsonWalker) flatten(prefix string, v gjson.Result, offset int, emit func(key, value string, offset int)) {
	switch {
	case v.IsObject():
		w.members(v, offset, func(key string, value gjson.Result, keyOffset, valueOffset int) {
			k := joinKey(prefix, StripSigil(key))
			if value.IsObject() || value.IsArray() {
				w.flatten(k, value, valueOffset, emit)
				return
			}

			emit(k, scalarString(value), keyOffset)
		})
	case v.IsArray():
		cursor := offset + 1
		i := 0

		v.ForEach(func(_, item gjson.Result) bool {
			itemOffset := w.locate(item.Raw, &cursor)
			w.flatten(indexKey(prefix, i), item, itemOffset, emit)
			i++

			return true
		})
	default:
		emit(prefix, scalarString(v), offset)
	}
}

// locate finds raw at or after *cursor and advances the cursor past it.
func (w *jsonWalker) locate(raw string, cursor *int) int {
	if raw == "" || *cursor >= len(w.src) {
		return *cursor
	}

	i := strings.Index(w.src[*cursor:], raw)
	if i < 0 {
		return *cursor
	}

	at := *cursor + i
	*cursor = at + len(raw)

	return at
}

func scalarString(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	default:
		return v.Raw
	}
}
