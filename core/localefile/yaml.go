// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package localefile

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"

	"codeberg.org/railsi18n/railsi18n/core/textpos"
)

// mergeKey is the YAML merge key, resolved by the decoder.
// Repeated keys in one mapping are accepted and the last one wins.
const mergeKey = "<<"

func parseYAML(b *builder, content []byte) error {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil
	}

	var doc any
	if err := yaml.UnmarshalWithOptions(content, &doc, yaml.UseOrderedMap(), yaml.AllowDuplicateMapKey()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformed, b.path, err)
	}

	root, ok := doc.(yaml.MapSlice)
	if !ok {
		// Empty documents and top-level scalars or sequences carry no locales.
		return nil
	}

	positions := yamlKeyPositions(content)

	for _, item := range root {
		locale := StripSigil(fmt.Sprint(item.Key))
		if !b.accepts(locale) {
			continue
		}

		b.open(locale)

		flattenValue("", item.Value, func(key, value string) {
			b.add(locale, key, value, positions[joinKey(locale, key)])
		})
	}

	return nil
}

// flattenValue walks a decoded YAML value and emits every scalar leaf.
func flattenValue(prefix string, v any, emit func(key, value string)) {
	switch v := v.(type) {
	case yaml.MapSlice:
		for _, item := range v {
			k := StripSigil(fmt.Sprint(item.Key))
			if k == mergeKey {
				flattenValue(prefix, item.Value, emit)
				continue
			}

			flattenValue(joinKey(prefix, k), item.Value, emit)
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			flattenValue(joinKey(prefix, StripSigil(k)), v[k], emit)
		}
	case []any:
		for i, item := range v {
			flattenValue(indexKey(prefix, i), item, emit)
		}
	case nil:
		emit(prefix, "")
	case string:
		emit(prefix, v)
	default:
		emit(prefix, fmt.Sprint(v))
	}
}

// yamlKeyPositions indexes the position of every key path in the document.
// Paths include the locale and are sigil-insensitive. A document that fails
// to parse yields an empty index.
func yamlKeyPositions(content []byte) map[string]textpos.Position {
	out := make(map[string]textpos.Position)

	file, err := parser.ParseBytes(content, 0, parser.AllowDuplicateMapKey())
	if err != nil {
		return out
	}

	w := &yamlIndexer{lines: textpos.NewIndex(string(content)), out: out}

	for _, doc := range file.Docs {
		w.walk("", doc.Body)
	}

	return out
}

type yamlIndexer struct {
	lines *textpos.Index
	out   map[string]textpos.Position
}

func (w *yamlIndexer) walk(prefix string, n ast.Node) {
	switch n := n.(type) {
	case *ast.MappingNode:
		for _, v := range n.Values {
			w.walk(prefix, v)
		}
	case *ast.MappingValueNode:
		tk := n.Key.GetToken()
		if tk == nil {
			return
		}

		key := StripSigil(tk.Value)
		if key == mergeKey {
			return
		}

		path := joinKey(prefix, key)
		w.out[path] = w.position(tk)
		w.walk(path, n.Value)
	case *ast.SequenceNode:
		for i, item := range n.Values {
			path := indexKey(prefix, i)
			if tk := item.GetToken(); tk != nil {
				w.out[path] = w.position(tk)
			}

			w.walk(path, item)
		}
	case *ast.TagNode:
		w.walk(prefix, n.Value)
	case *ast.AnchorNode:
		w.walk(prefix, n.Value)
	}
}

func (w *yamlIndexer) position(tk *token.Token) textpos.Position {
	if tk.Position == nil || tk.Position.Line < 1 {
		return textpos.Position{}
	}

	line := tk.Position.Line - 1

	return textpos.Position{
		Line:      line,
		Character: textpos.FromRuneColumn(w.lines.Line(line), max(tk.Position.Column-1, 0)),
	}
}
