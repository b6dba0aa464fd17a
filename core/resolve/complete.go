// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package resolve

import (
	"context"
	"strings"

	"codeberg.org/railsi18n/railsi18n/core/keys"
	"codeberg.org/railsi18n/railsi18n/core/scanner"
	"codeberg.org/railsi18n/railsi18n/core/textpos"
)

// Completion is a single completion item.
type Completion struct {
	Label         string        `json:"label"`
	Detail        string        `json:"detail,omitempty"`
	Documentation string        `json:"documentation,omitempty"`
	Range         textpos.Range `json:"range"`
	SortText      string        `json:"sortText,omitempty"`
	Preselect     bool          `json:"preselect,omitempty"`
}

// TextEdit replaces Range with NewText.
type TextEdit struct {
	Title   string        `json:"title"`
	Range   textpos.Range `json:"range"`
	NewText string        `json:"newText"`
}

// AbsoluteKeyTitle names the lazy-to-absolute key edit.
const AbsoluteKeyTitle = "Convert absolute key"

// cursor locates pos inside doc.
type cursor struct {
	idx    *textpos.Index
	offset int
	prefix string
}

func newCursor(doc Document, pos textpos.Position) cursor {
	idx := textpos.NewIndex(doc.Text)
	off := idx.Offset(pos)

	return cursor{
		idx:    idx,
		offset: off,
		prefix: doc.Text[idx.LineStart(pos.Line):off],
	}
}

// wordRange returns the range of the key word around the cursor.
func (c cursor) wordRange(text string) textpos.Range {
	start, end := c.offset, c.offset

	for start > 0 && isKeyByte(text[start-1]) {
		start--
	}

	for end < len(text) && isKeyByte(text[end]) {
		end++
	}

	return c.idx.Range(start, end)
}

func isKeyByte(b byte) bool {
	return b == '_' || b == '.' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

// TranslateCompletions offers every key of the default locale when pos is
// inside the key argument of a translate call.
func (r *Resolver) TranslateCompletions(doc Document, pos textpos.Position) ([]Completion, bool) {
	c := newCursor(doc, pos)
	if _, ok := r.scanner.TranslateCompletion(c.prefix); !ok {
		return nil, false
	}

	rng := c.wordRange(doc.Text)
	entries := r.dict.Entries()

	out := make([]Completion, 0, len(entries))
	for _, e := range entries {
		out = append(out, Completion{
			Label:         e.Key,
			Documentation: e.Translation.Value,
			Range:         rng,
		})
	}

	return out, true
}

// PrefixCompletions offers the key prefixes implied by the document path,
// the first one preselected.
func (r *Resolver) PrefixCompletions(doc Document, pos textpos.Position) ([]Completion, bool) {
	c := newCursor(doc, pos)
	if _, ok := r.scanner.TranslateCompletion(c.prefix); !ok {
		return nil, false
	}

	rng := c.wordRange(doc.Text)

	var out []Completion

	for i, prefix := range r.keys.PrefixCandidates(doc.Path) {
		if prefix == "" {
			continue
		}

		item := Completion{Label: prefix, Range: rng, SortText: "1"}
		if i == 0 {
			item.Preselect = true
			item.SortText = "0"
		}

		out = append(out, item)
	}

	return out, len(out) > 0
}

// LocalizeCompletions offers format names when pos is inside the format
// argument of a localize call. The variable name narrows the offer to date
// or time formats when it carries a hint.
func (r *Resolver) LocalizeCompletions(doc Document, pos textpos.Position) ([]Completion, bool) {
	c := newCursor(doc, pos)

	variable, ok := r.scanner.LocalizeCompletion(c.prefix)
	if !ok {
		return nil, false
	}

	prefixes := []string{keys.FormatPrefix(keys.Date), keys.FormatPrefix(keys.Time)}
	if typ, ok := r.keys.TypeOf(variable); ok {
		prefixes = []string{keys.FormatPrefix(typ)}
	}

	var out []Completion

	for _, e := range r.dict.Entries() {
		for _, p := range prefixes {
			format, ok := strings.CutPrefix(e.Key, p)
			if !ok || format == "" {
				continue
			}

			out = append(out, Completion{
				Label:         format,
				Detail:        strings.TrimSuffix(p, ".formats."),
				Documentation: e.Translation.Value,
				SortText:      "0",
			})
		}
	}

	return out, true
}

// AbsoluteKeyEdit rewrites the lazy key under pos into its absolute form.
func (r *Resolver) AbsoluteKeyEdit(_ context.Context, doc Document, pos textpos.Position) (TextEdit, bool) {
	occ, ok := r.scanner.At(doc.Text, pos)
	if !ok || occ.Kind != scanner.Translate || !keys.IsLazy(occ.RawKey) {
		return TextEdit{}, false
	}

	abs, ok := r.keys.Absolute(occ.RawKey, doc.Path)
	if !ok {
		return TextEdit{}, false
	}

	return TextEdit{Title: AbsoluteKeyTitle, Range: occ.Range, NewText: abs}, true
}
