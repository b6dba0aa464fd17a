// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package resolve

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"codeberg.org/railsi18n/railsi18n/core/lrucache"
	"codeberg.org/railsi18n/railsi18n/core/textpos"
)

// Annotation is the inline hint for one occurrence.
type Annotation struct {
	Range         textpos.Range `json:"range"`
	Kind          string        `json:"kind"`
	Key           string        `json:"key"`
	NormalizedKey string        `json:"normalizedKey"`
	Found         bool          `json:"found"`
	// Text is the truncated value, or MissingText.
	Text string `json:"text"`
}

// Decoration renders the text shown after the key.
func (a Annotation) Decoration() string {
	if !a.Found {
		return " " + MissingText
	}

	return " // " + a.Text
}

// Annotations resolves every occurrence in doc. Occurrences that cannot be
// normalized are left out.
func (r *Resolver) Annotations(ctx context.Context, doc Document) ([]Annotation, error) {
	occs, err := r.scan(ctx, doc)
	if err != nil {
		return nil, err
	}

	out := make([]Annotation, 0, len(occs))

	for _, occ := range occs {
		candidates := r.Candidates(occ, doc.Path)
		if len(candidates) == 0 {
			continue
		}

		res := r.lookup(occ.RawKey, candidates)

		a := Annotation{
			Range:         occ.Range,
			Kind:          occ.Kind.String(),
			Key:           occ.RawKey,
			NormalizedKey: res.NormalizedKey,
			Found:         res.Found,
			Text:          MissingText,
		}

		if res.Found {
			a.Text = truncate(res.Translation.Value, r.opts.MaxLength)
		}

		out = append(out, a)
	}

	return out, nil
}

// Hover is a rendered hover card.
type Hover struct {
	Contents string        `json:"contents"`
	Range    textpos.Range `json:"range"`
}

// Hover renders a markdown table of the key under pos across all configured
// locales. Nothing is shown when no locale defines the key.
func (r *Resolver) Hover(ctx context.Context, doc Document, pos textpos.Position) (Hover, bool) {
	res, occ, ok := r.MultiLocaleForPosition(ctx, doc, pos)
	if !ok {
		return Hover{}, false
	}

	hover := Hover{Range: occ.Range}

	var cacheKey uint64
	if r.cache != nil {
		cacheKey = lrucache.Key("hover", r.generationKey(), res.NormalizedKey, strings.Join(r.locales(), ","))

		if v, ok := r.cache.Get(cacheKey); ok {
			if s, ok := v.(string); ok {
				hover.Contents = s
				return hover, s != ""
			}
		}
	}

	hover.Contents = r.hoverTable(res)

	if r.cache != nil {
		r.cache.Add(cacheKey, hover.Contents)
	}

	return hover, hover.Contents != ""
}

func (r *Resolver) hoverTable(res MultiResult) string {
	found := false

	for _, row := range res.Locales {
		if row.Translation != nil {
			found = true
			break
		}
	}

	if !found {
		return ""
	}

	var sb strings.Builder

	sb.WriteString("| | | | | |\n|---|---:|---|---|---|\n")

	for _, row := range res.Locales {
		jump := ""
		value := MissingText

		if tr := row.Translation; tr != nil {
			value = escapeMarkdown(truncate(tr.Value, r.opts.HoverMaxLength))
			jump = fmt.Sprintf("[jump](%s#L%d \"Jump to translation\")",
				(&url.URL{Scheme: "file", Path: r.absPath(tr.Path)}).String(),
				tr.Range.Start.Line+1)
		}

		fmt.Fprintf(&sb, "| %s | %s | | %s | |\n", jump, escapeMarkdown(row.Locale), html.EscapeString(value))
	}

	sb.WriteString("| | | | | |")

	return sb.String()
}

// truncate cuts s to n characters, appending "..." when shortened.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}

	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n]) + "..."
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"|", `\|`,
	"#", `\#`,
	"\n", " ",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
