// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package scanner finds translation lookups in template and Ruby source text.

It recognizes three call families:

	t(".heading")                          // Translate
	User.human_attribute_name(:name)       // Attribute
	l(@user.created_at, format: :short)    // Localize

Matching is purely lexical. [Scanner.Scan] walks a whole document and yields
to the scheduler every ChunkSize matches; [Scanner.At] returns the single
occurrence covering a cursor position.
*/
package scanner

import (
	"cmp"
	"context"
	"errors"
	"regexp"
	"runtime"
	"slices"
	"sort"
	"strings"

	"codeberg.org/railsi18n/railsi18n/core/textpos"
)

// DefaultChunkSize is the number of matches processed between yields.
const DefaultChunkSize = 100

var (
	// DefaultTranslateMethods are the method names treated as key lookups.
	DefaultTranslateMethods = []string{"t", "I18n.t", "I18n.translate", "translate"}

	// DefaultLocalizeMethods are the method names treated as localize calls.
	DefaultLocalizeMethods = []string{"l", "I18n.l", "localize", "I18n.localize"}
)

var errNoMethods = errors.New("no translate methods configured")

// Kind is the family an occurrence belongs to.
type Kind int

// Occurrence kinds.
const (
	Translate Kind = iota
	Attribute
	Localize
)

func (k Kind) String() string {
	switch k {
	case Translate:
		return "translate"
	case Attribute:
		return "attribute"
	case Localize:
		return "localize"
	default:
		return "unknown"
	}
}

// Occurrence is a detected lookup call site.
//
// Range and the byte offsets Start/End cover only the key token: the key
// string for Translate, the attribute name (with its ':' sigil) for
// Attribute and the format symbol (with its ':') for Localize.
type Occurrence struct {
	Kind   Kind
	RawKey string
	Range  textpos.Range
	Start  int
	End    int

	// Method is the invoked translate or localize method.
	Method string
	// Model and Attribute are set for Attribute occurrences.
	Model     string
	Attribute string
	// Variable and Format are set for Localize occurrences.
	Variable string
	Format   string
}

// Config selects the method names to recognize.
type Config struct {
	TranslateMethods []string
	LocalizeMethods  []string
	ChunkSize        int
}

// Scanner matches lookup calls. It is safe for concurrent use.
type Scanner struct {
	chunkSize int

	keyRe      *regexp.Regexp
	attrRe     *regexp.Regexp
	localizeRe *regexp.Regexp

	translateCompletionRe *regexp.Regexp
	prefixCompletionRe    *regexp.Regexp
	localizeCompletionRe  *regexp.Regexp
}

// boundary rejects calls glued to an identifier, a receiver or a quote.
const boundary = `[^A-Za-z0-9_.']`

// New compiles the patterns for cfg. Empty method lists use the defaults.
func New(cfg Config) (*Scanner, error) {
	translate := cfg.TranslateMethods
	if len(translate) == 0 {
		translate = DefaultTranslateMethods
	}

	localize := cfg.LocalizeMethods
	if len(localize) == 0 {
		localize = DefaultLocalizeMethods
	}

	tm := methodAlternation(translate)
	if tm == "" {
		return nil, errNoMethods
	}

	lm := methodAlternation(localize)

	s := &Scanner{chunkSize: cfg.ChunkSize}
	if s.chunkSize <= 0 {
		s.chunkSize = DefaultChunkSize
	}

	var err error

	compile := func(expr string) *regexp.Regexp {
		if err != nil {
			return nil
		}

		var re *regexp.Regexp

		re, err = regexp.Compile(expr)

		return re
	}

	s.keyRe = compile(boundary + `(` + tm + `)['"\s(]+([A-Za-z0-9_.]+)`)
	s.attrRe = compile(`[^A-Za-z0-9_:.]([A-Z]\w*(?:::[A-Z]\w*)*)\.human_attribute_name(?:\s*\(\s*|\s+)(:?)['"]?([A-Za-z_]\w*)`)
	s.localizeRe = compile(boundary + `(` + lm + `)(?:\s+|\(\s*)([@\w.]+)\s*,\s*format:\s*(?::(\w+)|'(\w+)'|"(\w+)")`)
	s.translateCompletionRe = compile(`(?:^|` + boundary + `)(?:` + tm + `)['"\s(]+([A-Za-z0-9_.]*)$`)
	s.prefixCompletionRe = compile(`(?:^|` + boundary + `)(?:` + tm + `)\s*\(\s*['"](\.[A-Za-z0-9_.]*)$`)
	s.localizeCompletionRe = compile(`(?:^|` + boundary + `)(?:` + lm + `)(?:\s+|\()([@\w.]+),\s*format:\s*:\w*$`)

	if err != nil {
		return nil, err
	}

	return s, nil
}

// methodAlternation quotes method names, longest first.
func methodAlternation(methods []string) string {
	quoted := make([]string, 0, len(methods))

	for _, m := range methods {
		if m = strings.TrimSpace(m); m != "" {
			quoted = append(quoted, regexp.QuoteMeta(m))
		}
	}

	slices.SortFunc(quoted, func(a, b string) int {
		if n := cmp.Compare(len(b), len(a)); n != 0 {
			return n
		}

		return strings.Compare(a, b)
	})

	return strings.Join(slices.Compact(quoted), "|")
}

// Scan returns every occurrence of all three families in text order.
func (s *Scanner) Scan(ctx context.Context, text string) ([]Occurrence, error) {
	idx := textpos.NewIndex(text)

	var out []Occurrence

	for _, pass := range []func(context.Context, string, *textpos.Index) ([]Occurrence, error){
		s.scanKeys, s.scanAttributes, s.scanLocalize,
	} {
		found, err := pass(ctx, text, idx)
		if err != nil {
			return nil, err
		}

		out = append(out, found...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })

	return out, nil
}

// ScanKeys returns the generic key occurrences in text.
func (s *Scanner) ScanKeys(ctx context.Context, text string) ([]Occurrence, error) {
	return s.scanKeys(ctx, text, textpos.NewIndex(text))
}

// ScanAttributes returns the attribute-name occurrences in text.
func (s *Scanner) ScanAttributes(ctx context.Context, text string) ([]Occurrence, error) {
	return s.scanAttributes(ctx, text, textpos.NewIndex(text))
}

// ScanLocalize returns the localize-format occurrences in text.
func (s *Scanner) ScanLocalize(ctx context.Context, text string) ([]Occurrence, error) {
	return s.scanLocalize(ctx, text, textpos.NewIndex(text))
}

func (s *Scanner) scanKeys(ctx context.Context, text string, idx *textpos.Index) ([]Occurrence, error) {
	return s.each(ctx, s.keyRe, text, idx, keyOccurrence)
}

func (s *Scanner) scanAttributes(ctx context.Context, text string, idx *textpos.Index) ([]Occurrence, error) {
	return s.each(ctx, s.attrRe, text, idx, attributeOccurrence)
}

func (s *Scanner) scanLocalize(ctx context.Context, text string, idx *textpos.Index) ([]Occurrence, error) {
	return s.each(ctx, s.localizeRe, text, idx, localizeOccurrence)
}

// builder turns submatch offsets of padded text into an occurrence.
type builder func(padded string, m []int) Occurrence

// each runs re incrementally over text. The text is padded with a leading
// newline so that a call at the very start still has a boundary character.
// Every chunkSize matches it yields the processor and checks ctx.
func (s *Scanner) each(ctx context.Context, re *regexp.Regexp, text string, idx *textpos.Index, build builder) ([]Occurrence, error) {
	padded := "\n" + text

	var (
		out   []Occurrence
		pos   int
		count int
	)

	for pos < len(padded) {
		m := re.FindStringSubmatchIndex(padded[pos:])
		if m == nil {
			break
		}

		for i := range m {
			if m[i] >= 0 {
				m[i] += pos
			}
		}

		occ := build(padded, m)
		// Undo the padding.
		occ.Start--
		occ.End--
		occ.Range = idx.Range(occ.Start, occ.End)
		out = append(out, occ)

		pos = m[1]

		count++
		if count%s.chunkSize == 0 {
			runtime.Gosched()

			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

func keyOccurrence(padded string, m []int) Occurrence {
	return Occurrence{
		Kind:   Translate,
		Method: padded[m[2]:m[3]],
		RawKey: padded[m[4]:m[5]],
		Start:  m[4],
		End:    m[5],
	}
}

func attributeOccurrence(padded string, m []int) Occurrence {
	model := padded[m[2]:m[3]]
	attr := padded[m[6]:m[7]]

	start := m[6]
	if m[5] > m[4] {
		start = m[4]
	}

	return Occurrence{
		Kind:      Attribute,
		Method:    "human_attribute_name",
		RawKey:    attr,
		Model:     model,
		Attribute: attr,
		Start:     start,
		End:       m[7],
	}
}

func localizeOccurrence(padded string, m []int) Occurrence {
	occ := Occurrence{
		Kind:     Localize,
		Method:   padded[m[2]:m[3]],
		Variable: padded[m[4]:m[5]],
	}

	switch {
	case m[6] >= 0:
		// ":name" token includes the sigil.
		occ.Format = padded[m[6]:m[7]]
		occ.Start, occ.End = m[6]-1, m[7]
	case m[8] >= 0:
		occ.Format = padded[m[8]:m[9]]
		occ.Start, occ.End = m[8], m[9]
	default:
		occ.Format = padded[m[10]:m[11]]
		occ.Start, occ.End = m[10], m[11]
	}

	occ.RawKey = occ.Format

	return occ
}
