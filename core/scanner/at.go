// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package scanner

import (
	"context"
	"regexp"

	"codeberg.org/railsi18n/railsi18n/core/textpos"
)

// At returns the occurrence whose key token covers pos. Attribute and
// localize patterns are checked before the generic key pattern, so a span
// both could claim resolves to the specialized family.
func (s *Scanner) At(text string, pos textpos.Position) (Occurrence, bool) {
	idx := textpos.NewIndex(text)

	// Calls never span more than a few lines; restrict matching to a window
	// around the cursor line so hover stays cheap on large documents.
	const window = 3

	from := idx.LineStart(pos.Line - window)
	to := idx.LineStart(pos.Line + window + 1)
	segment := text[from:to]

	for _, pass := range []struct {
		re    *regexp.Regexp
		build builder
	}{
		{s.attrRe, attributeOccurrence},
		{s.localizeRe, localizeOccurrence},
		{s.keyRe, keyOccurrence},
	} {
		found, err := s.each(context.Background(), pass.re, segment, textpos.NewIndex(segment), pass.build)
		if err != nil {
			continue
		}

		for _, occ := range found {
			occ.Start += from
			occ.End += from
			occ.Range = idx.Range(occ.Start, occ.End)

			if occ.Range.Contains(pos) {
				return occ, true
			}
		}
	}

	return Occurrence{}, false
}

// TranslateCompletion reports whether linePrefix, the text from the start of
// a line up to the cursor, ends inside the key argument of a translate call.
// It returns the partial key typed so far.
func (s *Scanner) TranslateCompletion(linePrefix string) (string, bool) {
	m := s.translateCompletionRe.FindStringSubmatch(linePrefix)
	if m == nil {
		return "", false
	}

	return m[1], true
}

// LazyPrefixCompletion reports whether linePrefix ends inside a quoted lazy
// key argument such as t(".he and returns the partial lazy key.
func (s *Scanner) LazyPrefixCompletion(linePrefix string) (string, bool) {
	m := s.prefixCompletionRe.FindStringSubmatch(linePrefix)
	if m == nil {
		return "", false
	}

	return m[1], true
}

// LocalizeCompletion reports whether linePrefix ends inside the format
// argument of a localize call and returns the formatted variable.
func (s *Scanner) LocalizeCompletion(linePrefix string) (string, bool) {
	m := s.localizeCompletionRe.FindStringSubmatch(linePrefix)
	if m == nil {
		return "", false
	}

	return m[1], true
}
