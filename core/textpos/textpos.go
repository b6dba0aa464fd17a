// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package textpos converts between byte offsets and editor positions.

A [Position] uses a 0-based line and a 0-based character counted in UTF-16
code units, which is the convention editors use when talking about text
documents. [Index] precomputes line starts so conversions are cheap for
repeated lookups on the same text.
*/
package textpos

import (
	"fmt"
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// Position is a zero-based line/character location.
type Position struct {
	Line      int `json:"line"      yaml:"line"`
	Character int `json:"character" yaml:"character"`
}

// String renders the position as a 1-based "line:col" pair for humans.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Character+1)
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}

	return p.Character < q.Character
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position `json:"start" yaml:"start"`
	End   Position `json:"end"   yaml:"end"`
}

// Point returns a zero-width range at p.
func Point(p Position) Range {
	return Range{Start: p, End: p}
}

// Contains reports whether p lies within r, treating the end as inclusive.
func (r Range) Contains(p Position) bool {
	return !p.Before(r.Start) && !r.End.Before(p)
}

// Index maps byte offsets in a text to positions.
type Index struct {
	text       string
	lineStarts []int
}

// NewIndex builds an index over text.
func NewIndex(text string) *Index {
	starts := []int{0}

	for i := range len(text) {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}

	return &Index{text: text, lineStarts: starts}
}

// Lines returns the number of lines in the text.
func (x *Index) Lines() int {
	return len(x.lineStarts)
}

// Line returns the text of line n without its trailing newline.
func (x *Index) Line(n int) string {
	if n < 0 || n >= len(x.lineStarts) {
		return ""
	}

	start := x.lineStarts[n]

	end := len(x.text)
	if n+1 < len(x.lineStarts) {
		end = x.lineStarts[n+1] - 1
	}

	if end > start && x.text[end-1] == '\r' {
		end--
	}

	return x.text[start:end]
}

// LineStart returns the byte offset of the first byte of line n.
func (x *Index) LineStart(n int) int {
	switch {
	case n <= 0:
		return 0
	case n >= len(x.lineStarts):
		return len(x.text)
	default:
		return x.lineStarts[n]
	}
}

// Position converts a byte offset into a position. Offsets past the end are clamped.
func (x *Index) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}

	if offset > len(x.text) {
		offset = len(x.text)
	}

	line := sort.Search(len(x.lineStarts), func(i int) bool {
		return x.lineStarts[i] > offset
	}) - 1

	return Position{
		Line:      line,
		Character: UTF16Len(x.text[x.lineStarts[line]:offset]),
	}
}

// Offset converts a position back into a byte offset. Positions past the
// end of a line are clamped to the end of that line.
func (x *Index) Offset(p Position) int {
	if p.Line < 0 {
		return 0
	}

	if p.Line >= len(x.lineStarts) {
		return len(x.text)
	}

	start := x.lineStarts[p.Line]

	end := len(x.text)
	if p.Line+1 < len(x.lineStarts) {
		end = x.lineStarts[p.Line+1] - 1
	}

	line := x.text[start:end]
	units := 0

	for i, r := range line {
		if units >= p.Character {
			return start + i
		}

		units += runeUnits(r)
	}

	return start + len(line)
}

// Range converts a byte span into a range.
func (x *Index) Range(start, end int) Range {
	return Range{Start: x.Position(start), End: x.Position(end)}
}

// UTF16Len counts the UTF-16 code units needed to encode s.
func UTF16Len(s string) int {
	n := 0

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		n += runeUnits(r)
		s = s[size:]
	}

	return n
}

// FromRuneColumn converts a 0-based rune column within line into UTF-16 units.
func FromRuneColumn(line string, col int) int {
	units := 0

	for i, r := range []rune(line) {
		if i >= col {
			break
		}

		units += runeUnits(r)
	}

	return units
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}

	return 1
}
