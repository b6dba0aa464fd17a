// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package keys

import "strings"

// FormatType is the value family a localize call formats.
type FormatType string

// Format types.
const (
	Date FormatType = "date"
	Time FormatType = "time"
)

// Hints holds the variable-name suffixes that imply a format type.
// Date suffixes are checked before time suffixes.
type Hints struct {
	DateSuffixes []string
	TimeSuffixes []string
}

// DefaultHints returns the built-in suffix tables.
func DefaultHints() Hints {
	return Hints{
		DateSuffixes: []string{"_on", "date", "day", "tomorrow"},
		TimeSuffixes: []string{"_at", "time", "now", ".in_time_zone"},
	}
}

// TypeOf infers the format type from a variable or expression name.
func (h Hints) TypeOf(name string) (FormatType, bool) {
	for _, suffix := range h.DateSuffixes {
		if strings.HasSuffix(name, suffix) {
			return Date, true
		}
	}

	for _, suffix := range h.TimeSuffixes {
		if strings.HasSuffix(name, suffix) {
			return Time, true
		}
	}

	return "", false
}

// FormatKeys returns the candidate keys for a format name. With a type the
// result has one key; without one it lists the date key before the time key.
func FormatKeys(format string, typ FormatType) []string {
	if typ != "" {
		return []string{string(typ) + ".formats." + format}
	}

	return []string{
		string(Date) + ".formats." + format,
		string(Time) + ".formats." + format,
	}
}

// FormatPrefix returns the key prefix that holds formats of typ.
func FormatPrefix(typ FormatType) string {
	return string(typ) + ".formats."
}

// LocalizeKeys returns the candidate keys for a localize call formatting
// variable with format.
func (n *Normalizer) LocalizeKeys(variable, format string) []string {
	typ, _ := n.TypeOf(variable)

	return FormatKeys(format, typ)
}

func (n *Normalizer) hints() Hints {
	if len(n.Hints.DateSuffixes) == 0 && len(n.Hints.TimeSuffixes) == 0 {
		return DefaultHints()
	}

	return n.Hints
}

// TypeOf infers the format type of a localized variable using the
// configured hints.
func (n *Normalizer) TypeOf(variable string) (FormatType, bool) {
	return n.hints().TypeOf(variable)
}
