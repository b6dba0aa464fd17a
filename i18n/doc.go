// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package i18n holds the flat translation tables of a Rails workspace.

A Store discovers locale files through a Source, parses them with package
localefile and merges them per locale. Keys are dotted paths such as
"users.index.heading".

# Loading

Load replaces every table in one atomic swap, so lookups never observe a
partially loaded workspace. Files are parsed in parallel and merged in
discovery order: when two files of the same locale define a key, the file
discovered last wins.

Malformed files are skipped and reported in LoadReport.Skipped. A failure
to discover or read files rejects the load and keeps the previous tables.

ScheduleReload debounces reload requests. Requests that arrive while a
reload is running are coalesced into one further reload.

# Lookups

Get looks a key up in the default locale, which is the first locale of
Options.Locales that has data. There is no fallback to other locales.
GetByLocale queries one explicit locale.

When Options.StrictMissingKeys is set, each missing (locale, key) pair is
logged once.
*/
package i18n
