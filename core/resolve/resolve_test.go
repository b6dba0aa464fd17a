// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package resolve

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/railsi18n/railsi18n/core/keys"
	"codeberg.org/railsi18n/railsi18n/core/lrucache"
	"codeberg.org/railsi18n/railsi18n/core/scanner"
	"codeberg.org/railsi18n/railsi18n/core/textpos"
	"codeberg.org/railsi18n/railsi18n/i18n"
)

// fakeDict is an in-memory Dictionary.
type fakeDict struct {
	priority []string
	tables   map[string]map[string]i18n.Translation
	gen      uint64
}

func (d *fakeDict) defaultLocale() string {
	for _, l := range d.priority {
		if _, ok := d.tables[l]; ok {
			return l
		}
	}

	return ""
}

func (d *fakeDict) Get(key string) (i18n.Translation, bool) {
	return d.GetByLocale(key, d.defaultLocale())
}

func (d *fakeDict) GetByLocale(key, locale string) (i18n.Translation, bool) {
	tr, ok := d.tables[locale][key]
	return tr, ok
}

func (d *fakeDict) Entries() []i18n.Entry {
	var out []i18n.Entry
	for k, tr := range d.tables[d.defaultLocale()] {
		out = append(out, i18n.Entry{Key: k, Translation: tr})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out
}

func (d *fakeDict) Locales() []string          { return d.priority }
func (d *fakeDict) AvailableLocales() []string { return d.priority }
func (d *fakeDict) Generation() uint64         { return d.gen }

func (d *fakeDict) set(locale, key, value string, line int) {
	if d.tables == nil {
		d.tables = map[string]map[string]i18n.Translation{}
	}

	if d.tables[locale] == nil {
		d.tables[locale] = map[string]i18n.Translation{}
	}

	d.tables[locale][key] = i18n.Translation{
		Locale: locale,
		Path:   "config/locales/" + locale + ".yml",
		Value:  value,
		Range:  textpos.Point(textpos.Position{Line: line, Character: 6}),
	}
}

func newDict() *fakeDict {
	d := &fakeDict{priority: []string{"en", "ja", "fr"}}

	d.set("en", "users.index.heading", "All users", 3)
	d.set("en", "users.long", strings.Repeat("a", 50), 4)
	d.set("en", "activerecord.attributes.user.name", "Name", 8)
	d.set("en", "date.formats.short", "%b %d", 10)
	d.set("en", "time.formats.short", "%H:%M", 12)
	d.set("en", "time.formats.long", "%B %d, %Y %H:%M", 13)
	d.set("ja", "users.index.heading", "ユーザー一覧", 3)
	d.set("fr", "users.other", "Autre", 3)

	return d
}

func newResolver(t *testing.T, d Dictionary, cache *lrucache.Cache) *Resolver {
	t.Helper()

	sc, err := scanner.New(scanner.Config{})
	require.NoError(t, err)

	return New(d, sc, keys.New("/work"), cache, Options{})
}

const viewPath = "/work/app/views/users/index.html.erb"

func TestForKey(t *testing.T) {
	t.Parallel()

	r := newResolver(t, newDict(), nil)
	doc := Document{Path: viewPath}

	res, ok := r.ForKey(doc, ".heading")
	require.True(t, ok)
	assert.True(t, res.Found)
	assert.Equal(t, ".heading", res.Key)
	assert.Equal(t, "users.index.heading", res.NormalizedKey)
	assert.Equal(t, "en", res.Locale)
	assert.Equal(t, "All users", res.Translation.Value)

	res, ok = r.ForKey(doc, "users.missing")
	require.True(t, ok)
	assert.False(t, res.Found)
	assert.Equal(t, "users.missing", res.NormalizedKey)

	_, ok = r.ForKey(Document{Path: "/work/app/models/user.rb"}, ".heading")
	assert.False(t, ok, "lazy keys outside the views root do not resolve")
}

func TestForPosition(t *testing.T) {
	t.Parallel()

	r := newResolver(t, newDict(), nil)

	tests := []struct {
		name       string
		text       string
		char       int
		normalized string
		found      bool
		value      string
	}{
		{
			name:       "lazy key",
			text:       `<%= t(".heading") %>`,
			char:       10,
			normalized: "users.index.heading",
			found:      true,
			value:      "All users",
		},
		{
			name:       "attribute",
			text:       `<%= User.human_attribute_name(:name) %>`,
			char:       32,
			normalized: "activerecord.attributes.user.name",
			found:      true,
			value:      "Name",
		},
		{
			name:       "localize with time hint",
			text:       `<%= l(@user.created_at, format: :short) %>`,
			char:       34,
			normalized: "time.formats.short",
			found:      true,
			value:      "%H:%M",
		},
		{
			name:       "localize falls through to time formats",
			text:       `<%= l(value, format: :long) %>`,
			char:       23,
			normalized: "time.formats.long",
			found:      true,
			value:      "%B %d, %Y %H:%M",
		},
		{
			name:       "missing key",
			text:       `<%= t("nope.nothing") %>`,
			char:       9,
			normalized: "nope.nothing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := Document{Path: viewPath, Text: tt.text}

			res, _, ok := r.ForPosition(context.Background(), doc, textpos.Position{Line: 0, Character: tt.char})
			require.True(t, ok)
			assert.Equal(t, tt.normalized, res.NormalizedKey)
			assert.Equal(t, tt.found, res.Found)
			assert.Equal(t, tt.value, res.Translation.Value)
		})
	}

	_, _, ok := r.ForPosition(context.Background(), Document{Path: viewPath, Text: "plain text"}, textpos.Position{})
	assert.False(t, ok)
}

func TestLocalize(t *testing.T) {
	t.Parallel()

	r := newResolver(t, newDict(), nil)

	res := r.Localize("short", "")
	assert.True(t, res.Found)
	assert.Equal(t, "date.formats.short", res.NormalizedKey, "date formats are tried first")

	res = r.Localize("short", keys.Time)
	assert.Equal(t, "time.formats.short", res.NormalizedKey)

	res = r.Localize("missing", "")
	assert.False(t, res.Found)
	assert.Equal(t, "date.formats.missing", res.NormalizedKey)
}

func TestMultiLocaleForKey(t *testing.T) {
	t.Parallel()

	r := newResolver(t, newDict(), nil)

	res, ok := r.MultiLocaleForKey(Document{Path: viewPath}, ".heading")
	require.True(t, ok)
	require.Len(t, res.Locales, 3)

	assert.Equal(t, "en", res.Locales[0].Locale)
	require.NotNil(t, res.Locales[0].Translation)
	assert.Equal(t, "All users", res.Locales[0].Translation.Value)

	assert.Equal(t, "ja", res.Locales[1].Locale)
	require.NotNil(t, res.Locales[1].Translation)
	assert.Equal(t, "ユーザー一覧", res.Locales[1].Translation.Value)

	assert.Equal(t, "fr", res.Locales[2].Locale)
	assert.Nil(t, res.Locales[2].Translation)
}

func TestDefinition(t *testing.T) {
	t.Parallel()

	r := newResolver(t, newDict(), nil)
	doc := Document{Path: viewPath, Text: `<%= t(".heading") %>`}

	loc, ok := r.Definition(context.Background(), doc, textpos.Position{Line: 0, Character: 9})
	require.True(t, ok)
	assert.Equal(t, "/work/config/locales/en.yml", loc.Path)
	assert.Equal(t, textpos.Position{Line: 3, Character: 6}, loc.Range.Start)
	assert.Equal(t, "/work/config/locales/en.yml:4:7", loc.String())

	doc.Text = `<%= t(".nothing") %>`
	_, ok = r.Definition(context.Background(), doc, textpos.Position{Line: 0, Character: 9})
	assert.False(t, ok)
}

func TestAnnotations(t *testing.T) {
	t.Parallel()

	cache, err := lrucache.New(8, false)
	require.NoError(t, err)

	r := newResolver(t, newDict(), cache)

	doc := Document{Path: viewPath, Text: `<h1><%= t(".heading") %></h1>
<p><%= t("users.long") %></p>
<p><%= t("users.missing") %></p>
<p><%= User.human_attribute_name(:name) %></p>`}

	anns, err := r.Annotations(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, anns, 4)

	assert.Equal(t, "users.index.heading", anns[0].NormalizedKey)
	assert.Equal(t, " // All users", anns[0].Decoration())

	assert.Equal(t, strings.Repeat("a", 40)+"...", anns[1].Text)

	assert.False(t, anns[2].Found)
	assert.Equal(t, " "+MissingText, anns[2].Decoration())
	assert.Equal(t, textpos.Position{Line: 2, Character: 10}, anns[2].Range.Start)

	assert.Equal(t, "attribute", anns[3].Kind)
	assert.Equal(t, "Name", anns[3].Text)

	again, err := r.Annotations(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, anns, again)
	assert.Equal(t, uint64(1), cache.Stats().Hits, "second scan is served from cache")
}

func TestAnnotationsSkipUnresolvable(t *testing.T) {
	t.Parallel()

	r := newResolver(t, newDict(), nil)
	doc := Document{Path: "/work/app/models/user.rb", Text: `t(".heading"); t("users.long")`}

	anns, err := r.Annotations(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, anns, 1)
	assert.Equal(t, "users.long", anns[0].Key)
}

func TestHover(t *testing.T) {
	t.Parallel()

	cache, err := lrucache.New(8, true)
	require.NoError(t, err)

	d := newDict()
	r := newResolver(t, d, cache)
	doc := Document{Path: viewPath, Text: `<%= t(".heading") %>`}
	pos := textpos.Position{Line: 0, Character: 10}

	hover, ok := r.Hover(context.Background(), doc, pos)
	require.True(t, ok)

	assert.Equal(t, textpos.Position{Line: 0, Character: 7}, hover.Range.Start)
	assert.Contains(t, hover.Contents, "| en | | All users | |")
	assert.Contains(t, hover.Contents, "| ja | | ユーザー一覧 | |")
	assert.Contains(t, hover.Contents, "|  | fr | | [missing translation] | |")
	assert.Contains(t, hover.Contents, "file:///work/config/locales/en.yml#L4")
	assert.True(t, strings.HasPrefix(hover.Contents, "| | | | | |\n|---|---:|---|---|---|\n"))

	cached, ok := r.Hover(context.Background(), doc, pos)
	require.True(t, ok)
	assert.Equal(t, hover, cached)
	assert.Equal(t, uint64(1), cache.Stats().Hits)

	// A new store generation re-renders.
	d.set("fr", "users.index.heading", "Tous les utilisateurs", 3)
	d.gen++

	hover, ok = r.Hover(context.Background(), doc, pos)
	require.True(t, ok)
	assert.Contains(t, hover.Contents, "Tous les utilisateurs")

	doc.Text = `<%= t(".nothing") %>`
	_, ok = r.Hover(context.Background(), doc, pos)
	assert.False(t, ok, "no hover when no locale defines the key")
}

func TestHoverEscapesValues(t *testing.T) {
	t.Parallel()

	d := &fakeDict{priority: []string{"en"}}
	d.set("en", "a", "<b>x</b> | *y*", 0)

	r := newResolver(t, d, nil)

	hover, ok := r.Hover(context.Background(), Document{Path: viewPath, Text: `t("a")`}, textpos.Position{Character: 3})
	require.True(t, ok)
	assert.Contains(t, hover.Contents, `&lt;b&gt;x&lt;/b&gt; \| \*y\*`)
}

func TestTranslateCompletions(t *testing.T) {
	t.Parallel()

	r := newResolver(t, newDict(), nil)

	doc := Document{Path: viewPath, Text: `<%= t("users.`}
	items, ok := r.TranslateCompletions(doc, textpos.Position{Character: 13})
	require.True(t, ok)
	require.Len(t, items, 6)

	assert.Equal(t, "activerecord.attributes.user.name", items[0].Label)
	assert.Equal(t, "Name", items[0].Documentation)
	assert.Equal(t, textpos.Range{
		Start: textpos.Position{Character: 7},
		End:   textpos.Position{Character: 13},
	}, items[0].Range)

	_, ok = r.TranslateCompletions(Document{Path: viewPath, Text: `<%= link_to "x" %>`}, textpos.Position{Character: 14})
	assert.False(t, ok)
}

func TestPrefixCompletions(t *testing.T) {
	t.Parallel()

	r := newResolver(t, newDict(), nil)

	items, ok := r.PrefixCompletions(Document{Path: viewPath, Text: `t("`}, textpos.Position{Character: 3})
	require.True(t, ok)
	require.Len(t, items, 2)

	assert.Equal(t, "views.users.index", items[0].Label)
	assert.True(t, items[0].Preselect)
	assert.Equal(t, "0", items[0].SortText)

	assert.Equal(t, "users.index", items[1].Label)
	assert.False(t, items[1].Preselect)
	assert.Equal(t, "1", items[1].SortText)
}

func TestLocalizeCompletions(t *testing.T) {
	t.Parallel()

	r := newResolver(t, newDict(), nil)

	text := `<%= l(@user.created_at, format: :`
	items, ok := r.LocalizeCompletions(Document{Path: viewPath, Text: text}, textpos.Position{Character: len(text)})
	require.True(t, ok)

	labels := make([]string, 0, len(items))
	for _, it := range items {
		labels = append(labels, it.Detail+":"+it.Label)
	}

	assert.Equal(t, []string{"time:long", "time:short"}, labels)

	text = `<%= l(value, format: :`
	items, ok = r.LocalizeCompletions(Document{Path: viewPath, Text: text}, textpos.Position{Character: len(text)})
	require.True(t, ok)
	assert.Len(t, items, 3, "no hint offers both date and time formats")
}

func TestAbsoluteKeyEdit(t *testing.T) {
	t.Parallel()

	r := newResolver(t, newDict(), nil)

	doc := Document{Path: viewPath, Text: `<%= t(".heading") %>`}
	edit, ok := r.AbsoluteKeyEdit(context.Background(), doc, textpos.Position{Character: 10})
	require.True(t, ok)

	assert.Equal(t, AbsoluteKeyTitle, edit.Title)
	assert.Equal(t, "users.index.heading", edit.NewText)
	assert.Equal(t, textpos.Range{
		Start: textpos.Position{Character: 7},
		End:   textpos.Position{Character: 15},
	}, edit.Range)

	doc.Text = `<%= t("users.long") %>`
	_, ok = r.AbsoluteKeyEdit(context.Background(), doc, textpos.Position{Character: 10})
	assert.False(t, ok, "absolute keys have nothing to convert")

	doc = Document{Path: "/work/app/models/user.rb", Text: `t(".heading")`}
	_, ok = r.AbsoluteKeyEdit(context.Background(), doc, textpos.Position{Character: 5})
	assert.False(t, ok)
}
