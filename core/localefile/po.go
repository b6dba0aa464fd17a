// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package localefile

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/leonelquinteros/gotext"

	"codeberg.org/railsi18n/railsi18n/core/textpos"
)

// parsePO loads a gettext catalogue. The locale is taken from the file name,
// accepting both "pt_BR.po" and "pt-BR.po". Untranslated entries are skipped.
func parsePO(b *builder, content []byte) error {
	locale := poLocale(b.path)
	if !b.accepts(locale) {
		return nil
	}

	po := gotext.NewPo()
	po.Parse(content)

	src := string(content)
	lines := textpos.NewIndex(src)

	translations := po.GetDomain().GetTranslations()

	ids := make([]string, 0, len(translations))
	for id := range translations {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	b.open(locale)

	for _, id := range ids {
		tr := translations[id]
		if id == "" || tr == nil {
			continue
		}

		value := tr.Trs[0]
		if value == "" {
			continue
		}

		var pos textpos.Position
		if at := strings.Index(src, "msgid "+strconv.Quote(id)); at >= 0 {
			pos = lines.Position(at)
		}

		b.add(locale, id, value, pos)
	}

	return nil
}

func poLocale(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	return strings.ReplaceAll(name, "_", "-")
}
