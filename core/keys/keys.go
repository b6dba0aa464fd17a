// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package keys normalizes raw translation keys found in source files into
absolute dictionary keys.

Three families are recognized:

  - lazy keys such as ".heading" inside app/views/users/index.html.erb,
    which resolve to "users.index.heading";
  - attribute names from User.human_attribute_name(:name), which resolve to
    "activerecord.attributes.user.name";
  - localize format keys from l(@user.created_at, format: :short), which
    resolve to "time.formats.short" (or to both date and time candidates
    when the variable name gives no hint).

Every other key passes through unchanged.
*/
package keys

import (
	"path"
	"path/filepath"
	"strings"
	"unicode"
)

// Defaults used by [New].
const (
	DefaultViewsRoot          = "app/views"
	DefaultAttributeNamespace = "activerecord.attributes"
)

// Normalizer converts raw keys into absolute dictionary keys.
//
// The zero value is usable; empty fields fall back to the defaults.
type Normalizer struct {
	// WorkspaceRoot is stripped from absolute document paths.
	WorkspaceRoot string
	// ViewsRoot is the workspace-relative directory holding view templates.
	ViewsRoot string
	// AttributeNamespace prefixes attribute-name keys.
	AttributeNamespace string
	// Hints maps localize variable names to a format type.
	Hints Hints
}

// New returns a Normalizer rooted at workspaceRoot with default settings.
func New(workspaceRoot string) *Normalizer {
	return &Normalizer{
		WorkspaceRoot:      workspaceRoot,
		ViewsRoot:          DefaultViewsRoot,
		AttributeNamespace: DefaultAttributeNamespace,
		Hints:              DefaultHints(),
	}
}

// IsLazy reports whether key is relative to the current view.
func IsLazy(key string) bool {
	return strings.HasPrefix(key, ".")
}

// Absolute resolves key against the document at docPath.
//
// Non-lazy keys are returned unchanged. Lazy keys resolve only for documents
// under the views root; otherwise ok is false.
func (n *Normalizer) Absolute(key, docPath string) (string, bool) {
	if !IsLazy(key) {
		return key, true
	}

	scope, ok := n.viewScope(docPath)
	if !ok {
		return "", false
	}

	return strings.Join(scope, ".") + key, true
}

// viewScope returns the key segments implied by a view path: the
// directories below the views root followed by the template name, each with
// one leading underscore removed.
func (n *Normalizer) viewScope(docPath string) ([]string, bool) {
	rel := n.relative(docPath)
	dir, file := path.Split(rel)

	dirs := splitPath(dir)
	root := splitPath(n.viewsRoot())

	if len(dirs) < len(root) {
		return nil, false
	}

	for i, seg := range root {
		if dirs[i] != seg {
			return nil, false
		}
	}

	scope := make([]string, 0, len(dirs)-len(root)+1)
	for _, seg := range dirs[len(root):] {
		scope = append(scope, stripPartial(seg))
	}

	scope = append(scope, stripPartial(templateName(file)))

	return scope, true
}

// PrefixCandidates returns the key prefixes offered when completing a
// translate call inside docPath: the path-derived prefix including the
// views directory, and the same prefix without it.
func (n *Normalizer) PrefixCandidates(docPath string) []string {
	rel := n.relative(docPath)
	dir, file := path.Split(rel)

	parts := splitPath(dir)
	parts = append(parts, templateName(file))

	if len(parts) > 0 {
		parts = parts[1:]
	}

	full := strings.Join(parts, ".")

	short := ""
	if len(parts) > 1 {
		short = strings.Join(parts[1:], ".")
	}

	return []string{full, short}
}

// AttributeKey returns the dictionary key for a model attribute name.
// Namespaced models ("Admin::UserProfile") map to "admin/user_profile".
func (n *Normalizer) AttributeKey(model, attribute string) string {
	return n.attributeNamespace() + "." + ModelKey(model) + "." + attribute
}

// ModelKey converts a model class name into its i18n key.
func ModelKey(model string) string {
	segments := strings.Split(model, "::")
	for i, seg := range segments {
		segments[i] = SnakeCase(seg)
	}

	return strings.Join(segments, "/")
}

// SnakeCase lowercases name, inserting '_' before every interior uppercase letter.
func SnakeCase(name string) string {
	var sb strings.Builder

	sb.Grow(len(name) + 4)

	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}

			r = unicode.ToLower(r)
		}

		sb.WriteRune(r)
	}

	return sb.String()
}

func (n *Normalizer) relative(docPath string) string {
	p := filepath.ToSlash(docPath)

	if root := filepath.ToSlash(n.WorkspaceRoot); root != "" {
		root = strings.TrimSuffix(root, "/")
		if rest, ok := strings.CutPrefix(p, root+"/"); ok {
			p = rest
		}
	}

	return strings.TrimPrefix(path.Clean(p), "./")
}

func (n *Normalizer) viewsRoot() string {
	if n.ViewsRoot == "" {
		return DefaultViewsRoot
	}

	return n.ViewsRoot
}

func (n *Normalizer) attributeNamespace() string {
	if n.AttributeNamespace == "" {
		return DefaultAttributeNamespace
	}

	return n.AttributeNamespace
}

func splitPath(p string) []string {
	var out []string

	for seg := range strings.SplitSeq(p, "/") {
		if seg != "" && seg != "." {
			out = append(out, seg)
		}
	}

	return out
}

// templateName returns a file name up to its first dot.
func templateName(file string) string {
	name, _, _ := strings.Cut(file, ".")

	return name
}

func stripPartial(seg string) string {
	return strings.TrimPrefix(seg, "_")
}
