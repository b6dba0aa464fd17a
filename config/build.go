// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"runtime/debug"
	"time"
)

// BuildVersion is the latest tagged release of railsi18n.
const BuildVersion = "v0.4.0"

const shortCommitLen = 8

// buildInfo is the VCS stamp the Go toolchain embeds in the binary.
type buildInfo struct {
	Commit    string
	CommitAt  time.Time
	Dirty     bool
	GoVersion string
}

// Revision renders the stamp as "2025-01-02-01234567", with "+dirty" for
// builds from a modified tree.
func (b *buildInfo) Revision() string {
	if b.Commit == "" {
		return "unknown"
	}

	rev := b.Commit[:min(len(b.Commit), shortCommitLen)]
	if !b.CommitAt.IsZero() {
		rev = b.CommitAt.UTC().Format(time.DateOnly) + "-" + rev
	}

	if b.Dirty {
		rev += "+dirty"
	}

	return rev
}

func (b *buildInfo) load() {
	if info, ok := debug.ReadBuildInfo(); ok {
		b.apply(info.GoVersion, info.Settings)
	}
}

func (b *buildInfo) apply(goVersion string, settings []debug.BuildSetting) {
	b.GoVersion = goVersion

	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			b.Commit = s.Value
		case "vcs.time":
			// An unparsable time leaves the date off the revision.
			b.CommitAt, _ = time.Parse(time.RFC3339, s.Value)
		case "vcs.modified":
			b.Dirty = s.Value == "true"
		}
	}
}
