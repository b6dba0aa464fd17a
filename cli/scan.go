// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"context"
	"fmt"
	"io"
	"path"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"codeberg.org/railsi18n/railsi18n/core/resolve"
	"codeberg.org/railsi18n/railsi18n/core/textpos"
	"codeberg.org/railsi18n/railsi18n/core/workspace"
)

type documentAnnotations struct {
	Path        string               `json:"path"`
	Annotations []resolve.Annotation `json:"annotations"`
}

func (st *state) scanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan FILE...",
		Short: "Annotate the translation keys used in files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			var (
				out  []documentAnnotations
				docs []resolve.Document
			)

			for _, name := range args {
				doc, err := a.readDocument(name)
				if err != nil {
					return err
				}

				anns, err := a.resolver.Annotations(cmd.Context(), doc)
				if err != nil {
					return err
				}

				docs = append(docs, doc)
				out = append(out, documentAnnotations{Path: a.relPath(doc.Path), Annotations: anns})
			}

			return st.emit(cmd.OutOrStdout(), out, func(w io.Writer) error {
				for i, d := range out {
					a.printAnnotations(w, docs[i], d)
				}

				return nil
			})
		},
	}
}

// printAnnotations renders one line per occurrence. With in-place
// annotations the source line is shown with the value inserted after the
// key; otherwise only the key is shown. Found values are hidden when
// annotations are disabled.
func (a *app) printAnnotations(w io.Writer, doc resolve.Document, d documentAnnotations) {
	idx := textpos.NewIndex(doc.Text)

	for _, ann := range d.Annotations {
		if ann.Found && !a.cfg.Annotations.Enabled {
			continue
		}

		start := ann.Range.Start
		body := ann.Key

		if a.cfg.Annotations.InPlace {
			line := idx.Line(start.Line)
			lineStart := idx.LineStart(start.Line)
			cut := min(max(idx.Offset(ann.Range.End)-lineStart, 0), len(line))
			body = strings.TrimSpace(line[:cut] + ann.Decoration() + line[cut:])
		} else if !ann.Found {
			body += ann.Decoration()
		}

		fmt.Fprintf(w, "%s:%s: %s\n", d.Path, start, body)
	}
}

// missing is a key without a translation in the default locale.
type missing struct {
	Path          string           `json:"path"`
	Position      textpos.Position `json:"position"`
	Key           string           `json:"key"`
	NormalizedKey string           `json:"normalizedKey"`
}

func (m missing) String() string {
	if m.Key == m.NormalizedKey {
		return fmt.Sprintf("%s:%s: %s %s", m.Path, m.Position, m.Key, resolve.MissingText)
	}

	return fmt.Sprintf("%s:%s: %s (%s) %s", m.Path, m.Position, m.Key, m.NormalizedKey, resolve.MissingText)
}

type checkReport struct {
	Files   int       `json:"files"`
	Missing []missing `json:"missing"`
}

func (st *state) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [DIR]",
		Short: "Report translation keys without a translation",
		Long: `Scan every document matching scan.include, optionally limited to DIR,
and report the keys missing from the default locale.

The command fails when any key is missing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			docs, err := workspace.Open(a.source.Root(), a.cfg.Scan.Include)
			if err != nil {
				return err
			}

			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}

			report, err := a.check(cmd.Context(), docs, dir)
			if err != nil {
				return err
			}

			if err := st.emit(cmd.OutOrStdout(), report, func(w io.Writer) error {
				for _, m := range report.Missing {
					fmt.Fprintln(w, m)
				}

				fmt.Fprintf(w, "%d files checked, %d missing translations\n", report.Files, len(report.Missing))

				return nil
			}); err != nil {
				return err
			}

			if len(report.Missing) > 0 {
				return fmt.Errorf("%w: %d", ErrMissingTranslations, len(report.Missing))
			}

			return nil
		},
	}
}

// check scans the documents of docs below dir in parallel.
func (a *app) check(ctx context.Context, docs *workspace.Source, dir string) (checkReport, error) {
	files, err := docs.Discover(ctx)
	if err != nil {
		return checkReport{}, err
	}

	if dir != "" {
		if rel, ok := docs.Rel(docs.Abs(dir)); ok {
			dir = rel
		}

		dir = path.Clean(dir)
		if dir != "." {
			files = filterDir(files, dir)
		}
	}

	var (
		mu     sync.Mutex
		report = checkReport{Files: len(files)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, rel := range files {
		g.Go(func() error {
			content, err := docs.ReadFile(gctx, rel)
			if err != nil {
				return err
			}

			anns, err := a.resolver.Annotations(gctx, resolve.Document{Path: docs.Abs(rel), Text: string(content)})
			if err != nil {
				return err
			}

			var found []missing
			for _, ann := range anns {
				if !ann.Found {
					found = append(found, missing{
						Path:          rel,
						Position:      ann.Range.Start,
						Key:           ann.Key,
						NormalizedKey: ann.NormalizedKey,
					})
				}
			}

			mu.Lock()
			report.Missing = append(report.Missing, found...)
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return checkReport{}, err
	}

	sort.Slice(report.Missing, func(i, j int) bool {
		mi, mj := report.Missing[i], report.Missing[j]
		if mi.Path != mj.Path {
			return mi.Path < mj.Path
		}

		return mi.Position.Before(mj.Position)
	})

	log.Debug().
		Int("files", report.Files).
		Int("missing", len(report.Missing)).
		Msg("Checked documents")

	return report, nil
}

func filterDir(files []string, dir string) []string {
	out := files[:0]

	for _, f := range files {
		if f == dir || strings.HasPrefix(f, dir+"/") {
			out = append(out, f)
		}
	}

	return out
}
