// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"codeberg.org/railsi18n/railsi18n/core/resolve"
	"codeberg.org/railsi18n/railsi18n/core/textpos"
)

var errInvalidPosition = errors.New("invalid position, expected LINE:COL")

// parsePosition reads a 1-based LINE:COL pair. COL counts UTF-16 code units.
func parsePosition(s string) (textpos.Position, error) {
	lineStr, colStr, ok := strings.Cut(s, ":")
	if !ok {
		return textpos.Position{}, fmt.Errorf("%w: %q", errInvalidPosition, s)
	}

	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return textpos.Position{}, fmt.Errorf("%w: %q", errInvalidPosition, s)
	}

	col, err := strconv.Atoi(colStr)
	if err != nil || col < 1 {
		return textpos.Position{}, fmt.Errorf("%w: %q", errInvalidPosition, s)
	}

	return textpos.Position{Line: line - 1, Character: col - 1}, nil
}

// positionArgs reads the FILE LINE:COL arguments.
func (a *app) positionArgs(args []string) (resolve.Document, textpos.Position, error) {
	pos, err := parsePosition(args[1])
	if err != nil {
		return resolve.Document{}, textpos.Position{}, err
	}

	doc, err := a.readDocument(args[0])
	if err != nil {
		return resolve.Document{}, textpos.Position{}, err
	}

	return doc, pos, nil
}

func (st *state) hoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hover FILE LINE:COL",
		Short: "Show the translations of the key at a position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			doc, pos, err := a.positionArgs(args)
			if err != nil {
				return err
			}

			hover, ok := a.resolver.Hover(cmd.Context(), doc, pos)
			if !ok {
				return fmt.Errorf("%w: no translated key at %s", ErrNotFound, pos)
			}

			return st.emit(cmd.OutOrStdout(), hover, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, hover.Contents)

				return err
			})
		},
	}
}

func (st *state) definitionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "definition FILE LINE:COL",
		Short: "Print where the key at a position is defined",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			doc, pos, err := a.positionArgs(args)
			if err != nil {
				return err
			}

			loc, ok := a.resolver.Definition(cmd.Context(), doc, pos)
			if !ok {
				return fmt.Errorf("%w: no translated key at %s", ErrNotFound, pos)
			}

			return st.emit(cmd.OutOrStdout(), loc, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, loc)

				return err
			})
		},
	}
}

type completions struct {
	Items []resolve.Completion `json:"items"`
	Edit  *resolve.TextEdit    `json:"edit,omitempty"`
}

func (st *state) completeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "complete FILE LINE:COL",
		Short: "List completions and key edits at a position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			doc, pos, err := a.positionArgs(args)
			if err != nil {
				return err
			}

			var out completions

			if items, ok := a.resolver.LocalizeCompletions(doc, pos); ok {
				out.Items = items
			} else {
				if items, ok := a.resolver.PrefixCompletions(doc, pos); ok {
					out.Items = append(out.Items, items...)
				}

				if items, ok := a.resolver.TranslateCompletions(doc, pos); ok {
					out.Items = append(out.Items, items...)
				}
			}

			if edit, ok := a.resolver.AbsoluteKeyEdit(cmd.Context(), doc, pos); ok {
				out.Edit = &edit
			}

			return st.emit(cmd.OutOrStdout(), out, func(w io.Writer) error {
				for _, item := range out.Items {
					if item.Detail != "" {
						fmt.Fprintf(w, "%s\t%s\t%s\n", item.Label, item.Detail, item.Documentation)
					} else {
						fmt.Fprintf(w, "%s\t%s\n", item.Label, item.Documentation)
					}
				}

				if out.Edit != nil {
					fmt.Fprintf(w, "%s: %s -> %s\n", out.Edit.Title, out.Edit.Range.Start, out.Edit.NewText)
				}

				return nil
			})
		},
	}
}
