// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logFilePermissions = 0o666

// setupAudit initializes the global logger with the provided configuration.
func (cfg *Config) setupAudit() {
	if cfg.Development.InDevelopment {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		switch cfg.Log.Level {
		case "debug":
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		case "info":
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		case "warn":
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		case "error":
			zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		default:
		}
	}

	writers := []io.Writer{}

	if len(cfg.Log.Outputs) == 0 {
		writers = append(writers, cfg.formatWriter(os.Stderr))
	} else {
		for _, output := range cfg.Log.Outputs {
			switch output {
			case "/dev/stdout":
				writers = append(writers, cfg.formatWriter(os.Stdout))
			case "/dev/stderr":
				writers = append(writers, cfg.formatWriter(os.Stderr))
			default:
				file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions) // #nosec:G302,G304
				if err != nil {
					// Skip outputs that cannot be opened.
					fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", output, err)

					continue
				}

				writers = append(writers, cfg.formatWriter(file))
			}
		}
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))
}

func (cfg *Config) formatWriter(f *os.File) io.Writer {
	if cfg.Log.Format == "json" {
		return f
	}

	return ConsoleWriter(f)
}

// isTerminal returns true if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ConsoleWriter returns a writer for zerolog that has NoColor:isTerminal(f).
func ConsoleWriter(f *os.File) io.Writer {
	noColor := !isTerminal(f)

	w := zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.DateTime}

	if !noColor {
		w.FormatPrepare = func(m map[string]any) error {
			// pretty print file spans
			if sys, ok := m["sys"]; ok && sys == "audit" {
				m["message"] = fmt.Sprintf("[%s] %s %s %vms", m["op"], m["path"], m["len"], m["dur"])
				delete(m, "sys")
				delete(m, "op")
				delete(m, "path")
				delete(m, "len")
				delete(m, "dur")
			}

			return nil
		}
	}

	return w
}
