// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"context"
	"fmt"
	"runtime/trace"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Span represents one unit of file work in flight.
type Span struct {
	// only these fields are set automatically
	task     *trace.Task
	start    time.Time
	duration time.Duration

	Op      Operation
	Path    string
	Bytes   int
	Entries int
	Error   error
}

// Operation names the kind of work a span covers.
type Operation string

// Operations.
const (
	OpParse Operation = "parse"
	OpScan  Operation = "scan"
)

// Begin starts timing and opens a runtime/trace task named after the operation.
func (span *Span) Begin(ctx context.Context) context.Context {
	span.start = time.Now()

	ctx, span.task = trace.NewTask(ctx, "railsi18n."+string(span.Op))

	return ctx
}

// End stops timing. Only the first call has an effect.
func (span *Span) End() {
	if span.task != nil {
		span.duration = time.Since(span.start)
		span.task.End()
		span.task = nil
	}
}

// Duration returns the time between Begin and End.
func (span Span) Duration() time.Duration {
	return span.duration
}

// Log writes the span at debug level.
func (span Span) Log() {
	event := log.Debug()

	event.Str("sys", "audit")
	event.Str("op", string(span.Op))
	event.Str("path", span.Path)
	event.Str("len", humanizeSize(span.Bytes))
	event.Int("entries", span.Entries)
	event.Dur("dur", span.duration)

	if span.Error != nil {
		event.Err(span.Error)
	}

	event.Send()
}

const (
	bytesInKB = 1024
	bytesInMB = bytesInKB * bytesInKB
	bytesInGB = bytesInMB * bytesInKB
)

func humanizeSize(x int) string {
	if x < bytesInKB {
		return strconv.Itoa(x)
	}

	if x < bytesInMB {
		return fmt.Sprintf("%.2fK", float64(x)/bytesInKB)
	}

	if x < bytesInGB {
		return fmt.Sprintf("%.2fM", float64(x)/bytesInMB)
	}

	return fmt.Sprintf("%.2fG", float64(x)/bytesInGB)
}
