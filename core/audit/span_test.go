// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHumanizeSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{1023, "1023"},
		{1024, "1.00K"},
		{1536, "1.50K"},
		{3 * bytesInMB, "3.00M"},
		{2 * bytesInGB, "2.00G"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, humanizeSize(tt.in))
	}
}

func TestSpanEndOnce(t *testing.T) {
	t.Parallel()

	span := Span{Op: OpParse, Path: "config/locales/en.yml"}
	span.Begin(context.Background())

	time.Sleep(5 * time.Millisecond)
	span.End()

	first := span.Duration()
	assert.GreaterOrEqual(t, first, 5*time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	span.End()
	assert.Equal(t, first, span.Duration())

	span.Log()
}
