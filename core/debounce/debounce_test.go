// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerCoalesces(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	d := New(30*time.Millisecond, func() { calls.Add(1) })

	for range 10 {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	assert.True(t, d.Pending())
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// Stays at one call once quiet.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, d.Pending())
}

func TestDebouncerSeparateBursts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	d := New(10*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 2*time.Millisecond)

	d.Trigger()
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 2*time.Millisecond)
}

func TestDebouncerStop(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	d := New(20*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	d.Stop()
	d.Trigger()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, d.Pending())
}
