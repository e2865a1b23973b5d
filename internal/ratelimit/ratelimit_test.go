package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_Burst(t *testing.T) {
	krl := New(1, 3)

	// The full burst is available immediately.
	assert.True(t, krl.Allow("localhost:8080"))
	assert.True(t, krl.Allow("localhost:8080"))
	assert.True(t, krl.Allow("localhost:8080"))

	// The bucket is now empty.
	assert.False(t, krl.Allow("localhost:8080"))
}

func TestAllow_IndependentKeys(t *testing.T) {
	krl := New(1, 1)

	assert.True(t, krl.Allow("a.example"))
	assert.False(t, krl.Allow("a.example"))

	// A different host has its own bucket.
	assert.True(t, krl.Allow("b.example"))
}

func TestWait_ContextCancellation(t *testing.T) {
	krl := New(0.001, 1)
	require.True(t, krl.Allow("host"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := krl.Wait(ctx, "host")
	assert.Error(t, err)
}
