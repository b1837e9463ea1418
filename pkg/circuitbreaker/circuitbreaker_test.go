package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestClosedPassesThrough(t *testing.T) {
	b := New(3, time.Minute)

	calls := 0
	err := b.Execute(func() error { calls++; return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	b := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Execute(func() error { return errBoom }), errBoom)
	}

	calls := 0
	err := b.Execute(func() error { calls++; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, 0, calls)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := New(3, time.Minute)

	require.Error(t, b.Execute(func() error { return errBoom }))
	require.Error(t, b.Execute(func() error { return errBoom }))
	require.NoError(t, b.Execute(func() error { return nil }))

	// The streak restarted, so two more failures must not open it.
	require.Error(t, b.Execute(func() error { return errBoom }))
	require.Error(t, b.Execute(func() error { return errBoom }))
	assert.NoError(t, b.Execute(func() error { return nil }))
}

func TestProbeAfterCooldown(t *testing.T) {
	b := New(1, 20*time.Millisecond)

	require.Error(t, b.Execute(func() error { return errBoom }))
	assert.ErrorIs(t, b.Execute(func() error { return nil }), ErrOpen)

	time.Sleep(30 * time.Millisecond)

	// Probe succeeds, breaker closes again.
	require.NoError(t, b.Execute(func() error { return nil }))
	assert.NoError(t, b.Execute(func() error { return nil }))
}

func TestFailedProbeReopens(t *testing.T) {
	b := New(1, 20*time.Millisecond)

	require.Error(t, b.Execute(func() error { return errBoom }))
	time.Sleep(30 * time.Millisecond)

	assert.ErrorIs(t, b.Execute(func() error { return errBoom }), errBoom)
	assert.ErrorIs(t, b.Execute(func() error { return nil }), ErrOpen)
}
