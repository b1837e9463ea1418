package sos

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resqmed/patient-api/internal/config"
)

func testSOSConfig() config.SOSConfig {
	return config.SOSConfig{
		AcceptDelay:    40 * time.Millisecond,
		RotateInterval: 10 * time.Millisecond,
		CountdownFrom:  10,
	}
}

func TestPhaseSequence(t *testing.T) {
	m := NewMachine(testSOSConfig(), nil, nil)
	assert.Equal(t, PhaseIdle, m.Snapshot().Phase)

	require.NoError(t, m.Trigger())
	assert.Equal(t, PhaseConfirm, m.Snapshot().Phase)

	require.NoError(t, m.Confirm())
	snap := m.Snapshot()
	assert.Equal(t, PhaseSearching, snap.Phase)
	assert.Equal(t, SearchingStatuses[0], snap.SearchingText)
}

func TestInvalidTransitions(t *testing.T) {
	m := NewMachine(testSOSConfig(), nil, nil)

	assert.Error(t, m.Confirm())
	assert.Error(t, m.Cancel())
	assert.Error(t, m.Close())

	require.NoError(t, m.Trigger())
	assert.Error(t, m.Trigger())
	assert.Error(t, m.Close())
}

func TestAutoAcceptAfterDelay(t *testing.T) {
	var accepted atomic.Int32
	m := NewMachine(testSOSConfig(), nil, func() { accepted.Add(1) })

	require.NoError(t, m.Trigger())
	require.NoError(t, m.Confirm())

	require.Eventually(t, func() bool {
		return m.Snapshot().Phase == PhaseAccepted
	}, time.Second, 5*time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, 10, snap.Countdown)
	assert.Equal(t, int32(1), accepted.Load())
}

func TestCancelKillsPendingAutoAccept(t *testing.T) {
	var accepted atomic.Int32
	m := NewMachine(testSOSConfig(), nil, func() { accepted.Add(1) })

	require.NoError(t, m.Trigger())
	require.NoError(t, m.Confirm())
	require.NoError(t, m.Cancel())
	assert.Equal(t, PhaseIdle, m.Snapshot().Phase)

	// Well past the original accept delay: the stale timer must not fire.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, PhaseIdle, m.Snapshot().Phase)
	assert.Equal(t, int32(0), accepted.Load())
}

func TestCancelFromConfirm(t *testing.T) {
	m := NewMachine(testSOSConfig(), nil, nil)

	require.NoError(t, m.Trigger())
	require.NoError(t, m.Cancel())
	assert.Equal(t, PhaseIdle, m.Snapshot().Phase)
}

func TestSearchingStatusRotates(t *testing.T) {
	cfg := testSOSConfig()
	cfg.AcceptDelay = time.Minute // keep it searching
	m := NewMachine(cfg, nil, nil)

	require.NoError(t, m.Trigger())
	require.NoError(t, m.Confirm())

	require.Eventually(t, func() bool {
		return m.Snapshot().SearchingText != SearchingStatuses[0]
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, SearchingStatuses, m.Snapshot().SearchingText)
}

func TestCloseReturnsToIdleAndFlowRestarts(t *testing.T) {
	m := NewMachine(testSOSConfig(), nil, nil)

	require.NoError(t, m.Trigger())
	require.NoError(t, m.Confirm())
	require.Eventually(t, func() bool {
		return m.Snapshot().Phase == PhaseAccepted
	}, time.Second, 5*time.Millisecond)

	// Accepted cannot be cancelled, only closed.
	assert.Error(t, m.Cancel())
	require.NoError(t, m.Close())
	assert.Equal(t, PhaseIdle, m.Snapshot().Phase)

	require.NoError(t, m.Trigger())
	assert.Equal(t, PhaseConfirm, m.Snapshot().Phase)
}

func TestManagerSeparatesUsers(t *testing.T) {
	mg := NewManager(testSOSConfig(), nil, nil)

	a := mg.Machine("u1")
	b := mg.Machine("u2")
	assert.NotSame(t, a, b)
	assert.Same(t, a, mg.Machine("u1"))

	require.NoError(t, a.Trigger())
	assert.Equal(t, PhaseConfirm, a.Snapshot().Phase)
	assert.Equal(t, PhaseIdle, b.Snapshot().Phase)
}

func TestManagerHookCarriesUserID(t *testing.T) {
	got := make(chan string, 1)
	mg := NewManager(testSOSConfig(), nil, func(userID string) { got <- userID })

	m := mg.Machine("u7")
	require.NoError(t, m.Trigger())
	require.NoError(t, m.Confirm())

	select {
	case id := <-got:
		assert.Equal(t, "u7", id)
	case <-time.After(time.Second):
		t.Fatal("accepted hook never fired")
	}
}
