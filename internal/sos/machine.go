package sos

import (
	"fmt"
	"sync"
	"time"

	"github.com/resqmed/patient-api/internal/config"
	"github.com/resqmed/patient-api/pkg/metrics"
)

// Phase is a state of the emergency dispatch flow.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseConfirm   Phase = "confirm"
	PhaseSearching Phase = "searching"
	PhaseAccepted  Phase = "accepted"
)

// SearchingStatuses rotate on the searching screen. Display only.
var SearchingStatuses = []string{
	"Connecting to nearby hospitals...",
	"Searching for available ambulances...",
	"Checking hospital capacity...",
	"Contacting emergency response team...",
	"Verifying your location...",
}

// Snapshot is the externally visible machine state.
type Snapshot struct {
	Phase         Phase  `json:"phase"`
	SearchingText string `json:"searching_text,omitempty"`
	Countdown     int    `json:"countdown,omitempty"`
}

// Machine drives one emergency flow: idle -> confirm -> searching ->
// accepted, with user cancel from confirm and searching and close from
// accepted. Acceptance is simulated by a timer, not fetched; there is no
// error phase.
//
// Every transition bumps a generation counter and stops the previous
// phase's timers synchronously, so a stale timer callback that fires
// anyway observes the generation mismatch and does nothing.
type Machine struct {
	mu  sync.Mutex
	gen uint64

	phase     Phase
	statusIdx int
	countdown int

	acceptTimer    *time.Timer
	rotateTimer    *time.Timer
	countdownTimer *time.Timer

	cfg        config.SOSConfig
	metrics    *metrics.Metrics
	onAccepted func()
}

// NewMachine builds a machine in the idle phase. onAccepted, if not nil,
// runs once each time the machine reaches accepted (used to publish the
// dispatch alert); it must not call back into the machine.
func NewMachine(cfg config.SOSConfig, m *metrics.Metrics, onAccepted func()) *Machine {
	return &Machine{
		phase:      PhaseIdle,
		cfg:        cfg,
		metrics:    m,
		onAccepted: onAccepted,
	}
}

// Snapshot returns the current phase and its cosmetic counters.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{Phase: m.phase}
	switch m.phase {
	case PhaseSearching:
		s.SearchingText = SearchingStatuses[m.statusIdx]
	case PhaseAccepted:
		s.Countdown = m.countdown
	}
	return s
}

// Trigger moves idle -> confirm.
func (m *Machine) Trigger() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseIdle {
		return fmt.Errorf("cannot trigger SOS from phase %q", m.phase)
	}
	m.enter(PhaseConfirm)
	return nil
}

// Confirm moves confirm -> searching and arms the auto-accept timer.
func (m *Machine) Confirm() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseConfirm {
		return fmt.Errorf("cannot confirm SOS from phase %q", m.phase)
	}
	m.enter(PhaseSearching)
	m.statusIdx = 0

	gen := m.gen
	m.acceptTimer = time.AfterFunc(m.cfg.AcceptDelay, func() { m.autoAccept(gen) })
	m.scheduleRotate(gen)
	return nil
}

// Cancel returns to idle from confirm or searching. Cancelling from
// searching kills the pending auto-accept: the flow stays idle even
// after the original delay would have elapsed.
func (m *Machine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseConfirm && m.phase != PhaseSearching {
		return fmt.Errorf("cannot cancel SOS from phase %q", m.phase)
	}
	m.enter(PhaseIdle)
	if m.metrics != nil {
		m.metrics.SOSCancels.Inc()
	}
	return nil
}

// Close returns to idle from accepted. An accepted dispatch cannot be
// cancelled, only closed.
func (m *Machine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseAccepted {
		return fmt.Errorf("cannot close SOS from phase %q", m.phase)
	}
	m.enter(PhaseIdle)
	return nil
}

func (m *Machine) autoAccept(gen uint64) {
	m.mu.Lock()
	if m.gen != gen || m.phase != PhaseSearching {
		m.mu.Unlock()
		return
	}
	m.enter(PhaseAccepted)
	m.countdown = m.cfg.CountdownFrom
	m.scheduleCountdown(m.gen)
	if m.metrics != nil {
		m.metrics.SOSDispatches.Inc()
	}
	hook := m.onAccepted
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// enter transitions to a new phase. Callers hold m.mu. Stopping the old
// timers here keeps the invariant of at most one live timer set per
// phase.
func (m *Machine) enter(p Phase) {
	m.stopTimers()
	m.gen++
	m.phase = p
}

func (m *Machine) stopTimers() {
	for _, t := range []*time.Timer{m.acceptTimer, m.rotateTimer, m.countdownTimer} {
		if t != nil {
			t.Stop()
		}
	}
	m.acceptTimer = nil
	m.rotateTimer = nil
	m.countdownTimer = nil
}

func (m *Machine) scheduleRotate(gen uint64) {
	m.rotateTimer = time.AfterFunc(m.cfg.RotateInterval, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.gen != gen || m.phase != PhaseSearching {
			return
		}
		m.statusIdx = (m.statusIdx + 1) % len(SearchingStatuses)
		m.scheduleRotate(gen)
	})
}

func (m *Machine) scheduleCountdown(gen uint64) {
	m.countdownTimer = time.AfterFunc(time.Second, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.gen != gen || m.phase != PhaseAccepted {
			return
		}
		if m.countdown > 0 {
			m.countdown--
		}
		if m.countdown > 0 {
			m.scheduleCountdown(gen)
		}
	})
}
