package sos

import (
	"sync"

	"github.com/resqmed/patient-api/internal/config"
	"github.com/resqmed/patient-api/pkg/metrics"
)

// Manager hands out one machine per user. Machines are transient; they
// carry no persisted identity and reset to idle on cancel or close.
type Manager struct {
	mu       sync.Mutex
	machines map[string]*Machine

	cfg        config.SOSConfig
	metrics    *metrics.Metrics
	onAccepted func(userID string)
}

func NewManager(cfg config.SOSConfig, m *metrics.Metrics, onAccepted func(userID string)) *Manager {
	return &Manager{
		machines:   make(map[string]*Machine),
		cfg:        cfg,
		metrics:    m,
		onAccepted: onAccepted,
	}
}

// Machine returns the user's machine, creating an idle one on first use.
func (mg *Manager) Machine(userID string) *Machine {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	if m, ok := mg.machines[userID]; ok {
		return m
	}

	var hook func()
	if mg.onAccepted != nil {
		hook = func() { mg.onAccepted(userID) }
	}
	m := NewMachine(mg.cfg, mg.metrics, hook)
	mg.machines[userID] = m
	return m
}
