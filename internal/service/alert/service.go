package alert

import (
	"context"
	"time"

	"github.com/resqmed/patient-api/pkg/logger"
	"github.com/resqmed/patient-api/pkg/messaging"
)

const channel = "emergency.alerts"

// Alert is the event published when a dispatch is accepted or the user
// pings the police.
type Alert struct {
	UserID string    `json:"user_id"`
	Kind   string    `json:"kind"` // "sos_accepted" or "police_alert"
	Lat    float64   `json:"lat,omitempty"`
	Lon    float64   `json:"lon,omitempty"`
	Time   time.Time `json:"time"`
}

// Service publishes emergency alerts on the broker. Fire and forget: a
// broker outage is logged and swallowed, it never blocks or fails the
// emergency flow itself.
type Service struct {
	broker messaging.Broker
	log    *logger.Logger
}

func NewService(broker messaging.Broker, log *logger.Logger) *Service {
	return &Service{broker: broker, log: log}
}

func (s *Service) Publish(ctx context.Context, a Alert) {
	if s.broker == nil {
		return
	}
	a.Time = time.Now()
	if err := s.broker.Publish(ctx, channel, messaging.Message{Type: a.Kind, Payload: a}); err != nil {
		s.log.Error(err, "failed to publish emergency alert")
	}
}
