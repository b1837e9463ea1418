package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/resqmed/patient-api/internal/gateway"
	"github.com/resqmed/patient-api/internal/model"
	"github.com/resqmed/patient-api/pkg/errors"
)

// Service validates bookings and hands persistence to the gateway.
// Validation runs before any persistence attempt: a rejected booking is
// never partially applied.
type Service struct {
	gw *gateway.Gateway
}

func NewService(gw *gateway.Gateway) *Service {
	return &Service{gw: gw}
}

// Create books an appointment for the user. The date must parse as
// RFC 3339 and lie in the future.
func (s *Service) Create(ctx context.Context, userID string, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	hospitalName := strings.TrimSpace(req.HospitalName)
	description := strings.TrimSpace(req.Description)
	if hospitalName == "" {
		return nil, errors.BadRequest("hospital name is required", nil)
	}
	if description == "" {
		return nil, errors.BadRequest("description is required", nil)
	}

	dateTime, err := time.Parse(time.RFC3339, req.DateTime)
	if err != nil {
		return nil, errors.BadRequest("date_time must be a valid RFC 3339 timestamp", err)
	}
	if dateTime.Before(time.Now()) {
		return nil, errors.BadRequest("appointment date must be in the future", nil)
	}

	apt := &model.Appointment{
		UserID:       userID,
		HospitalID:   req.HospitalID,
		HospitalName: hospitalName,
		DateTime:     dateTime,
		Description:  description,
		Status:       model.AppointmentStatus(req.Status),
	}

	created, err := s.gw.CreateAppointment(ctx, apt)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return created, nil
}

// List returns the user's appointments in stored order.
func (s *Service) List(ctx context.Context, userID string) ([]*model.Appointment, error) {
	apts, err := s.gw.GetAppointments(ctx, userID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return apts, nil
}

// Delete removes a booking. The boolean mirrors the gateway contract:
// false means the remote refused, not that something blew up.
func (s *Service) Delete(ctx context.Context, id string) bool {
	return s.gw.DeleteAppointment(ctx, id)
}
