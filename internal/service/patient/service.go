package patient

import (
	"context"

	"github.com/resqmed/patient-api/internal/gateway"
	"github.com/resqmed/patient-api/internal/model"
	"github.com/resqmed/patient-api/pkg/errors"
)

type Service struct {
	gw *gateway.Gateway
}

func NewService(gw *gateway.Gateway) *Service {
	return &Service{gw: gw}
}

// Get returns the user's profile, canned default included in fallback.
func (s *Service) Get(ctx context.Context, userID string) (*model.PatientProfile, error) {
	p, err := s.gw.GetPatientInfo(ctx, userID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return p, nil
}

// Update upserts the profile whole; there is no field merge.
func (s *Service) Update(ctx context.Context, userID string, req *model.UpdatePatientRequest) (*model.PatientProfile, error) {
	p := &model.PatientProfile{
		UserID:  userID,
		Name:    req.Name,
		Age:     req.Age,
		Gender:  req.Gender,
		Contact: req.Contact,
		Address: req.Address,
	}

	updated, err := s.gw.UpdatePatientInfo(ctx, p)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return updated, nil
}
