package report

import (
	"context"
	"io"

	"github.com/resqmed/patient-api/internal/gateway"
	"github.com/resqmed/patient-api/internal/model"
	"github.com/resqmed/patient-api/pkg/errors"
)

// MaxReportSize bounds a single uploaded report.
const MaxReportSize = 25 << 20 // 25 MiB

type Service struct {
	gw *gateway.Gateway
}

func NewService(gw *gateway.Gateway) *Service {
	return &Service{gw: gw}
}

// Upload stores a report file and returns its record.
func (s *Service) Upload(ctx context.Context, userID, fileName, mimeType string, size int64, data io.Reader) (*model.MedicalReport, error) {
	if size <= 0 {
		return nil, errors.BadRequest("report file is empty", nil)
	}
	if size > MaxReportSize {
		return nil, errors.BadRequest("report file exceeds the 25 MiB limit", nil)
	}

	rec, err := s.gw.UploadMedicalReport(ctx, userID, fileName, mimeType, size, data)
	if err != nil {
		return nil, errors.Unavailable("report upload failed", err)
	}
	return rec, nil
}

// List returns the user's report records.
func (s *Service) List(ctx context.Context, userID string) ([]*model.MedicalReport, error) {
	reports, err := s.gw.ListMedicalReports(ctx, userID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return reports, nil
}

// PreviewURL returns a link to view the report binary.
func (s *Service) PreviewURL(fileID string) string {
	return s.gw.GetMedicalReportPreview(fileID)
}

// Delete removes a report. False when the remote refused.
func (s *Service) Delete(ctx context.Context, id string) bool {
	return s.gw.DeleteMedicalReport(ctx, id)
}
