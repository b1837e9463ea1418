package repository

import (
	"context"
	"errors"
	"io"

	"github.com/resqmed/patient-api/internal/model"
)

// ErrProjectMismatch marks remote failures caused by a bad or missing
// project configuration, as opposed to transient network errors. The
// gateway treats it as a signal to downgrade to fallback mode on
// operations that otherwise tolerate remote errors.
var ErrProjectMismatch = errors.New("remote project not found")

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("record not found")

// DocumentStore is the remote document-store surface the gateway wraps.
type DocumentStore interface {
	GetAccount(ctx context.Context) (*model.User, error)
	CreateAppointment(ctx context.Context, apt *model.Appointment) (*model.Appointment, error)
	ListAppointments(ctx context.Context, userID string) ([]*model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	UpsertPatient(ctx context.Context, p *model.PatientProfile) (*model.PatientProfile, error)
	GetPatient(ctx context.Context, userID string) (*model.PatientProfile, error)
	ListReports(ctx context.Context, userID string) ([]*model.MedicalReport, error)
	CreateReport(ctx context.Context, rec *model.MedicalReport) (*model.MedicalReport, error)
	DeleteReport(ctx context.Context, id string) error
}

// FileStore holds the report binaries.
type FileStore interface {
	Upload(ctx context.Context, key string, mimeType string, data io.Reader) error
	PreviewURL(key string) string
	Delete(ctx context.Context, key string) error
}

// RewardsRepository is the server-owned community-helper ledger.
type RewardsRepository interface {
	ListOpenRequests(ctx context.Context) ([]*model.HelpRequest, error)
	DeleteRequest(ctx context.Context, id string) error
	GetStats(ctx context.Context, userID string) (*model.HelperStats, error)
	ApplyReward(ctx context.Context, userID, requestID string) (*model.HelperStats, error)
}
