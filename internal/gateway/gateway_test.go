package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resqmed/patient-api/internal/config"
	"github.com/resqmed/patient-api/internal/model"
	"github.com/resqmed/patient-api/internal/repository"
	"github.com/resqmed/patient-api/internal/repository/localstore"
	"github.com/resqmed/patient-api/pkg/logger"
)

// fakeRemote counts calls and fails on demand.
type fakeRemote struct {
	err   error
	calls map[string]int
	apts  []*model.Appointment
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{calls: make(map[string]int)}
}

func (f *fakeRemote) hit(op string) error {
	f.calls[op]++
	return f.err
}

func (f *fakeRemote) GetAccount(ctx context.Context) (*model.User, error) {
	if err := f.hit("getAccount"); err != nil {
		return nil, err
	}
	return &model.User{ID: "remote-user", Name: "Remote User"}, nil
}

func (f *fakeRemote) CreateAppointment(ctx context.Context, apt *model.Appointment) (*model.Appointment, error) {
	if err := f.hit("createAppointment"); err != nil {
		return nil, err
	}
	created := *apt
	created.ID = fmt.Sprintf("remote-%d", len(f.apts)+1)
	f.apts = append(f.apts, &created)
	return &created, nil
}

func (f *fakeRemote) ListAppointments(ctx context.Context, userID string) ([]*model.Appointment, error) {
	if err := f.hit("listAppointments"); err != nil {
		return nil, err
	}
	var out []*model.Appointment
	for _, a := range f.apts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRemote) DeleteAppointment(ctx context.Context, id string) error {
	return f.hit("deleteAppointment")
}

func (f *fakeRemote) UpsertPatient(ctx context.Context, p *model.PatientProfile) (*model.PatientProfile, error) {
	if err := f.hit("upsertPatient"); err != nil {
		return nil, err
	}
	return p, nil
}

func (f *fakeRemote) GetPatient(ctx context.Context, userID string) (*model.PatientProfile, error) {
	if err := f.hit("getPatient"); err != nil {
		return nil, err
	}
	return &model.PatientProfile{UserID: userID, Name: "Remote Patient"}, nil
}

func (f *fakeRemote) ListReports(ctx context.Context, userID string) ([]*model.MedicalReport, error) {
	if err := f.hit("listReports"); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeRemote) CreateReport(ctx context.Context, rec *model.MedicalReport) (*model.MedicalReport, error) {
	if err := f.hit("createReport"); err != nil {
		return nil, err
	}
	return rec, nil
}

func (f *fakeRemote) DeleteReport(ctx context.Context, id string) error {
	return f.hit("deleteReport")
}

type fakeFiles struct {
	err error
}

func (f *fakeFiles) Upload(ctx context.Context, key, mimeType string, data io.Reader) error {
	return f.err
}

func (f *fakeFiles) PreviewURL(key string) string { return "https://files.example.com/" + key }

func (f *fakeFiles) Delete(ctx context.Context, key string) error { return f.err }

func newTestStore(t *testing.T) *localstore.Store {
	t.Helper()
	store, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	return store
}

func newAppointment(userID string) *model.Appointment {
	return &model.Appointment{
		UserID:       userID,
		HospitalID:   "h9",
		HospitalName: "Test Hospital",
		DateTime:     time.Date(2099, 1, 1, 10, 0, 0, 0, time.UTC),
		Description:  "checkup",
	}
}

func TestNewEntersFallbackOnPlaceholderProjectID(t *testing.T) {
	cfg := config.BackendConfig{Endpoint: "https://backend.example.com", ProjectID: "undefined"}
	gw := New(cfg, newTestStore(t), nil, logger.Nop(), nil)
	assert.Equal(t, ModeFallback, gw.Mode())
}

func TestNewEntersFallbackOnMissingConfig(t *testing.T) {
	gw := New(config.BackendConfig{}, newTestStore(t), nil, logger.Nop(), nil)
	assert.Equal(t, ModeFallback, gw.Mode())
}

func TestFallbackPermanence(t *testing.T) {
	remote := newFakeRemote()
	gw := NewWithStores(remote, nil, newTestStore(t), logger.Nop(), nil)
	ctx := context.Background()

	remote.err = errors.New("connection refused")
	_, err := gw.CreateAppointment(ctx, newAppointment("u1"))
	require.NoError(t, err)
	assert.Equal(t, ModeFallback, gw.Mode())

	// The remote recovers, but the gateway must not go back to it.
	remote.err = nil
	_, err = gw.GetAppointments(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, remote.calls["listAppointments"])
	assert.Equal(t, ModeFallback, gw.Mode())
}

func TestCreateAppointmentRetriesOnceWithoutDoublePersistence(t *testing.T) {
	remote := newFakeRemote()
	remote.err = errors.New("boom")
	gw := NewWithStores(remote, nil, newTestStore(t), logger.Nop(), nil)
	ctx := context.Background()

	created, err := gw.CreateAppointment(ctx, newAppointment("u1"))
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.AppointmentStatusScheduled, created.Status)
	assert.Equal(t, 1, remote.calls["createAppointment"])

	apts, err := gw.GetAppointments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, apts, 1)
	assert.Equal(t, created.ID, apts[0].ID)
}

func TestGetAppointmentsFiltersByUserInStoredOrder(t *testing.T) {
	gw := NewWithStores(nil, nil, newTestStore(t), logger.Nop(), nil)
	ctx := context.Background()

	first, err := gw.CreateAppointment(ctx, newAppointment("u1"))
	require.NoError(t, err)
	_, err = gw.CreateAppointment(ctx, newAppointment("u2"))
	require.NoError(t, err)
	second, err := gw.CreateAppointment(ctx, newAppointment("u1"))
	require.NoError(t, err)

	apts, err := gw.GetAppointments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, apts, 2)
	assert.Equal(t, first.ID, apts[0].ID)
	assert.Equal(t, second.ID, apts[1].ID)
}

func TestSeededDemoAppointmentsBelongToDemoUser(t *testing.T) {
	gw := NewWithStores(nil, nil, newTestStore(t), logger.Nop(), nil)

	apts, err := gw.GetAppointments(context.Background(), "demo-user-123")
	require.NoError(t, err)
	require.Len(t, apts, 2)
	assert.Equal(t, "City General Hospital", apts[0].HospitalName)
	assert.Equal(t, "Sunrise Medical Center", apts[1].HospitalName)
}

func TestDeleteAppointmentIdempotentInFallback(t *testing.T) {
	gw := NewWithStores(nil, nil, newTestStore(t), logger.Nop(), nil)
	ctx := context.Background()

	created, err := gw.CreateAppointment(ctx, newAppointment("u1"))
	require.NoError(t, err)

	assert.True(t, gw.DeleteAppointment(ctx, created.ID))
	assert.True(t, gw.DeleteAppointment(ctx, created.ID))
}

func TestDeleteAppointmentRemoteFailureIsTerminal(t *testing.T) {
	remote := newFakeRemote()
	remote.err = repository.ErrNotFound
	gw := NewWithStores(remote, nil, newTestStore(t), logger.Nop(), nil)

	assert.False(t, gw.DeleteAppointment(context.Background(), "missing"))
	// No retry, no mode switch.
	assert.Equal(t, 1, remote.calls["deleteAppointment"])
	assert.Equal(t, ModeRemote, gw.Mode())
}

func TestGetCurrentUserGenericFailureReadsAsSignedOut(t *testing.T) {
	remote := newFakeRemote()
	remote.err = errors.New("timeout")
	gw := NewWithStores(remote, nil, newTestStore(t), logger.Nop(), nil)

	user, err := gw.GetCurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Equal(t, ModeRemote, gw.Mode())
}

func TestGetCurrentUserProjectMismatchSwitchesToFallback(t *testing.T) {
	remote := newFakeRemote()
	remote.err = fmt.Errorf("GET /v1/account: %w", repository.ErrProjectMismatch)
	gw := NewWithStores(remote, nil, newTestStore(t), logger.Nop(), nil)

	require.NoError(t, gw.SetDemoSession(&model.User{ID: "u1", Name: "Asha", Email: "asha@example.com"}))

	user, err := gw.GetCurrentUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, ModeFallback, gw.Mode())
}

func TestGetCurrentUserFallbackSignedOut(t *testing.T) {
	gw := NewWithStores(nil, nil, newTestStore(t), logger.Nop(), nil)

	user, err := gw.GetCurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestPatientInfoRoundTripInFallback(t *testing.T) {
	gw := NewWithStores(nil, nil, newTestStore(t), logger.Nop(), nil)
	ctx := context.Background()

	// Unknown user gets the canned default.
	p, err := gw.GetPatientInfo(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Demo Patient", p.Name)

	updated, err := gw.UpdatePatientInfo(ctx, &model.PatientProfile{
		UserID: "u1", Name: "Asha Verma", Age: "41", Gender: "Female",
		Contact: "9999999999", Address: "Sector 12",
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha Verma", updated.Name)

	p, err = gw.GetPatientInfo(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Verma", p.Name)
}

func TestPatientInfoRemoteFailureRetriesInFallback(t *testing.T) {
	remote := newFakeRemote()
	remote.err = errors.New("boom")
	gw := NewWithStores(remote, nil, newTestStore(t), logger.Nop(), nil)

	p, err := gw.GetPatientInfo(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, ModeFallback, gw.Mode())
	assert.Equal(t, 1, remote.calls["getPatient"])
}

func TestUploadMedicalReportTerminalOnRemoteFailure(t *testing.T) {
	remote := newFakeRemote()
	files := &fakeFiles{err: errors.New("bucket down")}
	gw := NewWithStores(remote, files, newTestStore(t), logger.Nop(), nil)

	_, err := gw.UploadMedicalReport(context.Background(), "u1", "scan.pdf", "application/pdf", 10, nil)
	require.Error(t, err)
	// Terminal: no mode switch.
	assert.Equal(t, ModeRemote, gw.Mode())
}

func TestUploadMedicalReportFallbackSynthesizesRecord(t *testing.T) {
	gw := NewWithStores(nil, nil, newTestStore(t), logger.Nop(), nil)
	ctx := context.Background()

	rec, err := gw.UploadMedicalReport(ctx, "u1", "scan.pdf", "application/pdf", 10, nil)
	require.NoError(t, err)
	assert.Contains(t, rec.ID, "demo-file-")

	reports, err := gw.ListMedicalReports(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, rec.ID, reports[0].ID)
}

func TestUploadMedicalReportRemoteWithoutFileStore(t *testing.T) {
	remote := newFakeRemote()
	gw := NewWithStores(remote, nil, newTestStore(t), logger.Nop(), nil)

	rec, err := gw.UploadMedicalReport(context.Background(), "u1", "scan.pdf", "application/pdf", 10, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 1, remote.calls["createReport"])
	assert.Equal(t, ModeRemote, gw.Mode())

	// Binary never landed anywhere, so previews fall back to the
	// placeholder.
	assert.Equal(t, placeholderPreviewURL, gw.GetMedicalReportPreview(rec.ID))
}

func TestDeleteMedicalReportRemoteWithoutFileStore(t *testing.T) {
	remote := newFakeRemote()
	gw := NewWithStores(remote, nil, newTestStore(t), logger.Nop(), nil)

	assert.True(t, gw.DeleteMedicalReport(context.Background(), "rec-1"))
	assert.Equal(t, 1, remote.calls["deleteReport"])

	remote.err = repository.ErrNotFound
	assert.False(t, gw.DeleteMedicalReport(context.Background(), "rec-1"))
	assert.Equal(t, ModeRemote, gw.Mode())
}

func TestMedicalReportPreviewPlaceholderInFallback(t *testing.T) {
	gw := NewWithStores(nil, nil, newTestStore(t), logger.Nop(), nil)
	assert.Equal(t, placeholderPreviewURL, gw.GetMedicalReportPreview("any"))
}

func TestDeleteMedicalReportAlwaysTrueInFallback(t *testing.T) {
	gw := NewWithStores(nil, nil, newTestStore(t), logger.Nop(), nil)
	assert.True(t, gw.DeleteMedicalReport(context.Background(), "whatever"))
}

// End to end: invalid project id forces fallback, then the booking
// round trip works entirely against the local store.
func TestFallbackEndToEnd(t *testing.T) {
	cfg := config.BackendConfig{Endpoint: "https://backend.example.com", ProjectID: "undefined"}
	gw := New(cfg, newTestStore(t), nil, logger.Nop(), nil)
	require.Equal(t, ModeFallback, gw.Mode())
	ctx := context.Background()

	created, err := gw.CreateAppointment(ctx, &model.Appointment{
		UserID:       "u1",
		HospitalName: "X",
		DateTime:     time.Date(2099, 1, 1, 10, 0, 0, 0, time.UTC),
		Description:  "checkup",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.AppointmentStatusScheduled, created.Status)

	apts, err := gw.GetAppointments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, apts, 1)
	assert.Equal(t, created.ID, apts[0].ID)

	assert.True(t, gw.DeleteAppointment(ctx, created.ID))

	apts, err = gw.GetAppointments(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, apts)
}
