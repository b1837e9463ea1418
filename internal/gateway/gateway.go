package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/resqmed/patient-api/internal/config"
	"github.com/resqmed/patient-api/internal/model"
	"github.com/resqmed/patient-api/internal/repository"
	"github.com/resqmed/patient-api/internal/repository/localstore"
	"github.com/resqmed/patient-api/internal/repository/remote"
	"github.com/resqmed/patient-api/pkg/logger"
	"github.com/resqmed/patient-api/pkg/metrics"
)

// Mode is the gateway serving mode. It starts as ModeRemote when the
// backend configuration is valid and downgrades to ModeFallback
// permanently on the first qualifying remote failure. It never upgrades
// back within a process lifetime.
type Mode string

const (
	ModeRemote   Mode = "remote"
	ModeFallback Mode = "local-fallback"
)

// Fixed local-store keys. Fallback data written under these keys
// survives restarts.
const (
	keyLoggedIn      = "resqmed_is_logged_in"
	keyDemoUser      = "resqmed_demo_user"
	keyAppointments  = "resqmed_demo_appointments"
	keyReports       = "resqmed_demo_reports"
	keyPatientPrefix = "resqmed_demo_patient_"
)

const placeholderPreviewURL = "https://via.placeholder.com/150?text=Medical+Report"

var defaultDemoUser = model.User{
	ID:       "demo-user-123",
	Name:     "Demo Patient",
	Email:    "demo@resqmed.com",
	Verified: true,
}

var defaultDemoProfile = model.PatientProfile{
	Name:    "Demo Patient",
	Age:     "30",
	Gender:  "Other",
	Contact: "1234567890",
	Address: "123 Demo St",
}

// Gateway fronts the remote document store and degrades to the local
// store when the remote is unconfigured or unreachable. Callers get one
// stable CRUD surface either way: read, create and update operations
// never fail just because the remote is down.
type Gateway struct {
	remote  repository.DocumentStore
	files   repository.FileStore
	local   *localstore.Store
	log     *logger.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	mode Mode
}

// New builds a gateway from backend configuration. A missing endpoint, a
// missing project id, the literal placeholder "undefined", or a remote
// client construction error all put the gateway into fallback mode
// silently and permanently; construction itself never fails on bad
// backend settings.
func New(cfg config.BackendConfig, local *localstore.Store, files repository.FileStore, log *logger.Logger, m *metrics.Metrics) *Gateway {
	g := &Gateway{
		files:   files,
		local:   local,
		log:     log,
		metrics: m,
		mode:    ModeFallback,
	}

	if cfg.Endpoint == "" || cfg.ProjectID == "" || cfg.ProjectID == "undefined" {
		log.Info("gateway running in fallback mode: backend not configured")
		return g
	}

	client, err := remote.NewClient(cfg)
	if err != nil {
		log.Info("gateway running in fallback mode: remote client init failed")
		return g
	}

	g.remote = client
	g.mode = ModeRemote
	return g
}

// NewWithStores wires explicit store implementations. A nil remote means
// fallback from the start. Used by tests and by callers that already
// hold a client.
func NewWithStores(remoteStore repository.DocumentStore, files repository.FileStore, local *localstore.Store, log *logger.Logger, m *metrics.Metrics) *Gateway {
	mode := ModeRemote
	if remoteStore == nil {
		mode = ModeFallback
	}
	return &Gateway{
		remote:  remoteStore,
		files:   files,
		local:   local,
		log:     log,
		metrics: m,
		mode:    mode,
	}
}

// Mode reports the current serving mode.
func (g *Gateway) Mode() Mode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mode
}

func (g *Gateway) inFallback() bool {
	return g.Mode() == ModeFallback
}

// downgrade flips the gateway into fallback mode. One-way.
func (g *Gateway) downgrade(op string, err error) {
	g.mu.Lock()
	already := g.mode == ModeFallback
	g.mode = ModeFallback
	g.mu.Unlock()

	if already {
		return
	}
	g.log.Error(err, fmt.Sprintf("remote %s failed, switching to fallback mode", op))
	if g.metrics != nil {
		g.metrics.GatewayFallbacks.Inc()
		g.metrics.GatewayMode.Set(1)
	}
}

func (g *Gateway) observe(op string, start time.Time) {
	if g.metrics == nil {
		return
	}
	g.metrics.GatewayOperations.WithLabelValues(op, string(g.Mode())).Inc()
	g.metrics.GatewayOpLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (g *Gateway) remoteError(op string, err error) {
	g.log.Error(err, fmt.Sprintf("remote %s failed", op))
	if g.metrics != nil {
		g.metrics.GatewayRemoteErrors.WithLabelValues(op).Inc()
	}
}

// --- Account ---

// GetCurrentUser returns the signed-in user or nil. A generic remote
// failure reads as signed-out; only a project-mismatch error downgrades
// to fallback and re-answers from the local store.
func (g *Gateway) GetCurrentUser(ctx context.Context) (*model.User, error) {
	defer g.observe("getCurrentUser", time.Now())

	if g.inFallback() {
		return g.localCurrentUser()
	}

	user, err := g.remote.GetAccount(ctx)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, repository.ErrProjectMismatch) {
		g.downgrade("getCurrentUser", err)
		return g.localCurrentUser()
	}
	g.remoteError("getCurrentUser", err)
	return nil, nil
}

func (g *Gateway) localCurrentUser() (*model.User, error) {
	var loggedIn bool
	if _, err := g.local.Get(keyLoggedIn, &loggedIn); err != nil {
		return nil, err
	}
	if !loggedIn {
		return nil, nil
	}

	var user model.User
	found, err := g.local.Get(keyDemoUser, &user)
	if err != nil {
		return nil, err
	}
	if !found {
		u := defaultDemoUser
		return &u, nil
	}
	return &user, nil
}

// SetDemoSession stores the local login flag and user snapshot. The auth
// service uses it to complete signup/login while in fallback mode.
func (g *Gateway) SetDemoSession(user *model.User) error {
	if err := g.local.Set(keyDemoUser, user); err != nil {
		return err
	}
	return g.local.Set(keyLoggedIn, true)
}

// ClearDemoSession drops the local login flag.
func (g *Gateway) ClearDemoSession() error {
	return g.local.Set(keyLoggedIn, false)
}

// --- Appointments ---

// CreateAppointment persists a booking. On a remote failure the gateway
// downgrades and re-issues the create against the local store exactly
// once, so the caller still gets a created record on the same call.
func (g *Gateway) CreateAppointment(ctx context.Context, apt *model.Appointment) (*model.Appointment, error) {
	defer g.observe("createAppointment", time.Now())

	if apt.Status == "" {
		apt.Status = model.AppointmentStatusScheduled
	}

	if !g.inFallback() {
		created, err := g.remote.CreateAppointment(ctx, apt)
		if err == nil {
			return created, nil
		}
		g.downgrade("createAppointment", err)
	}

	return g.localCreateAppointment(apt)
}

func (g *Gateway) localCreateAppointment(apt *model.Appointment) (*model.Appointment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	apts, err := g.loadAppointments()
	if err != nil {
		return nil, err
	}

	created := *apt
	created.ID = uuid.NewString()
	apts = append(apts, &created)

	if err := g.local.Set(keyAppointments, apts); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetAppointments lists the user's bookings, remote-filtered when the
// remote answers and client-filtered from the local list otherwise.
func (g *Gateway) GetAppointments(ctx context.Context, userID string) ([]*model.Appointment, error) {
	defer g.observe("getAppointments", time.Now())

	if !g.inFallback() {
		apts, err := g.remote.ListAppointments(ctx, userID)
		if err == nil {
			return apts, nil
		}
		g.downgrade("getAppointments", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	apts, err := g.loadAppointments()
	if err != nil {
		return nil, err
	}

	filtered := make([]*model.Appointment, 0, len(apts))
	for _, a := range apts {
		if a.UserID == userID {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// DeleteAppointment removes a booking. Remote failures are terminal:
// they report false without switching mode or retrying.
func (g *Gateway) DeleteAppointment(ctx context.Context, id string) bool {
	defer g.observe("deleteAppointment", time.Now())

	if g.inFallback() {
		g.mu.Lock()
		defer g.mu.Unlock()

		apts, err := g.loadAppointments()
		if err != nil {
			return false
		}
		kept := make([]*model.Appointment, 0, len(apts))
		for _, a := range apts {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		if err := g.local.Set(keyAppointments, kept); err != nil {
			return false
		}
		return true
	}

	if err := g.remote.DeleteAppointment(ctx, id); err != nil {
		g.remoteError("deleteAppointment", err)
		return false
	}
	return true
}

// loadAppointments reads the local list, seeding the two canned demo
// appointments the first time around. Callers hold g.mu.
func (g *Gateway) loadAppointments() ([]*model.Appointment, error) {
	var apts []*model.Appointment
	found, err := g.local.Get(keyAppointments, &apts)
	if err != nil {
		return nil, err
	}
	if !found {
		apts = seedAppointments()
		if err := g.local.Set(keyAppointments, apts); err != nil {
			return nil, err
		}
	}
	return apts, nil
}

func seedAppointments() []*model.Appointment {
	now := time.Now()
	return []*model.Appointment{
		{
			ID:           "1",
			UserID:       defaultDemoUser.ID,
			HospitalID:   "h1",
			HospitalName: "City General Hospital",
			DateTime:     now.Add(24 * time.Hour),
			Description:  "Regular checkup",
			Status:       model.AppointmentStatusScheduled,
		},
		{
			ID:           "2",
			UserID:       defaultDemoUser.ID,
			HospitalID:   "h2",
			HospitalName: "Sunrise Medical Center",
			DateTime:     now.Add(-24 * time.Hour),
			Description:  "Follow-up",
			Status:       model.AppointmentStatusCompleted,
		},
	}
}

// --- Patient profile ---

// UpdatePatientInfo upserts the profile, retrying once against the local
// store on remote failure.
func (g *Gateway) UpdatePatientInfo(ctx context.Context, p *model.PatientProfile) (*model.PatientProfile, error) {
	defer g.observe("updatePatientInfo", time.Now())

	if !g.inFallback() {
		updated, err := g.remote.UpsertPatient(ctx, p)
		if err == nil {
			return updated, nil
		}
		g.downgrade("updatePatientInfo", err)
	}

	if err := g.local.Set(keyPatientPrefix+p.UserID, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPatientInfo returns the stored profile, or a canned default when
// fallback has nothing for this user yet.
func (g *Gateway) GetPatientInfo(ctx context.Context, userID string) (*model.PatientProfile, error) {
	defer g.observe("getPatientInfo", time.Now())

	if !g.inFallback() {
		p, err := g.remote.GetPatient(ctx, userID)
		if err == nil {
			return p, nil
		}
		g.downgrade("getPatientInfo", err)
	}

	var p model.PatientProfile
	found, err := g.local.Get(keyPatientPrefix+userID, &p)
	if err != nil {
		return nil, err
	}
	if !found {
		def := defaultDemoProfile
		def.UserID = userID
		return &def, nil
	}
	return &p, nil
}

// --- Medical reports ---

// UploadMedicalReport stores the report binary and its metadata record.
// Remote failures are terminal (no retry, no mode switch); the caller
// sees an explicit error. Without a file store the metadata record is
// still written; previews then serve the placeholder.
func (g *Gateway) UploadMedicalReport(ctx context.Context, userID, fileName, mimeType string, size int64, data io.Reader) (*model.MedicalReport, error) {
	defer g.observe("uploadMedicalReport", time.Now())

	rec := &model.MedicalReport{
		UserID:     userID,
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  size,
		UploadedAt: time.Now(),
	}

	if g.inFallback() {
		rec.ID = fmt.Sprintf("demo-file-%d", time.Now().UnixMilli())
		g.mu.Lock()
		defer g.mu.Unlock()

		var reports []*model.MedicalReport
		if _, err := g.local.Get(keyReports, &reports); err != nil {
			return nil, err
		}
		reports = append(reports, rec)
		if err := g.local.Set(keyReports, reports); err != nil {
			return nil, err
		}
		return rec, nil
	}

	rec.ID = uuid.NewString()
	if g.files != nil {
		if err := g.files.Upload(ctx, rec.ID, mimeType, data); err != nil {
			g.remoteError("uploadMedicalReport", err)
			return nil, err
		}
	}
	created, err := g.remote.CreateReport(ctx, rec)
	if err != nil {
		g.remoteError("uploadMedicalReport", err)
		return nil, err
	}
	return created, nil
}

// ListMedicalReports lists the user's report records, retrying once in
// fallback mode on remote failure.
func (g *Gateway) ListMedicalReports(ctx context.Context, userID string) ([]*model.MedicalReport, error) {
	defer g.observe("listMedicalReports", time.Now())

	if !g.inFallback() {
		reports, err := g.remote.ListReports(ctx, userID)
		if err == nil {
			return reports, nil
		}
		g.downgrade("listMedicalReports", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var reports []*model.MedicalReport
	if _, err := g.local.Get(keyReports, &reports); err != nil {
		return nil, err
	}
	filtered := make([]*model.MedicalReport, 0, len(reports))
	for _, r := range reports {
		if r.UserID == userID {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// GetMedicalReportPreview returns a preview URL for the report binary.
// Synchronous in both modes.
func (g *Gateway) GetMedicalReportPreview(fileID string) string {
	if g.inFallback() || g.files == nil {
		return placeholderPreviewURL
	}
	return g.files.PreviewURL(fileID)
}

// DeleteMedicalReport removes the binary and its record. True in
// fallback unconditionally; false on any remote failure, never an error
// escape.
func (g *Gateway) DeleteMedicalReport(ctx context.Context, id string) bool {
	defer g.observe("deleteMedicalReport", time.Now())

	if g.inFallback() {
		return true
	}

	if g.files != nil {
		if err := g.files.Delete(ctx, id); err != nil {
			g.remoteError("deleteMedicalReport", err)
			return false
		}
	}
	if err := g.remote.DeleteReport(ctx, id); err != nil {
		g.remoteError("deleteMedicalReport", err)
		return false
	}
	return true
}
