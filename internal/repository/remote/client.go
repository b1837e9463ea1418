package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/resqmed/patient-api/internal/config"
	"github.com/resqmed/patient-api/internal/model"
	"github.com/resqmed/patient-api/internal/repository"
)

const projectHeader = "X-Project-Id"

// Client talks to the hosted document store over its REST API. Documents
// live in collections under a database; the project id rides along as a
// header on every request.
type Client struct {
	http      *http.Client
	endpoint  string
	projectID string
	cfg       config.BackendConfig
}

func NewClient(cfg config.BackendConfig) (*Client, error) {
	base, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid backend endpoint: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend endpoint %q", cfg.Endpoint)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		http:      &http.Client{Timeout: timeout},
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		projectID: cfg.ProjectID,
		cfg:       cfg,
	}, nil
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(projectHeader, c.projectID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		data, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(data, &apiErr)
		if resp.StatusCode == http.StatusNotFound && strings.Contains(strings.ToLower(apiErr.Message), "project") {
			return fmt.Errorf("%s %s: %w", method, path, repository.ErrProjectMismatch)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%s %s: %w", method, path, repository.ErrProjectMismatch)
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s %s: %w", method, path, repository.ErrNotFound)
		}
		return fmt.Errorf("%s %s: remote error %d: %s", method, path, resp.StatusCode, apiErr.Message)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) documentsPath(collection string) string {
	return fmt.Sprintf("/v1/databases/%s/collections/%s/documents", c.cfg.DatabaseID, collection)
}

func (c *Client) GetAccount(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/v1/account", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CreateAppointment(ctx context.Context, apt *model.Appointment) (*model.Appointment, error) {
	var created model.Appointment
	if err := c.do(ctx, http.MethodPost, c.documentsPath(c.cfg.AppointmentsCollection), apt, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ListAppointments(ctx context.Context, userID string) ([]*model.Appointment, error) {
	path := c.documentsPath(c.cfg.AppointmentsCollection) + "?query=" + url.QueryEscape(equalQuery("userId", userID))
	var env struct {
		Documents []*model.Appointment `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return env.Documents, nil
}

func (c *Client) DeleteAppointment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.documentsPath(c.cfg.AppointmentsCollection)+"/"+id, nil, nil)
}

func (c *Client) UpsertPatient(ctx context.Context, p *model.PatientProfile) (*model.PatientProfile, error) {
	var updated model.PatientProfile
	path := c.documentsPath(c.cfg.PatientsCollection) + "/" + p.UserID
	if err := c.do(ctx, http.MethodPut, path, p, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) GetPatient(ctx context.Context, userID string) (*model.PatientProfile, error) {
	var p model.PatientProfile
	path := c.documentsPath(c.cfg.PatientsCollection) + "/" + userID
	if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListReports(ctx context.Context, userID string) ([]*model.MedicalReport, error) {
	path := c.documentsPath(c.cfg.ReportsCollection) + "?query=" + url.QueryEscape(equalQuery("userId", userID))
	var env struct {
		Documents []*model.MedicalReport `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return env.Documents, nil
}

func (c *Client) CreateReport(ctx context.Context, rec *model.MedicalReport) (*model.MedicalReport, error) {
	var created model.MedicalReport
	if err := c.do(ctx, http.MethodPost, c.documentsPath(c.cfg.ReportsCollection), rec, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteReport(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.documentsPath(c.cfg.ReportsCollection)+"/"+id, nil, nil)
}

func equalQuery(field, value string) string {
	q, _ := json.Marshal(map[string]interface{}{
		"method":    "equal",
		"attribute": field,
		"values":    []string{value},
	})
	return string(q)
}
