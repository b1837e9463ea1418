package report

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resqmed/patient-api/internal/gateway"
	"github.com/resqmed/patient-api/internal/repository/localstore"
	apperrors "github.com/resqmed/patient-api/pkg/errors"
	"github.com/resqmed/patient-api/pkg/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	return NewService(gateway.NewWithStores(nil, nil, store, logger.Nop(), nil))
}

func TestUploadAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Upload(ctx, "u1", "scan.pdf", "application/pdf", 128, strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "scan.pdf", rec.FileName)

	reports, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, rec.ID, reports[0].ID)

	// Other users never see it.
	reports, err = svc.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Upload(context.Background(), "u1", "scan.pdf", "application/pdf", 0, strings.NewReader(""))
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Upload(context.Background(), "u1", "scan.pdf", "application/pdf", MaxReportSize+1, nil)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestPreviewURLPlaceholderWithoutBucket(t *testing.T) {
	svc := newTestService(t)
	assert.Contains(t, svc.PreviewURL("any"), "placeholder")
}
