package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resqmed/patient-api/internal/config"
	"github.com/resqmed/patient-api/internal/gateway"
	"github.com/resqmed/patient-api/internal/model"
	"github.com/resqmed/patient-api/internal/repository/localstore"
	"github.com/resqmed/patient-api/pkg/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	gw := gateway.NewWithStores(nil, nil, store, logger.Nop(), nil)
	return NewService(gw, store, config.JWTConfig{Secret: "test-secret", ExpiryHours: 1})
}

func TestSignupOpensSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Signup(ctx, &model.SignupRequest{
		Name: "Asha Verma", Email: "asha@example.com", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "asha@example.com", sess.User.Email)

	user, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, sess.User.ID, user.ID)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	req := &model.SignupRequest{Name: "Asha", Email: "asha@example.com", Password: "s3cret-pass"}
	_, err := svc.Signup(ctx, req)
	require.NoError(t, err)

	_, err = svc.Signup(ctx, req)
	assert.Error(t, err)
}

func TestLoginVerifiesStoredPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, &model.SignupRequest{
		Name: "Asha", Email: "asha@example.com", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx))

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "asha@example.com", Password: "wrong"})
	assert.Error(t, err)

	sess, err := svc.Login(ctx, &model.LoginRequest{Email: "asha@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", sess.User.Email)
}

func TestLoginUnknownEmailInFallbackIsPermissive(t *testing.T) {
	svc := newTestService(t)

	sess, err := svc.Login(context.Background(), &model.LoginRequest{
		Email: "walkin@example.com", Password: "anything",
	})
	require.NoError(t, err)
	assert.Equal(t, "walkin@example.com", sess.User.Email)
	assert.True(t, sess.User.Verified)
}

func TestLogoutEndsSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, &model.SignupRequest{
		Name: "Asha", Email: "asha@example.com", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx))

	user, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Signup(ctx, &model.SignupRequest{
		Name: "Asha", Email: "asha@example.com", Password: "s3cret-pass",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.UserID)
	assert.Equal(t, "asha@example.com", claims.Email)
}

func TestValidateTokenRejectsForgedSignature(t *testing.T) {
	svc := newTestService(t)
	other := newTestService(t)
	ctx := context.Background()

	sess, err := other.Signup(ctx, &model.SignupRequest{
		Name: "Asha", Email: "asha@example.com", Password: "s3cret-pass",
	})
	require.NoError(t, err)

	// Same shape, different secret.
	other.cfg.Secret = "other-secret"
	forged, err := other.issueToken(sess.User)
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, forged)
	assert.Error(t, err)
}
