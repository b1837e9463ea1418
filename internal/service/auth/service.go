package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/resqmed/patient-api/internal/config"
	"github.com/resqmed/patient-api/internal/gateway"
	"github.com/resqmed/patient-api/internal/model"
	"github.com/resqmed/patient-api/internal/repository/localstore"
	"github.com/resqmed/patient-api/pkg/errors"
)

const keyCredentials = "resqmed_demo_credentials"

// Claims carried in the session token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type credentialRecord struct {
	User model.User `json:"user"`
	Hash string     `json:"hash"`
}

// Service issues and validates session tokens. Account state rides on
// the gateway and the local store, so signup and login keep working in
// fallback mode exactly like every other operation.
type Service struct {
	gw    *gateway.Gateway
	local *localstore.Store
	cfg   config.JWTConfig
}

func NewService(gw *gateway.Gateway, local *localstore.Store, cfg config.JWTConfig) *Service {
	return &Service{gw: gw, local: local, cfg: cfg}
}

// Signup registers the user and opens a session.
func (s *Service) Signup(ctx context.Context, req *model.SignupRequest) (*model.SessionResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal(err)
	}

	user := &model.User{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Email:    req.Email,
		Verified: false,
	}

	creds, err := s.loadCredentials()
	if err != nil {
		return nil, errors.Internal(err)
	}
	if _, exists := creds[req.Email]; exists {
		return nil, errors.BadRequest("an account with this email already exists", nil)
	}
	creds[req.Email] = credentialRecord{User: *user, Hash: string(hash)}
	if err := s.local.Set(keyCredentials, creds); err != nil {
		return nil, errors.Internal(err)
	}

	if err := s.gw.SetDemoSession(user); err != nil {
		return nil, errors.Internal(err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &model.SessionResponse{Token: token, User: user}, nil
}

// Login opens a session. When a stored credential exists the password is
// verified against it; otherwise fallback mode accepts the login and
// records the flag, the way the demo store always did.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.SessionResponse, error) {
	creds, err := s.loadCredentials()
	if err != nil {
		return nil, errors.Internal(err)
	}

	var user *model.User
	if rec, ok := creds[req.Email]; ok {
		if bcrypt.CompareHashAndPassword([]byte(rec.Hash), []byte(req.Password)) != nil {
			return nil, errors.Unauthorized(fmt.Errorf("bad credentials for %s", req.Email))
		}
		u := rec.User
		user = &u
	} else {
		if s.gw.Mode() != gateway.ModeFallback {
			return nil, errors.Unauthorized(fmt.Errorf("unknown user %s", req.Email))
		}
		user = &model.User{
			ID:       uuid.NewString(),
			Name:     "Demo Patient",
			Email:    req.Email,
			Verified: true,
		}
	}

	if err := s.gw.SetDemoSession(user); err != nil {
		return nil, errors.Internal(err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &model.SessionResponse{Token: token, User: user}, nil
}

// Logout clears the local session flag. Remote session teardown is the
// remote store's concern and failures there are not surfaced.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.gw.ClearDemoSession(); err != nil {
		return errors.Internal(err)
	}
	return nil
}

// CurrentUser returns the session user or nil.
func (s *Service) CurrentUser(ctx context.Context) (*model.User, error) {
	return s.gw.GetCurrentUser(ctx)
}

func (s *Service) loadCredentials() (map[string]credentialRecord, error) {
	creds := make(map[string]credentialRecord)
	if _, err := s.local.Get(keyCredentials, &creds); err != nil {
		return nil, err
	}
	return creds, nil
}

func (s *Service) issueToken(user *model.User) (string, error) {
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(s.cfg.ExpiryHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", errors.Internal(err)
	}
	return token, nil
}

// ValidateToken parses and verifies a session token.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, errors.Unauthorized(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.Unauthorized(fmt.Errorf("invalid token"))
	}
	return claims, nil
}
