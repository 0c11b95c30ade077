package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/impresiones-magicas/storefront/internal/clientstate"
	"github.com/impresiones-magicas/storefront/pkg/enums"
	pkgerrors "github.com/impresiones-magicas/storefront/pkg/errors"
	"github.com/impresiones-magicas/storefront/pkg/logger"
)

// State is the lifecycle position of one browser session.
type State string

const (
	StateLoading       State = "loading"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// nullTokenSentinel is the corrupt value older clients persisted when they
// stringified a missing token.
const nullTokenSentinel = "null"

// User is the backend's account snapshot persisted alongside the token.
type User struct {
	ID     string         `json:"id"`
	Email  string         `json:"email"`
	Name   string         `json:"name,omitempty"`
	Role   enums.UserRole `json:"role"`
	Avatar string         `json:"avatar,omitempty"`
}

// Session is one browser session's resolved auth state.
type Session struct {
	State State
	Token string
	User  *User
}

func (s Session) IsAuthenticated() bool {
	return s.State == StateAuthenticated
}

func (s Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.User != nil && s.User.Role == enums.RoleAdmin
}

type backendClient interface {
	Post(ctx context.Context, path string, body, dest any) error
}

// Service owns the loading → authenticated | anonymous machine for every
// browser session, persisting token and user through the client-state store.
type Service interface {
	Restore(ctx context.Context, sessionID string) (Session, error)
	Login(ctx context.Context, sessionID, email, password string) (Session, error)
	Register(ctx context.Context, sessionID, name, email, password string) (Session, error)
	Logout(ctx context.Context, sessionID string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	Current(ctx context.Context, sessionID string) (Session, error)
	Token(ctx context.Context, sessionID string) string
	HandleUnauthorized(ctx context.Context)
}

type service struct {
	client backendClient
	state  clientstate.Store
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the session store.
func NewService(client backendClient, state clientstate.Store, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("backend client required")
	}
	if state == nil {
		return nil, fmt.Errorf("client state store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		client: client,
		state:  state,
		logg:   logg,
		now:    time.Now,
	}, nil
}

type credentialsResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// Restore resolves the persisted session. Corrupt state (unparseable user,
// empty or literal-"null" token, expired JWT) clears storage and lands on
// anonymous rather than failing.
func (s *service) Restore(ctx context.Context, sessionID string) (Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Session{State: StateAnonymous}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	token, err := s.state.Get(ctx, sessionID, clientstate.KeyToken)
	if errors.Is(err, clientstate.ErrNotFound) {
		return Session{State: StateAnonymous}, nil
	}
	if err != nil {
		return Session{State: StateLoading}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read persisted token")
	}

	rawUser, err := s.state.Get(ctx, sessionID, clientstate.KeyUser)
	if err != nil && !errors.Is(err, clientstate.ErrNotFound) {
		return Session{State: StateLoading}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read persisted user")
	}

	user, ok := s.validateIntegrity(ctx, token, rawUser)
	if !ok {
		s.teardown(ctx, sessionID)
		return Session{State: StateAnonymous}, nil
	}

	return Session{State: StateAuthenticated, Token: token, User: user}, nil
}

// validateIntegrity applies the structural checks on persisted credentials.
func (s *service) validateIntegrity(ctx context.Context, token, rawUser string) (*User, bool) {
	if strings.TrimSpace(token) == "" || token == nullTokenSentinel {
		s.logg.Warn(ctx, "session token corrupt, clearing")
		return nil, false
	}
	if rawUser == "" || rawUser == nullTokenSentinel {
		s.logg.Warn(ctx, "session user missing, clearing")
		return nil, false
	}
	var user User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user.ID == "" {
		s.logg.Warn(ctx, "session user unparseable, clearing")
		return nil, false
	}
	if expired, err := tokenExpired(token, s.now()); err == nil && expired {
		s.logg.Warn(ctx, "session token expired, clearing")
		return nil, false
	}
	return &user, true
}

// tokenExpired inspects a JWT exp claim without verifying the signature; the
// backend remains the authority. Opaque tokens pass through untouched.
func tokenExpired(token string, now time.Time) (bool, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, err
	}
	return exp.Before(now), nil
}

func (s *service) Login(ctx context.Context, sessionID, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Session{State: StateAnonymous}, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	var creds credentialsResponse
	payload := map[string]string{"email": email, "password": password}
	if err := s.client.Post(ctx, "/auth/login", payload, &creds); err != nil {
		return Session{State: StateAnonymous}, err
	}
	return s.persistCredentials(ctx, sessionID, creds)
}

func (s *service) Register(ctx context.Context, sessionID, name, email, password string) (Session, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return Session{State: StateAnonymous}, pkgerrors.New(pkgerrors.CodeValidation, "name, email and password are required")
	}

	payload := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     string(enums.RoleCustomer),
	}
	if err := s.client.Post(ctx, "/auth/register", payload, nil); err != nil {
		return Session{State: StateAnonymous}, err
	}
	// Registration succeeds with a bare account; the backend expects a
	// follow-up login for credentials.
	return s.Login(ctx, sessionID, email, password)
}

func (s *service) persistCredentials(ctx context.Context, sessionID string, creds credentialsResponse) (Session, error) {
	if strings.TrimSpace(creds.AccessToken) == "" || creds.User.ID == "" {
		return Session{State: StateAnonymous}, pkgerrors.New(pkgerrors.CodeUpstream, "backend returned incomplete credentials")
	}

	rawUser, err := json.Marshal(creds.User)
	if err != nil {
		return Session{State: StateAnonymous}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode user snapshot")
	}
	if err := s.state.Set(ctx, sessionID, clientstate.KeyToken, creds.AccessToken); err != nil {
		return Session{State: StateAnonymous}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist token")
	}
	if err := s.state.Set(ctx, sessionID, clientstate.KeyUser, string(rawUser)); err != nil {
		return Session{State: StateAnonymous}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist user")
	}

	user := creds.User
	ctx = s.logg.WithUserID(ctx, user.ID)
	s.logg.Info(ctx, "session authenticated")
	return Session{State: StateAuthenticated, Token: creds.AccessToken, User: &user}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	s.teardown(ctx, sessionID)
	return nil
}

func (s *service) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	return s.client.Post(ctx, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

func (s *service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(code) != 6 || strings.Trim(code, "0123456789") != "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reset code must be 6 digits")
	}
	if strings.TrimSpace(email) == "" || newPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email and new password are required")
	}
	payload := map[string]string{"email": email, "code": code, "password": newPassword}
	return s.client.Post(ctx, "/auth/reset-password", payload, nil)
}

func (s *service) Current(ctx context.Context, sessionID string) (Session, error) {
	return s.Restore(ctx, sessionID)
}

// Token is the backend client's TokenSource: it never errors, an unreadable
// store just means the request goes out anonymous.
func (s *service) Token(ctx context.Context, sessionID string) string {
	if strings.TrimSpace(sessionID) == "" {
		return ""
	}
	token, err := s.state.Get(ctx, sessionID, clientstate.KeyToken)
	if err != nil || token == nullTokenSentinel {
		return ""
	}
	return token
}

// HandleUnauthorized is wired as the backend client's 401 hook. The session id
// travels on the context stamped by the browser-session middleware.
func (s *service) HandleUnauthorized(ctx context.Context) {
	sessionID := clientstate.SessionIDFromContext(ctx)
	if sessionID == "" {
		s.logg.Warn(ctx, "unauthorized signal without session context")
		return
	}
	s.logg.Info(ctx, "unauthorized response, tearing down session")
	s.teardown(ctx, sessionID)
}

func (s *service) teardown(ctx context.Context, sessionID string) {
	if err := s.state.Delete(ctx, sessionID, clientstate.KeyToken, clientstate.KeyUser); err != nil {
		s.logg.Error(ctx, "failed to clear session state", err)
	}
}
