package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnauthenticated covers every way a token can fail to resolve to a live session.
var ErrUnauthenticated = errors.New("unauthenticated")

// SessionStore is the server-side session registry.
type SessionStore interface {
	Create(ctx context.Context, userID uuid.UUID) (string, error)
	Validate(ctx context.Context, sessionID string) (uuid.UUID, bool, error)
	Revoke(ctx context.Context, sessionID string) error
	RevokeUser(ctx context.Context, userID uuid.UUID) error
}

type SignupInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type SigninResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      models.Profile `json:"user"`
}

type AuthService struct {
	accounts AccountStore
	profiles ProfileStore
	sessions SessionStore
	tokens   *TokenIssuer
	log      *zap.SugaredLogger
}

func NewAuthService(accounts AccountStore, profiles ProfileStore, sessions SessionStore, tokens *TokenIssuer, log *zap.SugaredLogger) *AuthService {
	return &AuthService{accounts: accounts, profiles: profiles, sessions: sessions, tokens: tokens, log: log}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (models.Profile, error) {
	email := utils.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.DisplayName)

	var errs utils.ValidationErrors
	for _, err := range []error{utils.ValidateEmail(email), utils.ValidatePassword(in.Password), utils.ValidateDisplayName(name)} {
		var ve *utils.ValidationError
		if errors.As(err, &ve) {
			errs = append(errs, *ve)
		}
	}
	if !errs.Empty() {
		return models.Profile{}, Invalid(errs)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return models.Profile{}, fmt.Errorf("hash password: %w", err)
	}

	id := uuid.New()
	profile, err := s.accounts.CreateAccount(ctx,
		models.Account{ID: id, Email: email, PasswordHash: hash, IsActive: true},
		models.Profile{ID: id, DisplayName: name, Role: models.RoleUser},
	)
	if errors.Is(err, ErrDuplicate) {
		return models.Profile{}, Conflict("EMAIL_TAKEN", "An account with this email already exists")
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("create account: %w", err)
	}
	s.log.Infow("account created", "user_id", id)
	return profile, nil
}

func (s *AuthService) Signin(ctx context.Context, email, password string) (SigninResult, error) {
	invalid := Unauthorized("Invalid email or password")

	account, err := s.accounts.AccountByEmail(ctx, utils.NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return SigninResult{}, invalid
	}
	if err != nil {
		return SigninResult{}, fmt.Errorf("load account: %w", err)
	}
	ok, err := utils.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return SigninResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return SigninResult{}, invalid
	}
	if !account.IsActive {
		return SigninResult{}, Forbidden("This account has been deactivated")
	}

	profile, err := s.profiles.GetProfile(ctx, account.ID)
	if err != nil {
		return SigninResult{}, fmt.Errorf("load profile: %w", err)
	}

	sessionID, err := s.sessions.Create(ctx, account.ID)
	if err != nil {
		return SigninResult{}, fmt.Errorf("create session: %w", err)
	}
	token, expires, err := s.tokens.Issue(account.ID, sessionID)
	if err != nil {
		return SigninResult{}, err
	}
	return SigninResult{Token: token, ExpiresAt: expires, User: profile}, nil
}

// Signout revokes the session. Signing out twice is fine.
func (s *AuthService) Signout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Resolve maps a bearer token to its user and live session id. Invalid,
// expired and revoked tokens all return ErrUnauthenticated.
func (s *AuthService) Resolve(ctx context.Context, token string) (uuid.UUID, string, error) {
	if token == "" {
		return uuid.Nil, "", ErrUnauthenticated
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return uuid.Nil, "", ErrUnauthenticated
	}
	userID, ok, err := s.sessions.Validate(ctx, claims.SessionID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("validate session: %w", err)
	}
	if !ok || userID != claims.UserID {
		return uuid.Nil, "", ErrUnauthenticated
	}
	return userID, claims.SessionID, nil
}
