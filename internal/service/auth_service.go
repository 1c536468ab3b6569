package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/notes-service/internal/auth"
	"github.com/spec-kit/notes-service/internal/config"
	"github.com/spec-kit/notes-service/internal/domain"
	"github.com/spec-kit/notes-service/internal/events"
	"github.com/spec-kit/notes-service/internal/mail"
	"github.com/spec-kit/notes-service/internal/oauth"
	"github.com/spec-kit/notes-service/internal/repository"
	apperrors "github.com/spec-kit/notes-service/pkg/util"
)

// AuthService coordinates OTP issuance, verification and session minting for
// both the email and federated login paths.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	mailer     mail.Mailer
	provider   oauth.Provider
	states     oauth.StateStore
	dispatcher events.Dispatcher
	otpTTL     time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates collaborator requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Mailer     mail.Mailer
	Provider   oauth.Provider
	States     oauth.StateStore
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTokenTTL()),
		mailer:     deps.Mailer,
		provider:   deps.Provider,
		states:     deps.States,
		dispatcher: deps.Dispatcher,
		otpTTL:     cfg.Auth.OTPTTL(),
		now:        time.Now,
	}
}

// RequestSignupCode ensures an identity exists for the email and issues a
// fresh OTP to it. Re-running signup for a known email does not error; it
// simply issues a new code.
func (s *AuthService) RequestSignupCode(ctx context.Context, email, name string, dateOfBirth *time.Time) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		user = &domain.User{Email: email, Name: name, DateOfBirth: dateOfBirth}
		if err := s.users.Create(ctx, user); err != nil {
			return apperrors.NewUpstreamFailure(err)
		}
		s.publish(ctx, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{Email: email})
	} else if err != nil {
		return apperrors.NewUpstreamFailure(err)
	}

	return s.issueCode(ctx, user, "signup")
}

// RequestLoginCode issues an OTP to an existing identity. Unknown emails are
// reported as NOT_FOUND at this step only; verification never distinguishes
// a missing identity from a wrong code.
func (s *AuthService) RequestLoginCode(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("user", map[string]any{"email": email})
	}
	if err != nil {
		return apperrors.NewUpstreamFailure(err)
	}

	return s.issueCode(ctx, user, "login")
}

// issueCode overwrites any live code on the record, persists, then dispatches
// the mail. The code is persisted before dispatch is confirmed: a mail
// failure leaves the stored code live even though the user never received it.
func (s *AuthService) issueCode(ctx context.Context, user *domain.User, purpose string) error {
	code, err := auth.GenerateOTP()
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	expiry := s.now().Add(s.otpTTL)
	user.OTPCode = &code
	user.OTPExpiry = &expiry
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.NewUpstreamFailure(err)
	}

	s.publish(ctx, events.EventOTPIssued, user.ID, events.OTPIssuedPayload{
		Email:     user.Email,
		ExpiresAt: expiry,
		Purpose:   purpose,
	})

	if err := s.mailer.SendOTP(ctx, user.Email, code); err != nil {
		return apperrors.NewUpstreamFailure(err)
	}
	return nil
}

// VerifyCode checks a submitted (email, code) pair and mints a session token
// on success. The stored code is cleared first, so a code verifies at most
// once. A missing identity, a mismatched code and a lapsed expiry all return
// the same INVALID_OR_EXPIRED shape.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.NewInvalidOrExpired()
	}
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewUpstreamFailure(err)
	}

	// Valid strictly before the expiry instant; at the instant itself the
	// code is already expired.
	if user.OTPCode == nil || user.OTPExpiry == nil || *user.OTPCode != code || !s.now().Before(*user.OTPExpiry) {
		return nil, "", time.Time{}, apperrors.NewInvalidOrExpired()
	}

	user.ClearOTP()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, "", time.Time{}, apperrors.NewUpstreamFailure(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventSessionIssued, user.ID, events.SessionIssuedPayload{Method: "otp", ExpiresAt: exp})
	return user, token, exp, nil
}

// GoogleLoginURL mints a single-use state nonce and returns the provider
// consent URL carrying it.
func (s *AuthService) GoogleLoginURL(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.states.Put(ctx, state); err != nil {
		return "", apperrors.NewUpstreamFailure(err)
	}
	return s.provider.LoginURL(state), nil
}

// HandleGoogleCallback exchanges a provider assertion for a session token.
// The identity is created on first login with the federated subject id and
// no OTP fields; no OTP step exists on this path.
func (s *AuthService) HandleGoogleCallback(ctx context.Context, state, code string) (*domain.User, string, time.Time, error) {
	if err := s.states.Consume(ctx, state); err != nil {
		if errors.Is(err, oauth.ErrStateUnknown) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid oauth state")
		}
		return nil, "", time.Time{}, apperrors.NewUpstreamFailure(err)
	}

	info, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewUpstreamFailure(err)
	}

	user, err := s.users.GetByEmail(ctx, info.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		user = &domain.User{Email: info.Email, Name: info.Name, GoogleID: &info.SubjectID}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, "", time.Time{}, apperrors.NewUpstreamFailure(err)
		}
		s.publish(ctx, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{Email: info.Email, Federated: true})
	} else if err != nil {
		return nil, "", time.Time{}, apperrors.NewUpstreamFailure(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventSessionIssued, user.ID, events.SessionIssuedPayload{Method: "google", ExpiresAt: exp})
	return user, token, exp, nil
}

// GetProfile loads the identity record for an authenticated user id.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("user", nil)
	}
	if err != nil {
		return nil, apperrors.NewUpstreamFailure(err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, userID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}
