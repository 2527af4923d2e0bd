package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/repair-marketplace/internal/auth"
	"github.com/spec-kit/repair-marketplace/internal/config"
	"github.com/spec-kit/repair-marketplace/internal/domain"
	"github.com/spec-kit/repair-marketplace/internal/repository"
	apperrors "github.com/spec-kit/repair-marketplace/pkg/util"
)

// AuthService coordinates registration, OTP verification and login.
type AuthService struct {
	users       repository.UserRepository
	otps        repository.OTPRepository
	tokenMgr    *auth.TokenManager
	logger      *zap.Logger
	bcryptCost  int
	otpTTL      time.Duration
	maxAttempts int
}

// AuthDependencies encapsulates repo requirements for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	OTPRepo  repository.OTPRepository
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:       deps.UserRepo,
		otps:        deps.OTPRepo,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		logger:      deps.Logger,
		bcryptCost:  cfg.Auth.BcryptCost,
		otpTTL:      cfg.OTP.TTL(),
		maxAttempts: cfg.OTP.MaxAttempts,
	}
}

// Register creates an unverified account and issues a verification code.
// Name and password may be deferred to CompleteRegistration after the code
// is verified.
func (s *AuthService) Register(ctx context.Context, name, email, phone, password string) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	var hash string
	if password != "" {
		var err error
		hash, err = auth.HashPassword(password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Verified:     false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.issueOTP(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// CompleteRegistration fills in the profile of a verified account that
// registered without one. Accounts that already hold a password cannot be
// completed again.
func (s *AuthService) CompleteRegistration(ctx context.Context, email, name, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewNotFound("user", nil)
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !user.Verified {
		return nil, "", time.Time{}, apperrors.NewForbidden("account not verified")
	}
	if user.PasswordHash != "" {
		return nil, "", time.Time{}, apperrors.NewConflict("registration already completed", nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	user.Name = name
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.IsRepairman, user.HasShop)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// ResendOTP issues a fresh code, superseding any previous one.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}
	if user.Verified {
		return apperrors.NewConflict("account already verified", nil)
	}
	return s.issueOTP(ctx, user.ID)
}

func (s *AuthService) issueOTP(ctx context.Context, userID string) error {
	code, err := generateOTPCode()
	if err != nil {
		return apperrors.MapError(err)
	}
	otp := &domain.OTP{
		UserID:    userID,
		Code:      code,
		ExpiresAt: time.Now().Add(s.otpTTL),
	}
	if err := s.otps.Save(ctx, otp, s.otpTTL); err != nil {
		return apperrors.NewPersistenceError(err)
	}
	// delivery is an SMS/email gateway concern; the code is only logged in
	// development
	s.logger.Debug("otp issued", zap.String("user_id", userID))
	return nil
}

// VerifyOTP checks the submitted code, marks the user verified and deletes
// the code.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewNotFound("user", nil)
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	otp, err := s.otps.Get(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("code expired or not issued")
		}
		return nil, "", time.Time{}, apperrors.NewPersistenceError(err)
	}
	if s.maxAttempts > 0 && otp.Attempts >= s.maxAttempts {
		_ = s.otps.Delete(ctx, user.ID)
		return nil, "", time.Time{}, apperrors.NewUnauthorized("too many attempts")
	}
	if otp.Code != code {
		_ = s.otps.IncrementAttempts(ctx, otp)
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid code")
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	_ = s.otps.Delete(ctx, user.ID)
	user.Verified = true

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.IsRepairman, user.HasShop)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// Login authenticates a verified account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Verified {
		return nil, "", time.Time{}, apperrors.NewForbidden("account not verified")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.IsRepairman, user.HasShop)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// IssueToken refreshes a token after provider flags change.
func (s *AuthService) IssueToken(user *domain.User) (string, time.Time, error) {
	return s.tokenMgr.GenerateToken(user.ID, user.IsRepairman, user.HasShop)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
