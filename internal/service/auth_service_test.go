package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/repair-marketplace/internal/config"
	"github.com/spec-kit/repair-marketplace/internal/domain"
	"github.com/spec-kit/repair-marketplace/internal/repository"
)

// fakeOTPRepo is an in-memory OTPRepository; expiry is ignored since the
// backing store owns TTL in production.
type fakeOTPRepo struct {
	mu    sync.Mutex
	codes map[string]*domain.OTP
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{codes: make(map[string]*domain.OTP)}
}

func (r *fakeOTPRepo) Save(_ context.Context, otp *domain.OTP, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *otp
	r.codes[otp.UserID] = &copied
	return nil
}

func (r *fakeOTPRepo) Get(_ context.Context, userID string) (*domain.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	otp, ok := r.codes[userID]
	if !ok {
		return nil, repository.ErrOTPNotFound
	}
	copied := *otp
	return &copied, nil
}

func (r *fakeOTPRepo) IncrementAttempts(_ context.Context, otp *domain.OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.codes[otp.UserID]; ok {
		stored.Attempts++
	}
	return nil
}

func (r *fakeOTPRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codes, userID)
	return nil
}

func (r *fakeOTPRepo) storedCode(userID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if otp, ok := r.codes[userID]; ok {
		return otp.Code
	}
	return ""
}

func authConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
		},
		OTP: config.OTPConfig{TTLMinutes: 5, MaxAttempts: 3},
	}
}

func newAuthFixture() (*AuthService, *fakeUserRepo, *fakeOTPRepo) {
	userRepo := newFakeUserRepo()
	otpRepo := newFakeOTPRepo()
	svc := NewAuthService(authConfig(), AuthDependencies{
		UserRepo: userRepo,
		OTPRepo:  otpRepo,
		Logger:   zap.NewNop(),
	})
	return svc, userRepo, otpRepo
}

func TestRegisterIssuesOTP(t *testing.T) {
	svc, _, otpRepo := newAuthFixture()

	user, err := svc.Register(context.Background(), "Dana", "dana@example.com", "555-0100", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Verified {
		t.Error("new accounts start unverified")
	}
	code := otpRepo.storedCode(user.ID)
	if len(code) != 6 {
		t.Errorf("code = %q, want 6 digits", code)
	}

	_, err = svc.Register(context.Background(), "Dana", "dana@example.com", "555-0100", "secret123")
	if codeStr := domainErrCode(t, err); codeStr != "CONFLICT" {
		t.Errorf("duplicate email code = %s, want CONFLICT", codeStr)
	}
}

func TestVerifyOTPFlow(t *testing.T) {
	svc, userRepo, otpRepo := newAuthFixture()

	user, err := svc.Register(context.Background(), "Dana", "dana@example.com", "555-0100", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// login before verification is forbidden
	_, _, _, err = svc.Login(context.Background(), "dana@example.com", "secret123")
	if code := domainErrCode(t, err); code != "FORBIDDEN" {
		t.Errorf("unverified login code = %s, want FORBIDDEN", code)
	}

	verified, token, _, err := svc.VerifyOTP(context.Background(), "dana@example.com", otpRepo.storedCode(user.ID))
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if !verified.Verified || token == "" {
		t.Error("verification should flag the user and issue a token")
	}
	stored, _ := userRepo.GetByID(context.Background(), user.ID)
	if !stored.Verified {
		t.Error("verified flag should persist")
	}
	if otpRepo.storedCode(user.ID) != "" {
		t.Error("code should be deleted after successful verification")
	}

	// verified account can log in
	_, token, _, err = svc.Login(context.Background(), "dana@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Error("login should issue a token")
	}
}

func TestCompleteRegistrationFlow(t *testing.T) {
	svc, _, otpRepo := newAuthFixture()

	// phone-first registration defers name and password
	user, err := svc.Register(context.Background(), "", "dana@example.com", "555-0100", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// incomplete accounts cannot be completed before verification
	_, _, _, err = svc.CompleteRegistration(context.Background(), "dana@example.com", "Dana", "secret123")
	if code := domainErrCode(t, err); code != "FORBIDDEN" {
		t.Errorf("unverified completion code = %s, want FORBIDDEN", code)
	}

	if _, _, _, err := svc.VerifyOTP(context.Background(), "dana@example.com", otpRepo.storedCode(user.ID)); err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}

	completed, token, _, err := svc.CompleteRegistration(context.Background(), "dana@example.com", "Dana", "secret123")
	if err != nil {
		t.Fatalf("CompleteRegistration: %v", err)
	}
	if completed.Name != "Dana" || token == "" {
		t.Error("completion should set the profile and issue a token")
	}

	if _, _, _, err := svc.Login(context.Background(), "dana@example.com", "secret123"); err != nil {
		t.Fatalf("Login after completion: %v", err)
	}

	_, _, _, err = svc.CompleteRegistration(context.Background(), "dana@example.com", "Dana", "other456")
	if code := domainErrCode(t, err); code != "CONFLICT" {
		t.Errorf("second completion code = %s, want CONFLICT", code)
	}
}

func TestVerifyOTPWrongCodeCountsAttempts(t *testing.T) {
	svc, _, otpRepo := newAuthFixture()

	user, err := svc.Register(context.Background(), "Dana", "dana@example.com", "555-0100", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, _, _, err = svc.VerifyOTP(context.Background(), "dana@example.com", "000000")
		if code := domainErrCode(t, err); code != "UNAUTHORIZED" {
			t.Fatalf("wrong code attempt %d = %s, want UNAUTHORIZED", i, code)
		}
	}

	// attempts exhausted: even the right code is now refused and deleted
	right := otpRepo.storedCode(user.ID)
	_, _, _, err = svc.VerifyOTP(context.Background(), "dana@example.com", right)
	if code := domainErrCode(t, err); code != "UNAUTHORIZED" {
		t.Errorf("exhausted code = %s, want UNAUTHORIZED", code)
	}
	if otpRepo.storedCode(user.ID) != "" {
		t.Error("code should be deleted after exhausting attempts")
	}
}

func TestVerifyOTPConcurrentWrongCodesCannotExceedCap(t *testing.T) {
	svc, _, otpRepo := newAuthFixture()

	user, err := svc.Register(context.Background(), "Dana", "dana@example.com", "555-0100", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	realCode := otpRepo.storedCode(user.ID)

	// simultaneous wrong submissions must each consume an attempt
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _, _ = svc.VerifyOTP(context.Background(), "dana@example.com", "xxxxxx")
		}()
	}
	wg.Wait()

	_, _, _, err = svc.VerifyOTP(context.Background(), "dana@example.com", realCode)
	if code := domainErrCode(t, err); code != "UNAUTHORIZED" {
		t.Errorf("post-cap verification code = %s, want UNAUTHORIZED", code)
	}
}

func TestResendOTPSupersedes(t *testing.T) {
	svc, _, otpRepo := newAuthFixture()

	user, err := svc.Register(context.Background(), "Dana", "dana@example.com", "555-0100", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	first := otpRepo.storedCode(user.ID)

	if err := svc.ResendOTP(context.Background(), "dana@example.com"); err != nil {
		t.Fatalf("ResendOTP: %v", err)
	}
	second := otpRepo.storedCode(user.ID)
	if second == "" {
		t.Fatal("resend must store a code")
	}

	// the superseded code no longer verifies unless it happens to collide
	if first != second {
		_, _, _, err = svc.VerifyOTP(context.Background(), "dana@example.com", first)
		if err == nil {
			t.Error("stale code should not verify")
		}
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, otpRepo := newAuthFixture()

	user, err := svc.Register(context.Background(), "Dana", "dana@example.com", "555-0100", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, _, err := svc.VerifyOTP(context.Background(), "dana@example.com", otpRepo.storedCode(user.ID)); err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}

	_, _, _, err = svc.Login(context.Background(), "dana@example.com", "wrong")
	if code := domainErrCode(t, err); code != "UNAUTHORIZED" {
		t.Errorf("code = %s, want UNAUTHORIZED", code)
	}
	_, _, _, err = svc.Login(context.Background(), "nobody@example.com", "secret123")
	if code := domainErrCode(t, err); code != "UNAUTHORIZED" {
		t.Errorf("unknown email code = %s, want UNAUTHORIZED", code)
	}
}
