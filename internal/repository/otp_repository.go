package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/repair-marketplace/internal/domain"
)

// ErrOTPNotFound is returned when no code is stored for a user.
var ErrOTPNotFound = errors.New("otp not found")

// OTPRepository stores ephemeral verification codes. Backed by Redis: the TTL
// handles expiry, saving a new code supersedes the old one, and deletion on
// successful verification is a single DEL. Failed attempts are counted in a
// separate INCR-backed key so concurrent wrong submissions cannot lose
// counts.
type OTPRepository interface {
	Save(ctx context.Context, otp *domain.OTP, ttl time.Duration) error
	Get(ctx context.Context, userID string) (*domain.OTP, error)
	IncrementAttempts(ctx context.Context, otp *domain.OTP) error
	Delete(ctx context.Context, userID string) error
}

type otpRepository struct {
	client *redis.Client
}

// NewOTPRepository builds repository.
func NewOTPRepository(client *redis.Client) OTPRepository {
	return &otpRepository{client: client}
}

func otpKey(userID string) string {
	return "otp:" + userID
}

func otpAttemptsKey(userID string) string {
	return "otp:attempts:" + userID
}

func (r *otpRepository) Save(ctx context.Context, otp *domain.OTP, ttl time.Duration) error {
	payload, err := json.Marshal(otp)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, otpKey(otp.UserID), payload, ttl)
	// a fresh code resets the attempt count
	pipe.Del(ctx, otpAttemptsKey(otp.UserID))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *otpRepository) Get(ctx context.Context, userID string) (*domain.OTP, error) {
	payload, err := r.client.Get(ctx, otpKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrOTPNotFound
		}
		return nil, err
	}
	var otp domain.OTP
	if err := json.Unmarshal(payload, &otp); err != nil {
		return nil, err
	}
	attempts, err := r.client.Get(ctx, otpAttemptsKey(userID)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	otp.Attempts = attempts
	return &otp, nil
}

func (r *otpRepository) IncrementAttempts(ctx context.Context, otp *domain.OTP) error {
	ttl := time.Until(otp.ExpiresAt)
	if ttl <= 0 {
		return r.Delete(ctx, otp.UserID)
	}
	count, err := r.client.Incr(ctx, otpAttemptsKey(otp.UserID)).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, otpAttemptsKey(otp.UserID), ttl).Err(); err != nil {
			return err
		}
	}
	otp.Attempts = int(count)
	return nil
}

func (r *otpRepository) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, otpKey(userID), otpAttemptsKey(userID)).Err()
}
