package domain

import "time"

// OTP is an ephemeral verification code tied to a User. Codes expire, are
// superseded by newer ones and are deleted after successful verification.
type OTP struct {
	UserID    string    `json:"user_id"`
	Code      string    `json:"code"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
}
