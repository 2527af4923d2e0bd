package domain

import "time"

// Repairman is the one-to-one provider extension of a User. Its existence
// implies the owning User's IsRepairman flag is true; both are maintained
// within the same transaction.
type Repairman struct {
	ID        string
	UserID    string
	Phone     string
	Skills    []string
	Services  map[string]float64
	Verified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
