package domain

import "time"

// User is the domain model for marketplace accounts. Customers, repairmen
// and shop owners are all Users; provider capabilities are tracked by the
// IsRepairman and HasShop flags.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Verified     bool
	IsRepairman  bool
	HasShop      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsProvider reports whether the user can receive new-request broadcasts.
func (u *User) IsProvider() bool {
	return u.IsRepairman || u.HasShop
}
