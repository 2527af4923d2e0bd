package domain

import "time"

// Shop is a repair shop owned by exactly one User (OwnerID unique).
type Shop struct {
	ID        string
	OwnerID   string
	Name      string
	Phone     string
	Address   string
	Lat       float64
	Lng       float64
	Services  []string
	Photos    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
