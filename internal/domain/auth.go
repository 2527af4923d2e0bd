package domain

import "time"

// SenderRole identifies which side of an order a realtime actor speaks for.
type SenderRole string

const (
	RoleCustomer  SenderRole = "CUSTOMER"
	RoleRepairman SenderRole = "REPAIRMAN"
	RoleShopOwner SenderRole = "SHOP_OWNER"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID          string
	UserID      string
	IsRepairman bool
	HasShop     bool
	ExpiresAt   time.Time
	IssuedAt    time.Time
}
