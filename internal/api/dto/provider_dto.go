package dto

import "time"

// BecomeRepairmanRequest payload for enabling the repairman role.
type BecomeRepairmanRequest struct {
	Phone    string             `json:"phone"`
	Skills   []string           `json:"skills"`
	Services map[string]float64 `json:"services"`
}

// ChangePhoneRequest payload for updating a repairman contact number.
type ChangePhoneRequest struct {
	Phone string `json:"phone"`
}

// RepairmanResponse is the public view of a repairman profile.
type RepairmanResponse struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Phone     string             `json:"phone"`
	Skills    []string           `json:"skills"`
	Services  map[string]float64 `json:"services"`
	Verified  bool               `json:"verified"`
	CreatedAt time.Time          `json:"created_at"`
}

// OpenShopRequest payload for registering a shop.
type OpenShopRequest struct {
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Address  string   `json:"address"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Services []string `json:"services"`
	Photos   []string `json:"photos"`
}

// ShopResponse is the public view of a shop.
type ShopResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Services  []string  `json:"services"`
	Photos    []string  `json:"photos"`
	CreatedAt time.Time `json:"created_at"`
}
