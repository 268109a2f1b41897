package domain

import "time"

// WarrantyWindow is the number of calendar months a model's parts and
// service coverage last after the sale date.
type WarrantyWindow struct {
	PartsMonths   int `json:"parts_months"`
	ServiceMonths int `json:"service_months"`
}

// Model is a product definition owned by the catalog collaborator.
//
// Models are immutable once units reference them; they may be disabled but
// never deleted. The core only reads the warranty window.
type Model struct {
	ID        string
	Name      string
	Warranty  WarrantyWindow
	Enabled   bool
	CreatedAt time.Time
}
