package domain

import "time"

// WarrantySnapshot is parts/service validity computed once and frozen.
//
// Snapshots are evaluated at service-visit creation and never revised, even
// if the model's warranty window changes later.
type WarrantySnapshot struct {
	PartsValid   bool `json:"parts_valid"`
	ServiceValid bool `json:"service_valid"`
}

// ServiceVisit is a service job header for one unit at one service center.
type ServiceVisit struct {
	ID            string
	Serial        string
	Center        HolderRef
	OpenedAt      time.Time
	ReportedIssue string
	Snapshot      WarrantySnapshot
}
