package model

import "time"

// Branch is a regional office owning users and documents.
type Branch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BranchWithCounts adds dependent record counts used by the admin listing.
type BranchWithCounts struct {
	Branch
	UserCount     int `json:"user_count"`
	DocumentCount int `json:"document_count"`
}
