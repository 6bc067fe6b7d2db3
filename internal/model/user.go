package model

import "time"

// User is an account able to act on documents.
// BranchID is required for branch admins and optional otherwise.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	BranchID     *string   `json:"branch_id"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor projects the user onto the identity carried by requests.
func (u *User) Actor() Actor {
	a := Actor{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
	if u.BranchID != nil {
		a.BranchID = *u.BranchID
	}
	return a
}
