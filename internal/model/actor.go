package model

// Actor is the identity of the caller as supplied by the identity collaborator.
// It is threaded explicitly through every service call.
type Actor struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	BranchID string `json:"branch_id,omitempty"`
}
