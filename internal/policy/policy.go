// Package policy decides whether an actor may read or write records owned by a
// branch. The rules are a fixed table keyed by role; there is no inheritance
// between roles.
package policy

import (
	"certdocs/internal/apperr"
	"certdocs/internal/model"
)

// Mode is the kind of access requested.
type Mode string

const (
	Read  Mode = "read"
	Write Mode = "write"
)

type rule func(actor model.Actor, targetBranchID string, mode Mode) error

var rules = map[model.Role]rule{
	model.RoleHQAdmin: func(model.Actor, string, Mode) error {
		return nil
	},
	model.RoleAuditor: func(_ model.Actor, _ string, mode Mode) error {
		if mode == Write {
			return apperr.Forbidden("read-only")
		}
		return nil
	},
	model.RoleBranchAdmin: func(actor model.Actor, targetBranchID string, _ Mode) error {
		if actor.BranchID == "" || actor.BranchID != targetBranchID {
			return apperr.Forbidden("branch access denied")
		}
		return nil
	},
}

// Authorize returns nil when actor may access targetBranchID in mode, or a
// FORBIDDEN error otherwise.
func Authorize(actor model.Actor, targetBranchID string, mode Mode) error {
	r, ok := rules[actor.Role]
	if !ok {
		return apperr.Forbidden("unknown role")
	}
	return r(actor, targetBranchID, mode)
}

// AuthorizeRole requires actor's role to be one of allowed.
func AuthorizeRole(actor model.Actor, allowed ...model.Role) error {
	for _, r := range allowed {
		if actor.Role == r {
			return nil
		}
	}
	return apperr.Forbidden("role not permitted")
}

// ScopeBranch resolves the branch filter for list and aggregate reads.
// Branch admins are pinned to their own branch whatever they ask for; other
// roles get the requested branch, where "" means all branches.
func ScopeBranch(actor model.Actor, requested string) (string, error) {
	switch actor.Role {
	case model.RoleHQAdmin, model.RoleAuditor:
		return requested, nil
	case model.RoleBranchAdmin:
		if actor.BranchID == "" {
			return "", apperr.Forbidden("branch access denied")
		}
		return actor.BranchID, nil
	}
	return "", apperr.Forbidden("unknown role")
}
