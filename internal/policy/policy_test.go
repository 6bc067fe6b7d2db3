package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"certdocs/internal/apperr"
	"certdocs/internal/model"
)

var (
	hq      = model.Actor{ID: "u-hq", Role: model.RoleHQAdmin}
	auditor = model.Actor{ID: "u-aud", Role: model.RoleAuditor}
	adamaBA = model.Actor{ID: "u-ba", Role: model.RoleBranchAdmin, BranchID: "adama"}
	noBA    = model.Actor{ID: "u-ba2", Role: model.RoleBranchAdmin}
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		actor   model.Actor
		branch  string
		mode    Mode
		wantMsg string
	}{
		{name: "hq reads any branch", actor: hq, branch: "jimma", mode: Read},
		{name: "hq writes any branch", actor: hq, branch: "jimma", mode: Write},
		{name: "auditor reads any branch", actor: auditor, branch: "jimma", mode: Read},
		{name: "auditor write is read-only", actor: auditor, branch: "jimma", mode: Write, wantMsg: "read-only"},
		{name: "auditor write own-looking branch still read-only", actor: auditor, branch: "", mode: Write, wantMsg: "read-only"},
		{name: "branch admin reads own", actor: adamaBA, branch: "adama", mode: Read},
		{name: "branch admin writes own", actor: adamaBA, branch: "adama", mode: Write},
		{name: "branch admin reads other", actor: adamaBA, branch: "jimma", mode: Read, wantMsg: "branch access denied"},
		{name: "branch admin writes other", actor: adamaBA, branch: "jimma", mode: Write, wantMsg: "branch access denied"},
		{name: "branch admin without branch", actor: noBA, branch: "", mode: Read, wantMsg: "branch access denied"},
		{name: "unknown role", actor: model.Actor{Role: "GUEST"}, branch: "adama", mode: Read, wantMsg: "unknown role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.branch, tt.mode)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
			assert.Equal(t, tt.wantMsg, apperr.MessageOf(err))
		})
	}
}

func TestAuthorizeRole(t *testing.T) {
	assert.NoError(t, AuthorizeRole(hq, model.RoleHQAdmin))
	assert.NoError(t, AuthorizeRole(adamaBA, model.RoleHQAdmin, model.RoleBranchAdmin))

	// no hierarchy: HQ is not implicitly a branch admin
	err := AuthorizeRole(hq, model.RoleBranchAdmin)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	err = AuthorizeRole(auditor)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
}

func TestScopeBranch(t *testing.T) {
	got, err := ScopeBranch(hq, "jimma")
	assert.NoError(t, err)
	assert.Equal(t, "jimma", got)

	got, err = ScopeBranch(auditor, "")
	assert.NoError(t, err)
	assert.Empty(t, got)

	got, err = ScopeBranch(adamaBA, "jimma")
	assert.NoError(t, err)
	assert.Equal(t, "adama", got)

	_, err = ScopeBranch(noBA, "")
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
}
