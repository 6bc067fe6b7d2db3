package service

import (
	"time"

	"github.com/shopspring/decimal"

	"certdocs/internal/model"
	repoMocks "certdocs/internal/repository/mocks"
)

var (
	hqActor      = model.Actor{ID: "u-hq", Email: "hq@oocaa.local", Role: model.RoleHQAdmin}
	adamaActor   = model.Actor{ID: "u-adama", Email: "adama@oocaa.local", Role: model.RoleBranchAdmin, BranchID: "b-adama"}
	jimmaActor   = model.Actor{ID: "u-jimma", Email: "jimma@oocaa.local", Role: model.RoleBranchAdmin, BranchID: "b-jimma"}
	auditorActor = model.Actor{ID: "u-aud", Email: "audit@oocaa.local", Role: model.RoleAuditor}

	adamaBranch = &model.Branch{ID: "b-adama", Code: "ADAMA", Name: "Adama", IsActive: true}
	fixedNow    = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
)

func echoDocument(d *model.Document) *model.Document {
	out := *d
	return &out
}

func echoVersion(v *model.DocumentVersion) *model.DocumentVersion {
	out := *v
	return &out
}

func echoAttachment(a *model.Attachment) *model.Attachment {
	out := *a
	return &out
}

func echoAudit(e *model.AuditLogEntry) *model.AuditLogEntry {
	out := *e
	return &out
}

func echoBranch(b *model.Branch) *model.Branch {
	out := *b
	return &out
}

func echoUser(u *model.User) *model.User {
	out := *u
	return &out
}

func submittedDoc(paid bool) *model.Document {
	d := &model.Document{
		ID:              "doc-1",
		DocNo:           "OOCAA-ADAMA-2026-0007",
		Type:            model.DocumentTypeAssessmentApplication,
		Status:          model.StatusSubmitted,
		BranchID:        "b-adama",
		CandidateName:   "Abebe Kebede",
		Occupation:      "Electrician",
		Level:           "II",
		CreatedByUserID: "u-adama",
	}
	if paid {
		amount := decimal.NewFromInt(1500)
		date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		d.PaymentReceiptNo = strPtr("RCP-77")
		d.PaymentAmount = &amount
		d.PaymentDate = &date
		d.PaymentMethod = strPtr("CASH")
	}
	return d
}

// auditEntries returns the entries passed to Append, in call order.
func auditEntries(uow *repoMocks.MockUnitOfWork) []*model.AuditLogEntry {
	var out []*model.AuditLogEntry
	for _, c := range uow.AuditRepo.Calls {
		if c.Method == "Append" {
			out = append(out, c.Arguments.Get(1).(*model.AuditLogEntry))
		}
	}
	return out
}
