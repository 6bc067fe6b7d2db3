// Package lifecycle holds the document state machine:
//
//	SUBMITTED -> REVIEWED -> APPROVED
//	                      -> REJECTED
//
// APPROVED and REJECTED are terminal. Functions here are pure; callers load the
// document and its attachments inside their transaction and persist the result.
package lifecycle

import (
	"fmt"
	"strings"

	"certdocs/internal/apperr"
	"certdocs/internal/model"
)

// MinRejectReasonLen is the shortest accepted rejection reason after trimming.
const MinRejectReasonLen = 3

// ErrMissingEvidence is the message returned when payment evidence is incomplete.
const ErrMissingEvidence = "payment metadata and receipt attachment required"

// Request names the target status and, for rejections, the reason.
type Request struct {
	To           model.Status
	RejectReason string
}

// Result describes an applied transition.
type Result struct {
	From     model.Status
	To       model.Status
	Document model.Document
}

type requirement func(doc *model.Document, attachments []model.Attachment, req Request) error

type transition struct {
	from     model.Status
	to       model.Status
	role     model.Role
	requires requirement
}

var transitions = []transition{
	{from: model.StatusSubmitted, to: model.StatusReviewed, role: model.RoleBranchAdmin, requires: paymentEvidence},
	{from: model.StatusReviewed, to: model.StatusApproved, role: model.RoleHQAdmin, requires: paymentEvidence},
	{from: model.StatusReviewed, to: model.StatusRejected, role: model.RoleHQAdmin, requires: rejectReason},
}

func lookup(from, to model.Status) (transition, bool) {
	for _, t := range transitions {
		if t.from == from && t.to == to {
			return t, true
		}
	}
	return transition{}, false
}

// Allowed lists the statuses reachable from s, in table order.
func Allowed(s model.Status) []model.Status {
	var out []model.Status
	for _, t := range transitions {
		if t.from == s {
			out = append(out, t.to)
		}
	}
	return out
}

// Apply validates req against doc's current state, the actor's role and the
// required evidence, and returns the post-transition document. doc is not
// modified.
//
// Checks run in order: known transition, actor role, evidence or reason.
func Apply(doc model.Document, attachments []model.Attachment, actor model.Actor, req Request) (*Result, error) {
	if err := Check(doc.Status, req.To); err != nil {
		return nil, err
	}

	t, _ := lookup(doc.Status, req.To)
	if actor.Role != t.role {
		return nil, apperr.Forbidden(fmt.Sprintf("only %s may move a document to %s", t.role, t.to))
	}
	if err := t.requires(&doc, attachments, req); err != nil {
		return nil, err
	}

	next := doc
	next.Status = t.to
	next.RejectReason = nil
	switch t.to {
	case model.StatusReviewed:
		next.ReviewedByUserID = stringPtr(actor.ID)
	case model.StatusApproved:
		next.ApprovedByUserID = stringPtr(actor.ID)
	case model.StatusRejected:
		next.RejectReason = stringPtr(strings.TrimSpace(req.RejectReason))
	}

	return &Result{From: doc.Status, To: t.to, Document: next}, nil
}

// Check reports whether from -> to is a defined transition, independent of
// who asks.
func Check(from, to model.Status) error {
	if !to.Valid() {
		return apperr.Newf(apperr.CodeValidation, "unknown status %q", to)
	}
	if _, ok := lookup(from, to); !ok {
		return apperr.Newf(apperr.CodeInvalidTransition, "cannot move document from %s to %s", from, to)
	}
	return nil
}

// CanEdit reports whether free-text, candidate and payment fields may change.
func CanEdit(doc *model.Document) error {
	if doc.Status != model.StatusSubmitted {
		return apperr.Newf(apperr.CodeInvalidState, "only SUBMITTED documents can be edited (status %s)", doc.Status)
	}
	return nil
}

// CanAttach reports whether new attachments may be added.
func CanAttach(doc *model.Document) error {
	if doc.Status != model.StatusSubmitted {
		return apperr.Newf(apperr.CodeInvalidState, "attachments only allowed for SUBMITTED documents (status %s)", doc.Status)
	}
	return nil
}

// HasReceipt reports whether attachments contain a payment receipt.
func HasReceipt(attachments []model.Attachment) bool {
	for _, a := range attachments {
		if a.Kind == model.AttachmentPaymentReceipt {
			return true
		}
	}
	return false
}

func paymentEvidence(doc *model.Document, attachments []model.Attachment, _ Request) error {
	if !HasReceipt(attachments) || !doc.HasPaymentMetadata() {
		return apperr.New(apperr.CodePreconditionFailed, ErrMissingEvidence)
	}
	return nil
}

func rejectReason(_ *model.Document, _ []model.Attachment, req Request) error {
	if len([]rune(strings.TrimSpace(req.RejectReason))) < MinRejectReasonLen {
		return apperr.Newf(apperr.CodeValidation, "reject reason of at least %d characters required", MinRejectReasonLen)
	}
	return nil
}

func stringPtr(s string) *string { return &s }
