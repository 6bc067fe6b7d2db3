package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Document is a certification-assessment application tracked through the
// approval pipeline. BranchID never changes after creation.
type Document struct {
	ID                string           `json:"id"`
	DocNo             string           `json:"doc_no"`
	Type              DocumentType     `json:"type"`
	Status            Status           `json:"status"`
	BranchID          string           `json:"branch_id"`
	CandidateName     string           `json:"candidate_name"`
	CandidateIDNumber *string          `json:"candidate_id_number"`
	Phone             *string          `json:"phone"`
	Occupation        string           `json:"occupation"`
	Level             string           `json:"level"`
	PaymentReceiptNo  *string          `json:"payment_receipt_no"`
	PaymentAmount     *decimal.Decimal `json:"payment_amount"`
	PaymentDate       *time.Time       `json:"payment_date"`
	PaymentMethod     *string          `json:"payment_method"`
	CreatedByUserID   string           `json:"created_by_user_id"`
	ReviewedByUserID  *string          `json:"reviewed_by_user_id"`
	ApprovedByUserID  *string          `json:"approved_by_user_id"`
	RejectReason      *string          `json:"reject_reason"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// HasPaymentMetadata reports whether all four payment fields are set.
func (d *Document) HasPaymentMetadata() bool {
	return nonBlank(d.PaymentReceiptNo) &&
		d.PaymentAmount != nil && d.PaymentAmount.IsPositive() &&
		d.PaymentDate != nil && !d.PaymentDate.IsZero() &&
		nonBlank(d.PaymentMethod)
}

// Snapshot serialises the full field set of d. Callers take it from the
// post-write row inside the writing transaction.
func (d Document) Snapshot() (json.RawMessage, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// DocumentSummary is a list row: the document plus its attachment count.
type DocumentSummary struct {
	Document
	AttachmentCount int `json:"attachment_count"`
}

func nonBlank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
