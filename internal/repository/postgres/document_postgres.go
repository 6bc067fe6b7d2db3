package postgres

import (
	"context"

	"certdocs/internal/model"
	"certdocs/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	q queryer
}

// NewDocumentPostgres creates a DocumentPostgres bound to a pool or transaction.
func NewDocumentPostgres(q queryer) *DocumentPostgres {
	return &DocumentPostgres{q: q}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, doc_no, type, status, branch_id, candidate_name, candidate_id_number, phone,
		occupation, level, payment_receipt_no, payment_amount, payment_date, payment_method,
		created_by_user_id, reviewed_by_user_id, approved_by_user_id, reject_reason,
		created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func documentFields(d *model.Document) []any {
	return []any{
		&d.ID,
		&d.DocNo,
		&d.Type,
		&d.Status,
		&d.BranchID,
		&d.CandidateName,
		&d.CandidateIDNumber,
		&d.Phone,
		&d.Occupation,
		&d.Level,
		&d.PaymentReceiptNo,
		&d.PaymentAmount,
		&d.PaymentDate,
		&d.PaymentMethod,
		&d.CreatedByUserID,
		&d.ReviewedByUserID,
		&d.ApprovedByUserID,
		&d.RejectReason,
		&d.CreatedAt,
		&d.UpdatedAt,
	}
}

func scanDocument(row scanner) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(documentFields(&d)...); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING ` + documentColumns
	row := r.q.QueryRowContext(ctx, q,
		doc.ID,
		doc.DocNo,
		doc.Type,
		doc.Status,
		doc.BranchID,
		doc.CandidateName,
		doc.CandidateIDNumber,
		doc.Phone,
		doc.Occupation,
		doc.Level,
		doc.PaymentReceiptNo,
		doc.PaymentAmount,
		doc.PaymentDate,
		doc.PaymentMethod,
		doc.CreatedByUserID,
		doc.ReviewedByUserID,
		doc.ApprovedByUserID,
		doc.RejectReason,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	out, err := scanDocument(row)
	if err != nil {
		return nil, mapError(err, "document")
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.q.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapError(err, "document")
	}
	return d, nil
}

// FindByIDForUpdate fetches a document and locks its row.
func (r *DocumentPostgres) FindByIDForUpdate(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 FOR UPDATE`
	d, err := scanDocument(r.q.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapError(err, "document")
	}
	return d, nil
}

// FindByDocNo fetches a single document by its number.
func (r *DocumentPostgres) FindByDocNo(ctx context.Context, docNo string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE doc_no = $1`
	d, err := scanDocument(r.q.QueryRowContext(ctx, q, docNo))
	if err != nil {
		return nil, mapError(err, "document")
	}
	return d, nil
}

// ExistsDocNo reports whether docNo is already taken.
func (r *DocumentPostgres) ExistsDocNo(ctx context.Context, docNo string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM documents WHERE doc_no = $1)`
	var exists bool
	if err := r.q.QueryRowContext(ctx, q, docNo).Scan(&exists); err != nil {
		return false, mapError(err, "document")
	}
	return exists, nil
}

// Update writes the mutable columns of doc. doc_no, type, branch_id and the
// creator are never rewritten.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		UPDATE documents SET
			status = $2,
			candidate_name = $3,
			candidate_id_number = $4,
			phone = $5,
			occupation = $6,
			level = $7,
			payment_receipt_no = $8,
			payment_amount = $9,
			payment_date = $10,
			payment_method = $11,
			reviewed_by_user_id = $12,
			approved_by_user_id = $13,
			reject_reason = $14,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + documentColumns
	row := r.q.QueryRowContext(ctx, q,
		doc.ID,
		doc.Status,
		doc.CandidateName,
		doc.CandidateIDNumber,
		doc.Phone,
		doc.Occupation,
		doc.Level,
		doc.PaymentReceiptNo,
		doc.PaymentAmount,
		doc.PaymentDate,
		doc.PaymentMethod,
		doc.ReviewedByUserID,
		doc.ApprovedByUserID,
		doc.RejectReason,
	)
	out, err := scanDocument(row)
	if err != nil {
		return nil, mapError(err, "document")
	}
	return out, nil
}

func documentWhere(f repository.DocumentFilter) *where {
	w := &where{}
	if f.Query != "" {
		w.add(`(doc_no ILIKE ? OR candidate_name ILIKE ? OR payment_receipt_no ILIKE ?)`, likePattern(f.Query))
	}
	if f.Status != "" {
		w.add(`status = ?`, f.Status)
	}
	if f.BranchID != "" {
		w.add(`branch_id = ?`, f.BranchID)
	}
	if f.From != nil {
		w.add(`created_at >= ?`, *f.From)
	}
	if f.To != nil {
		w.add(`created_at < ?`, *f.To)
	}
	return w
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, f repository.DocumentFilter, pq repository.PageQuery) (*repository.PageResult[model.DocumentSummary], error) {
	w := documentWhere(f)

	// Count total rows
	qCount := `SELECT COUNT(*) FROM documents` + w.String()
	var total int
	if err := r.q.QueryRowContext(ctx, qCount, w.args...).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	qList := `SELECT ` + documentColumns + `,
		(SELECT COUNT(*) FROM attachments a WHERE a.document_id = documents.id) AS attachment_count
		FROM documents` + w.String() + `
		ORDER BY created_at DESC, id DESC
		LIMIT ` + w.next(1) + ` OFFSET ` + w.next(2)
	args := append(w.args, pq.Limit, pq.Offset)
	rows, err := r.q.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentSummary, 0)
	for rows.Next() {
		var s model.DocumentSummary
		dest := append(documentFields(&s.Document), &s.AttachmentCount)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.DocumentSummary]{
		Items: items,
		Total: total,
	}, nil
}
