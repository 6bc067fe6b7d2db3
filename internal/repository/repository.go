// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres) inside this directory.
package repository

import "context"

// Store groups the per-entity repositories bound to one connection or one
// transaction. Repositories obtained from a transactional Store see and
// write only inside that transaction.
type Store interface {
	Branches() BranchRepository
	Users() UserRepository
	Documents() DocumentRepository
	Attachments() AttachmentRepository
	Versions() VersionRepository
	Sequences() SequenceRepository
	Audit() AuditRepository
	Reports() ReportRepository
}

// TxFunc is the body of a unit of work. Returning an error rolls back every
// write made through tx.
type TxFunc func(ctx context.Context, tx Store) error

// UnitOfWork is the transactional boundary of the document aggregate.
// WithinTx commits fn's writes atomically or none of them. Cancelling ctx
// before commit rolls the transaction back.
type UnitOfWork interface {
	Store
	WithinTx(ctx context.Context, fn TxFunc) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
