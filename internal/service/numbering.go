package service

import (
	"context"
	"fmt"

	"certdocs/internal/apperr"
	"certdocs/internal/repository"
)

// DefaultNumberPrefix leads every document number unless configured otherwise.
const DefaultNumberPrefix = "OOCAA"

// FormatDocNo renders PREFIX-CODE-YEAR-SEQ with SEQ zero-padded to four digits.
func FormatDocNo(prefix, branchCode string, year, seq int) string {
	return fmt.Sprintf("%s-%s-%d-%04d", prefix, branchCode, year, seq)
}

// NumberingService allocates collision-free document numbers per branch and year.
type NumberingService interface {
	// Allocate reserves the next number in its own transaction.
	Allocate(ctx context.Context, branchID string, year int) (string, error)

	// AllocateTx reserves the next number inside the caller's transaction, so
	// the counter only advances if that transaction commits.
	AllocateTx(ctx context.Context, tx repository.Store, branchID string, year int) (string, error)
}

type numberingService struct {
	uow    repository.UnitOfWork
	prefix string
}

func NewNumberingService(uow repository.UnitOfWork, prefix string) NumberingService {
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}
	return &numberingService{uow: uow, prefix: prefix}
}

func (s *numberingService) Allocate(ctx context.Context, branchID string, year int) (string, error) {
	var docNo string
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		docNo, err = s.AllocateTx(ctx, tx, branchID, year)
		return err
	})
	if err != nil {
		return "", err
	}
	return docNo, nil
}

func (s *numberingService) AllocateTx(ctx context.Context, tx repository.Store, branchID string, year int) (docNo string, err error) {
	ctx, span := tracer.Start(ctx, "NumberingService.Allocate")
	defer func() { endSpan(span, err) }()

	branch, err := tx.Branches().FindByID(ctx, branchID)
	if err != nil {
		return "", err
	}

	seq, err := tx.Sequences().Next(ctx, branch.ID, year)
	if err != nil {
		return "", err
	}

	docNo = FormatDocNo(s.prefix, branch.Code, year, seq)
	exists, err := tx.Documents().ExistsDocNo(ctx, docNo)
	if err != nil {
		return "", err
	}
	if exists {
		return "", apperr.Conflict("document number " + docNo + " already exists")
	}
	return docNo, nil
}
