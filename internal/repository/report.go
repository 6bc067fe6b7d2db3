package repository

import (
	"context"
	"time"

	"certdocs/internal/model"
)

// ReportFilter scopes aggregate counts. Empty BranchID means all branches.
type ReportFilter struct {
	BranchID string
	From     *time.Time
	To       *time.Time
}

type ReportRepository interface {
	Count(ctx context.Context, f ReportFilter) (int, error)
	CountByStatus(ctx context.Context, f ReportFilter) (map[model.Status]int, error)
	CountByBranch(ctx context.Context, f ReportFilter) ([]model.BranchTotal, error)
}
