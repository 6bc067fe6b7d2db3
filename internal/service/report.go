package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"certdocs/internal/model"
	"certdocs/internal/policy"
	"certdocs/internal/repository"
)

// ReportQuery scopes the summary. BranchID is ignored for branch admins.
type ReportQuery struct {
	BranchID string
	Dates    DateRange
}

// ReportService aggregates document counts.
type ReportService interface {
	Summary(ctx context.Context, actor model.Actor, q ReportQuery) (*model.ReportSummary, error)
}

type reportService struct {
	store repository.Store
	loc   *time.Location
}

func NewReportService(store repository.Store, loc *time.Location) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{store: store, loc: loc}
}

// Summary runs the aggregate queries concurrently. The per-branch breakdown
// is only computed for headquarters.
func (s *reportService) Summary(ctx context.Context, actor model.Actor, q ReportQuery) (sum *model.ReportSummary, err error) {
	ctx, span := tracer.Start(ctx, "ReportService.Summary")
	defer func() { endSpan(span, err) }()

	branchID, err := policy.ScopeBranch(actor, q.BranchID)
	if err != nil {
		return nil, err
	}
	f := repository.ReportFilter{BranchID: branchID}
	f.From, f.To = q.Dates.bounds(s.loc)

	sum = &model.ReportSummary{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sum.Total, err = s.store.Reports().Count(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		sum.ByStatus, err = s.store.Reports().CountByStatus(gctx, f)
		return err
	})
	if actor.Role == model.RoleHQAdmin {
		g.Go(func() error {
			var err error
			sum.ByBranch, err = s.store.Reports().CountByBranch(gctx, f)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sum, nil
}
