package handler

import (
	"github.com/gofiber/fiber/v2"

	"certdocs/internal/model"
	"certdocs/internal/service"
)

type auditListQuery struct {
	Action   string `query:"action"`
	Actor    string `query:"actor"`
	BranchID string `query:"branch_id" validate:"omitempty,uuid"`
	DocNo    string `query:"doc_no"`
	DateFrom string `query:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `query:"date_to" validate:"omitempty,datetime=2006-01-02"`
	Page     int    `query:"page" validate:"min=0"`
	PageSize int    `query:"page_size" validate:"min=0"`
}

type reportQuery struct {
	BranchID string `query:"branch_id" validate:"omitempty,uuid"`
	DateFrom string `query:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `query:"date_to" validate:"omitempty,datetime=2006-01-02"`
}

// ListAudit godoc
// @Summary Browse the audit log
// @Tags audit
// @Produce json
// @Param action query string false "action"
// @Param actor query string false "actor email contains"
// @Param branch_id query string false "branch id"
// @Param doc_no query string false "document number"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD (inclusive)"
// @Param page query int false "page, 1-based"
// @Param page_size query int false "page size"
// @Success 200 {object} service.AuditPage
// @Router /api/audit [get]
func ListAudit(svc service.AuditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		var q auditListQuery
		if err := bindQuery(c, &q); err != nil {
			return err
		}
		dates, err := dateRange(q.DateFrom, q.DateTo)
		if err != nil {
			return err
		}

		page, err := svc.List(c.UserContext(), actor, service.AuditQuery{
			Action:     model.AuditAction(q.Action),
			ActorEmail: q.Actor,
			BranchID:   q.BranchID,
			DocNo:      q.DocNo,
			Dates:      dates,
			Page:       q.Page,
			PageSize:   q.PageSize,
		})
		if err != nil {
			return err
		}
		return c.JSON(page)
	}
}

// ReportSummary godoc
// @Summary Document counts by status and branch
// @Tags reports
// @Produce json
// @Param branch_id query string false "branch id"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD (inclusive)"
// @Success 200 {object} model.ReportSummary
// @Router /api/reports/summary [get]
func ReportSummary(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		var q reportQuery
		if err := bindQuery(c, &q); err != nil {
			return err
		}
		dates, err := dateRange(q.DateFrom, q.DateTo)
		if err != nil {
			return err
		}

		sum, err := svc.Summary(c.UserContext(), actor, service.ReportQuery{
			BranchID: q.BranchID,
			Dates:    dates,
		})
		if err != nil {
			return err
		}
		return c.JSON(sum)
	}
}
