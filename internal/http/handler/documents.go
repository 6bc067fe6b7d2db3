package handler

import (
	"mime"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"certdocs/internal/lifecycle"
	"certdocs/internal/model"
	"certdocs/internal/service"
)

type createDocumentRequest struct {
	BranchID          string           `json:"branch_id" validate:"omitempty,uuid"`
	CandidateName     string           `json:"candidate_name" validate:"required,min=2"`
	CandidateIDNumber *string          `json:"candidate_id_number"`
	Phone             *string          `json:"phone"`
	Occupation        string           `json:"occupation" validate:"required,min=2"`
	Level             string           `json:"level" validate:"required"`
	PaymentReceiptNo  *string          `json:"payment_receipt_no"`
	PaymentAmount     *decimal.Decimal `json:"payment_amount" swaggertype:"string"`
	PaymentDate       *string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentMethod     *string          `json:"payment_method"`
}

type updateDocumentRequest struct {
	CandidateName     *string          `json:"candidate_name"`
	CandidateIDNumber *string          `json:"candidate_id_number"`
	Phone             *string          `json:"phone"`
	Occupation        *string          `json:"occupation"`
	Level             *string          `json:"level"`
	PaymentReceiptNo  *string          `json:"payment_receipt_no"`
	PaymentAmount     *decimal.Decimal `json:"payment_amount" swaggertype:"string"`
	PaymentDate       *string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentMethod     *string          `json:"payment_method"`
}

type statusRequest struct {
	Status       model.Status `json:"status" validate:"required,oneof=SUBMITTED REVIEWED APPROVED REJECTED"`
	RejectReason string       `json:"reject_reason"`
}

type documentListQuery struct {
	Query    string `query:"q"`
	Status   string `query:"status" validate:"omitempty,oneof=SUBMITTED REVIEWED APPROVED REJECTED"`
	BranchID string `query:"branch_id" validate:"omitempty,uuid"`
	DateFrom string `query:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `query:"date_to" validate:"omitempty,datetime=2006-01-02"`
	Limit    int    `query:"limit" validate:"min=0"`
	Offset   int    `query:"offset" validate:"min=0"`
}

// ListDocuments godoc
// @Summary List documents
// @Description Newest first. Branch admins only ever see their own branch.
// @Tags documents
// @Produce json
// @Param q query string false "doc number, candidate or receipt contains"
// @Param status query string false "status"
// @Param branch_id query string false "branch id"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD (inclusive)"
// @Param limit query int false "page size"
// @Param offset query int false "offset"
// @Success 200 {object} service.DocumentPage
// @Failure 400 {object} errorPayload
// @Router /api/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		var q documentListQuery
		if err := bindQuery(c, &q); err != nil {
			return err
		}
		dates, err := dateRange(q.DateFrom, q.DateTo)
		if err != nil {
			return err
		}

		res, err := svc.List(c.UserContext(), actor, service.DocumentQuery{
			Query:    q.Query,
			Status:   model.Status(q.Status),
			BranchID: q.BranchID,
			Dates:    dates,
			Limit:    q.Limit,
			Offset:   q.Offset,
		})
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// CreateDocument godoc
// @Summary Create a document
// @Tags documents
// @Accept json
// @Produce json
// @Param body body createDocumentRequest true "document"
// @Success 201 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Router /api/documents [post]
func CreateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		var req createDocumentRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		paymentDate, err := parseDate("payment_date", req.PaymentDate)
		if err != nil {
			return err
		}

		doc, err := svc.Create(c.UserContext(), actor, service.CreateDocumentInput{
			BranchID:          req.BranchID,
			CandidateName:     req.CandidateName,
			CandidateIDNumber: req.CandidateIDNumber,
			Phone:             req.Phone,
			Occupation:        req.Occupation,
			Level:             req.Level,
			PaymentReceiptNo:  req.PaymentReceiptNo,
			PaymentAmount:     req.PaymentAmount,
			PaymentDate:       paymentDate,
			PaymentMethod:     req.PaymentMethod,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument godoc
// @Summary Document detail
// @Description Document with attachments, versions and recent audit entries.
// @Tags documents
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} service.DocumentDetail
// @Failure 404 {object} errorPayload
// @Router /api/documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		detail, err := svc.Get(c.UserContext(), actor, id)
		if err != nil {
			return err
		}
		return c.JSON(detail)
	}
}

// UpdateDocument godoc
// @Summary Edit a submitted document
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "document id"
// @Param body body updateDocumentRequest true "changed fields"
// @Success 200 {object} model.Document
// @Failure 409 {object} errorPayload
// @Router /api/documents/{id} [patch]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		var req updateDocumentRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		paymentDate, err := parseDate("payment_date", req.PaymentDate)
		if err != nil {
			return err
		}

		doc, err := svc.Update(c.UserContext(), actor, id, service.UpdateDocumentInput{
			CandidateName:     req.CandidateName,
			CandidateIDNumber: req.CandidateIDNumber,
			Phone:             req.Phone,
			Occupation:        req.Occupation,
			Level:             req.Level,
			PaymentReceiptNo:  req.PaymentReceiptNo,
			PaymentAmount:     req.PaymentAmount,
			PaymentDate:       paymentDate,
			PaymentMethod:     req.PaymentMethod,
		})
		if err != nil {
			return err
		}
		return c.JSON(doc)
	}
}

// ChangeStatus godoc
// @Summary Move a document through review
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "document id"
// @Param body body statusRequest true "target status"
// @Success 200 {object} model.Document
// @Failure 409 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /api/documents/{id}/status [post]
func ChangeStatus(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		var req statusRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		doc, err := svc.ChangeStatus(c.UserContext(), actor, id, lifecycle.Request{
			To:           req.Status,
			RejectReason: req.RejectReason,
		})
		if err != nil {
			return err
		}
		return c.JSON(doc)
	}
}

// UploadAttachment godoc
// @Summary Attach a file
// @Description multipart/form-data with fields "file" and "kind".
// @Tags attachments
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "document id"
// @Param kind formData string true "PAYMENT_RECEIPT or SUPPORTING"
// @Param file formData file true "pdf, png or jpeg"
// @Success 201 {object} model.Attachment
// @Failure 400 {object} errorPayload
// @Router /api/documents/{id}/attachments [post]
func UploadAttachment(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get(fiber.HeaderContentType)
		if ct == "" {
			ct = "application/octet-stream"
		}

		att, err := svc.AddAttachment(c.UserContext(), actor, id, service.AttachmentUpload{
			Kind:         model.AttachmentKind(c.FormValue("kind")),
			OriginalName: fh.Filename,
			MimeType:     ct,
			Size:         fh.Size,
			Body:         f,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(att)
	}
}

// DownloadAttachment godoc
// @Summary Download an attachment
// @Tags attachments
// @Produce octet-stream
// @Param id path string true "attachment id"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Router /api/attachments/{id}/download [get]
func DownloadAttachment(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}

		content, err := svc.OpenAttachment(c.UserContext(), actor, id)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, content.Attachment.MimeType)
		c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{
			"filename": content.Attachment.OriginalName,
		}))
		// fasthttp closes the body once streamed
		return c.SendStream(content.Body, int(content.Size))
	}
}

// AttachmentURL godoc
// @Summary Short-lived download URL
// @Tags attachments
// @Produce json
// @Param id path string true "attachment id"
// @Success 200 {object} map[string]string
// @Router /api/attachments/{id}/url [get]
func AttachmentURL(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		url, err := svc.PresignAttachment(c.UserContext(), actor, id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"url": url})
	}
}
