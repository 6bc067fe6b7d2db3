package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"certdocs/internal/apperr"
	"certdocs/internal/http/middleware"
	"certdocs/internal/lifecycle"
	"certdocs/internal/model"
	"certdocs/internal/service"
	serviceMocks "certdocs/internal/service/mocks"
)

var branchAdmin = model.Actor{ID: uuid.NewString(), Email: "adama@oocaa.local", Role: model.RoleBranchAdmin, BranchID: uuid.NewString()}

// newTestApp builds an app with the production error handler. A non-nil
// actor is injected as if Authenticate had run.
func newTestApp(actor *model.Actor) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zerolog.Nop())})
	app.Use(middleware.RequestID())
	if actor != nil {
		a := *actor
		app.Use(func(c *fiber.Ctx) error {
			c.Locals(middleware.ActorLocalKey, a)
			return c.Next()
		})
	}
	return app
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := newTestApp(nil)
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := newTestApp(nil)
	app.Get("/healthz", LivenessProbe())

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", apperr.Validation("reject reason is required"), 400, "VALIDATION_ERROR", "reject reason is required"},
		{"unauthorized", apperr.Unauthorized("invalid credentials"), 401, "UNAUTHORIZED", "invalid credentials"},
		{"forbidden", apperr.Forbidden("read-only"), 403, "FORBIDDEN", "read-only"},
		{"not found", apperr.NotFound("document"), 404, "NOT_FOUND", "document not found"},
		{"invalid transition", apperr.New(apperr.CodeInvalidTransition, "cannot move"), 409, "INVALID_TRANSITION", "cannot move"},
		{"invalid state", apperr.InvalidState("document is locked"), 409, "INVALID_STATE", "document is locked"},
		{"precondition", apperr.New(apperr.CodePreconditionFailed, "missing evidence"), 422, "PRECONDITION_FAILED", "missing evidence"},
		{"conflict", apperr.Conflict("code already in use"), 409, "CONFLICT", "code already in use"},
		{"uncoded", errors.New("pq: connection refused"), 500, "INTERNAL", "internal server error"},
		{"wrapped internal", apperr.Wrap(errors.New("boom"), apperr.CodeInternal, "secret detail"), 500, "INTERNAL", "internal server error"},
		{"fiber not found", fiber.ErrNotFound, 404, "NOT_FOUND", "resource not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(nil)
			app.Get("/x", func(c *fiber.Ctx) error { return tt.err })

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set(middleware.RequestIDHeader, "rid-1")
			resp, _ := app.Test(req)

			assert.Equal(t, tt.status, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, "rid-1", body.RequestID)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Message)
		})
	}
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp(&branchAdmin)
	app.Get("/api/documents", ListDocuments(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &service.DocumentPage{
			Items: []model.DocumentSummary{{Document: model.Document{ID: uuid.NewString(), DocNo: "OOCAA-ADAMA-2026-0007"}, AttachmentCount: 1}},
			Total: 1,
			Limit: 10,
		}
		mockSvc.On("List", mock.Anything, branchAdmin, mock.MatchedBy(func(q service.DocumentQuery) bool {
			return q.Query == "abebe" && q.Status == model.StatusSubmitted && q.Limit == 10 && q.Offset == 20 &&
				q.Dates.From != nil && q.Dates.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) &&
				q.Dates.To != nil && q.Dates.To.Equal(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
		})).Return(expected, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet,
			"/api/documents?q=abebe&status=SUBMITTED&limit=10&offset=20&date_from=2026-03-01&date_to=2026-03-31", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Data  []model.DocumentSummary `json:"data"`
			Total int                     `json:"total"`
		}
		json.NewDecoder(resp.Body).Decode(&result)
		require.Len(t, result.Data, 1)
		assert.Equal(t, "OOCAA-ADAMA-2026-0007", result.Data[0].DocNo)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents?limit=abc", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid status", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents?status=DRAFT", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("inverted date range", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents?date_from=2026-03-10&date_to=2026-03-01", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "date_to must not be before date_from", decodeError(t, resp).Error.Message)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, branchAdmin, mock.Anything).Return(nil, errors.New("service error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents", nil))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestListDocuments_NoActor(t *testing.T) {
	app := newTestApp(nil)
	app.Get("/api/documents", ListDocuments(new(serviceMocks.MockDocumentService)))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp(&branchAdmin)
	app.Post("/api/documents", CreateDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		created := &model.Document{ID: uuid.NewString(), DocNo: "OOCAA-ADAMA-2026-0007", Status: model.StatusSubmitted}
		mockSvc.On("Create", mock.Anything, branchAdmin, mock.MatchedBy(func(in service.CreateDocumentInput) bool {
			return in.CandidateName == "Abebe Kebede" && in.Occupation == "Electrician" && in.Level == "II" &&
				in.PaymentAmount != nil && in.PaymentAmount.Equal(decimal.RequireFromString("1500.50")) &&
				in.PaymentDate != nil && in.PaymentDate.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) &&
				in.PaymentReceiptNo != nil && *in.PaymentReceiptNo == "RCP-77"
		})).Return(created, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/documents", `{
			"candidate_name": "Abebe Kebede",
			"occupation": "Electrician",
			"level": "II",
			"payment_receipt_no": "RCP-77",
			"payment_amount": "1500.50",
			"payment_date": "2026-03-02",
			"payment_method": "CASH"
		}`))
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var doc model.Document
		json.NewDecoder(resp.Body).Decode(&doc)
		assert.Equal(t, "OOCAA-ADAMA-2026-0007", doc.DocNo)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing candidate name", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/documents", `{"occupation":"Electrician","level":"II"}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "candidate_name is required", decodeError(t, resp).Error.Message)
	})

	t.Run("bad payment date", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/documents",
			`{"candidate_name":"Abebe","occupation":"Electrician","level":"II","payment_date":"02/03/2026"}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "payment_date must be a date (YYYY-MM-DD)", decodeError(t, resp).Error.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/documents", `{"candidate_name":`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("forbidden", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, branchAdmin, mock.Anything).Return(nil, apperr.Forbidden("read-only")).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/documents", `{"candidate_name":"Abebe","occupation":"Electrician","level":"II"}`))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "read-only", decodeError(t, resp).Error.Message)
	})
}

func TestGetDocument_InvalidID(t *testing.T) {
	app := newTestApp(&branchAdmin)
	app.Get("/api/documents/:id", GetDocument(new(serviceMocks.MockDocumentService)))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid id format", decodeError(t, resp).Error.Message)
}

func TestUpdateDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp(&branchAdmin)
	app.Patch("/api/documents/:id", UpdateDocument(mockSvc))
	id := uuid.NewString()

	mockSvc.On("Update", mock.Anything, branchAdmin, id, mock.MatchedBy(func(in service.UpdateDocumentInput) bool {
		return in.Phone != nil && *in.Phone == "" && in.CandidateName == nil
	})).Return(nil, apperr.InvalidState("document can only be edited while SUBMITTED")).Once()

	resp, _ := app.Test(jsonRequest(http.MethodPatch, "/api/documents/"+id, `{"phone":""}`))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_STATE", decodeError(t, resp).Error.Code)
	mockSvc.AssertExpectations(t)
}

func TestChangeStatus(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp(&branchAdmin)
	app.Post("/api/documents/:id/status", ChangeStatus(mockSvc))
	id := uuid.NewString()

	t.Run("invalid transition", func(t *testing.T) {
		mockSvc.On("ChangeStatus", mock.Anything, branchAdmin, id, lifecycle.Request{To: model.StatusApproved}).
			Return(nil, apperr.New(apperr.CodeInvalidTransition, "cannot move from SUBMITTED to APPROVED")).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/documents/"+id+"/status", `{"status":"APPROVED"}`))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "INVALID_TRANSITION", decodeError(t, resp).Error.Code)
	})

	t.Run("missing evidence", func(t *testing.T) {
		mockSvc.On("ChangeStatus", mock.Anything, branchAdmin, id, lifecycle.Request{To: model.StatusReviewed}).
			Return(nil, apperr.New(apperr.CodePreconditionFailed, lifecycle.ErrMissingEvidence)).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/documents/"+id+"/status", `{"status":"REVIEWED"}`))
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("reject with reason", func(t *testing.T) {
		reason := "incomplete ID"
		mockSvc.On("ChangeStatus", mock.Anything, branchAdmin, id, lifecycle.Request{To: model.StatusRejected, RejectReason: reason}).
			Return(&model.Document{ID: id, Status: model.StatusRejected, RejectReason: &reason}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/documents/"+id+"/status", `{"status":"REJECTED","reject_reason":"incomplete ID"}`))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var doc model.Document
		json.NewDecoder(resp.Body).Decode(&doc)
		assert.Equal(t, model.StatusRejected, doc.Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/documents/"+id+"/status", `{"status":"ARCHIVED"}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	mockSvc.AssertExpectations(t)
}

func TestUploadAttachment(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp(&branchAdmin)
	app.Post("/api/documents/:id/attachments", UploadAttachment(mockSvc))
	id := uuid.NewString()

	t.Run("success", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		require.NoError(t, writer.WriteField("kind", "PAYMENT_RECEIPT"))
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="receipt.png"`)
		h.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		part.Write([]byte("png-bytes"))
		writer.Close()

		att := &model.Attachment{ID: uuid.NewString(), DocumentID: id, Kind: model.AttachmentPaymentReceipt}
		mockSvc.On("AddAttachment", mock.Anything, branchAdmin, id, mock.MatchedBy(func(up service.AttachmentUpload) bool {
			return up.Kind == model.AttachmentPaymentReceipt && up.OriginalName == "receipt.png" &&
				up.MimeType == "image/png" && up.Size == int64(len("png-bytes")) && up.Body != nil
		})).Return(att, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/documents/"+id+"/attachments", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result model.Attachment
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, att.ID, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/api/documents/"+id+"/attachments", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})
}

func TestDownloadAttachment(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp(&branchAdmin)
	app.Get("/api/attachments/:id/download", DownloadAttachment(mockSvc))
	id := uuid.NewString()

	mockSvc.On("OpenAttachment", mock.Anything, branchAdmin, id).Return(&service.AttachmentContent{
		Attachment: &model.Attachment{ID: id, MimeType: "application/pdf", OriginalName: "receipt scan.pdf"},
		Body:       io.NopCloser(strings.NewReader("%PDF-1.7")),
		Size:       8,
	}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/attachments/"+id+"/download", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="receipt scan.pdf"`, resp.Header.Get("Content-Disposition"))

	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "%PDF-1.7", string(data))
	mockSvc.AssertExpectations(t)
}

func TestAttachmentURL(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp(&branchAdmin)
	app.Get("/api/attachments/:id/url", AttachmentURL(mockSvc))
	id := uuid.NewString()

	mockSvc.On("PresignAttachment", mock.Anything, branchAdmin, id).Return("https://minio.local/signed", nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/attachments/"+id+"/url", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "https://minio.local/signed", body["url"])
}

func TestLogin(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := newTestApp(nil)
	app.Post("/auth/login", Login(mockSvc, true))

	t.Run("success sets cookie", func(t *testing.T) {
		expires := time.Now().Add(8 * time.Hour)
		mockSvc.On("Login", mock.Anything, "hq@oocaa.local", "Passw0rd!").Return(&service.LoginResult{
			Token:     "signed-token",
			ExpiresAt: expires,
			User:      &model.User{ID: uuid.NewString(), Email: "hq@oocaa.local", Role: model.RoleHQAdmin},
		}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/login", `{"email":"hq@oocaa.local","password":"Passw0rd!"}`))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var cookie *http.Cookie
		for _, ck := range resp.Cookies() {
			if ck.Name == middleware.TokenCookie {
				cookie = ck
			}
		}
		require.NotNil(t, cookie)
		assert.Equal(t, "signed-token", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)

		var body service.LoginResult
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "signed-token", body.Token)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "hq@oocaa.local", "nope").Return(nil, apperr.Unauthorized("invalid credentials")).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/login", `{"email":"hq@oocaa.local","password":"nope"}`))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "invalid credentials", decodeError(t, resp).Error.Message)
	})

	t.Run("bad email", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/login", `{"email":"hq","password":"x"}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "email must be a valid email", decodeError(t, resp).Error.Message)
	})

	mockSvc.AssertExpectations(t)
}

func TestLogout(t *testing.T) {
	app := newTestApp(nil)
	app.Post("/auth/logout", Logout(false))

	resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), middleware.TokenCookie+"=")
}

func TestAdminHandlers(t *testing.T) {
	hq := model.Actor{ID: uuid.NewString(), Role: model.RoleHQAdmin}
	branches := new(serviceMocks.MockBranchService)
	users := new(serviceMocks.MockUserService)
	app := newTestApp(&hq)
	app.Post("/api/admin/branches", CreateBranch(branches))
	app.Delete("/api/admin/branches/:id", DeleteBranch(branches))
	app.Post("/api/admin/users", CreateUser(users))
	app.Delete("/api/admin/users/:id", DeactivateUser(users))

	t.Run("create branch", func(t *testing.T) {
		branches.On("Create", mock.Anything, hq, service.BranchInput{Name: "Hawassa", Code: "hwa"}).
			Return(&model.Branch{ID: uuid.NewString(), Name: "Hawassa", Code: "HWA", IsActive: true}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/admin/branches", `{"name":"Hawassa","code":"hwa"}`))
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("branch code must be alphanumeric", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/admin/branches", `{"name":"Hawassa","code":"HW-A"}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("delete branch in use", func(t *testing.T) {
		id := uuid.NewString()
		branches.On("Delete", mock.Anything, hq, id).
			Return(apperr.Validation("cannot delete branch with users or documents; deactivate instead")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/admin/branches/"+id, nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("create user with unknown role", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/admin/users",
			`{"name":"New User","email":"new@oocaa.local","password":"Passw0rd!","role":"ROOT"}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "role must be one of: HQ_ADMIN BRANCH_ADMIN AUDITOR", decodeError(t, resp).Error.Message)
	})

	t.Run("deactivate user", func(t *testing.T) {
		id := uuid.NewString()
		users.On("Deactivate", mock.Anything, hq, id).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/admin/users/"+id, nil))
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	branches.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestReportHandlers(t *testing.T) {
	audit := new(serviceMocks.MockAuditService)
	reports := new(serviceMocks.MockReportService)
	app := newTestApp(&branchAdmin)
	app.Get("/api/audit", ListAudit(audit))
	app.Get("/api/reports/summary", ReportSummary(reports))

	audit.On("List", mock.Anything, branchAdmin, mock.MatchedBy(func(q service.AuditQuery) bool {
		return q.Action == model.AuditAction("STATUS_CHANGED") && q.DocNo == "OOCAA-ADAMA-2026-0007" && q.Page == 2 && q.PageSize == 25
	})).Return(&service.AuditPage{Items: []model.AuditLogEntry{}, Page: 2, PageSize: 25}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet,
		"/api/audit?action=STATUS_CHANGED&doc_no=OOCAA-ADAMA-2026-0007&page=2&page_size=25", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	reports.On("Summary", mock.Anything, branchAdmin, mock.MatchedBy(func(q service.ReportQuery) bool {
		return q.Dates.From != nil && q.Dates.To == nil
	})).Return(&model.ReportSummary{Total: 3}, nil).Once()

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/reports/summary?date_from=2026-01-01", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	audit.AssertExpectations(t)
	reports.AssertExpectations(t)
}

func TestRegisterRoutes_Authentication(t *testing.T) {
	authSvc := new(serviceMocks.MockAuthService)
	docSvc := new(serviceMocks.MockDocumentService)
	branchSvc := new(serviceMocks.MockBranchService)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zerolog.Nop())})
	RegisterRoutes(app, Dependencies{
		Auth:      authSvc,
		Documents: docSvc,
		Branches:  branchSvc,
		Users:     new(serviceMocks.MockUserService),
		Audit:     new(serviceMocks.MockAuditService),
		Reports:   new(serviceMocks.MockReportService),
	})

	t.Run("missing token", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents", nil))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
	})

	t.Run("bearer token", func(t *testing.T) {
		authSvc.On("Authenticate", "good-token").Return(branchAdmin, nil).Once()
		branchSvc.On("ListActive", mock.Anything).Return([]model.Branch{{Code: "ADAMA"}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/branches", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("liveness is public", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	authSvc.AssertExpectations(t)
	branchSvc.AssertExpectations(t)
}
