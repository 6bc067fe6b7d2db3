package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certdocs/internal/http/middleware"
	"certdocs/internal/service"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	DB           *sql.DB
	Gatherer     prometheus.Gatherer
	SecureCookie bool

	Auth      service.AuthService
	Documents service.DocumentService
	Branches  service.BranchService
	Users     service.UserService
	Audit     service.AuditService
	Reports   service.ReportService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Dependencies) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	app.Get("/swagger/*", swagger.HandlerDefault)

	authn := middleware.Authenticate(d.Auth)

	a := app.Group("/auth")
	a.Post("/login", Login(d.Auth, d.SecureCookie))
	a.Post("/logout", Logout(d.SecureCookie))
	a.Get("/me", authn, Me(d.Auth))

	api := app.Group("/api", authn)
	api.Get("/branches", ListActiveBranches(d.Branches))

	api.Get("/documents", ListDocuments(d.Documents))
	api.Post("/documents", CreateDocument(d.Documents))
	api.Get("/documents/:id", GetDocument(d.Documents))
	api.Patch("/documents/:id", UpdateDocument(d.Documents))
	api.Post("/documents/:id/status", ChangeStatus(d.Documents))
	api.Post("/documents/:id/attachments", UploadAttachment(d.Documents))
	api.Get("/attachments/:id/download", DownloadAttachment(d.Documents))
	api.Get("/attachments/:id/url", AttachmentURL(d.Documents))

	api.Get("/audit", ListAudit(d.Audit))
	api.Get("/reports/summary", ReportSummary(d.Reports))

	admin := api.Group("/admin")
	admin.Get("/branches", ListBranches(d.Branches))
	admin.Post("/branches", CreateBranch(d.Branches))
	admin.Patch("/branches/:id", UpdateBranch(d.Branches))
	admin.Delete("/branches/:id", DeleteBranch(d.Branches))
	admin.Get("/users", ListUsers(d.Users))
	admin.Post("/users", CreateUser(d.Users))
	admin.Patch("/users/:id", UpdateUser(d.Users))
	admin.Delete("/users/:id", DeactivateUser(d.Users))
}
