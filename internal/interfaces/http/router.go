package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/psicofattura/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         AuthService
	PsychologistUC PsychologistService
	PatientUC      PatientService
	InvoiceUC      InvoiceService
	EInvoicing     EInvoicingService
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleSegreteria)
	adminOnly := RequireRole(entity.RoleAdmin)

	// Psicólogos
	psychologists := protected.Group("/psychologists", anyRole)
	psychologistHandler := NewPsychologistHandler(deps.PsychologistUC)
	patientHandler := NewPatientHandler(deps.PatientUC)
	psychologists.Get("/", psychologistHandler.List)
	psychologists.Post("/", psychologistHandler.Create)
	psychologists.Get("/:id", psychologistHandler.GetByID)
	psychologists.Put("/:id", psychologistHandler.Update)
	psychologists.Delete("/:id", adminOnly, psychologistHandler.Delete)
	psychologists.Put("/:id/preferred", psychologistHandler.SetPreferred)
	psychologists.Get("/:id/patients", patientHandler.ListByPsychologist)

	// Pacientes
	patients := protected.Group("/patients", anyRole)
	patients.Get("/", patientHandler.List)
	patients.Post("/", patientHandler.Create)
	patients.Get("/:id", patientHandler.GetByID)
	patients.Put("/:id", patientHandler.Update)
	patients.Delete("/:id", adminOnly, patientHandler.Delete)

	// Parcelle (las rutas fijas antes de /:id)
	invoices := protected.Group("/invoices", anyRole)
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC)
	invoices.Get("/next-number", invoiceHandler.NextNumber)
	invoices.Get("/stats", invoiceHandler.Stats)
	invoices.Get("/export.xlsx", invoiceHandler.Export)
	invoices.Get("/", invoiceHandler.List)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Put("/:id", invoiceHandler.Update)
	invoices.Delete("/:id", adminOnly, invoiceHandler.Delete)
	invoices.Patch("/:id/status", invoiceHandler.UpdateStatus)
	invoices.Get("/:id/pdf", invoiceHandler.PDF)

	// Fatturazione elettronica
	fe := protected.Group("/fattura-elettronica", anyRole)
	feHandler := NewEInvoiceHandler(deps.EInvoicing)
	enabled := RequireEInvoicing(deps.EInvoicing)
	fe.Post("/generate-xml", enabled, feHandler.GenerateXML)
	fe.Post("/send", enabled, feHandler.Send)
	fe.Get("/status/:filename", enabled, feHandler.Status)
	fe.Post("/status/:filename", enabled, feHandler.StatusAction)
	fe.Post("/amend", enabled, feHandler.Amend)
	fe.Get("/test-connection", feHandler.TestConnection)
	fe.Get("/test-mock", feHandler.Demo)
}
