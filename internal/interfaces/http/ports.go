package http

import (
	"context"

	"github.com/jhoicas/psicofattura/internal/application/dto"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
)

// Contratos que los handlers necesitan de la capa de aplicación. Los implementan
// *auth.AuthUseCase, *billing.PsychologistUseCase, *billing.PatientUseCase,
// *billing.InvoiceUseCase y *billing.EInvoiceService.

// AuthService registro y login.
type AuthService interface {
	RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error)
}

// PsychologistService anagrafica de profesionales.
type PsychologistService interface {
	Create(ctx context.Context, in *entity.Psychologist) (*entity.Psychologist, error)
	Get(ctx context.Context, id string) (*entity.Psychologist, error)
	List(ctx context.Context) ([]*entity.Psychologist, error)
	Update(ctx context.Context, id string, in *entity.Psychologist) (*entity.Psychologist, error)
	Delete(ctx context.Context, id string) error
	SetPreferred(ctx context.Context, id string) error
}

// PatientService anagrafica de pacientes.
type PatientService interface {
	Create(ctx context.Context, in *entity.Patient) (*entity.Patient, error)
	Get(ctx context.Context, id string) (*entity.Patient, error)
	List(ctx context.Context, page dto.PageRequest) ([]*entity.Patient, error)
	Search(ctx context.Context, query string, page dto.PageRequest) ([]*entity.Patient, error)
	ListByPsychologist(ctx context.Context, psychologistID string) ([]*entity.PatientSummary, error)
	Update(ctx context.Context, id string, in *entity.Patient) (*entity.Patient, error)
	Delete(ctx context.Context, id string) error
}

// InvoiceService parcelle, estado de pago, PDF y registro XLSX.
type InvoiceService interface {
	Create(ctx context.Context, in *entity.Invoice) (*entity.Invoice, error)
	Get(ctx context.Context, id string) (*entity.Invoice, error)
	List(ctx context.Context, q dto.InvoiceListQuery) ([]*entity.Invoice, error)
	Update(ctx context.Context, id string, in *entity.Invoice) (*entity.Invoice, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, in dto.InvoiceStatusRequest) (*entity.Invoice, error)
	NextNumber(ctx context.Context, year int) (*dto.NextNumberResponse, error)
	Stats(ctx context.Context) (*entity.InvoiceStats, error)
	PDF(ctx context.Context, id string) (*dto.PDFResult, error)
	Export(ctx context.Context, q dto.InvoiceListQuery) ([]byte, error)
}

// EInvoicingService flujos de fatturazione elettronica.
type EInvoicingService interface {
	Enabled() bool
	GenerateXML(ctx context.Context, req dto.GenerateXMLRequest) (*dto.GenerateXMLResponse, error)
	Send(ctx context.Context, req dto.SendRequest) (*dto.SendResponse, error)
	Status(ctx context.Context, filename string) (*dto.StatusResponse, error)
	StatusAction(ctx context.Context, filename, action string) (any, error)
	Amend(ctx context.Context, req dto.AmendRequest) (*dto.AmendResponse, error)
	TestConnection(ctx context.Context) *dto.ConnectionTestResponse
	Demo(ctx context.Context, kind string) (*dto.DemoResponse, error)
}
