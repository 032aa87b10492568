package billing

import (
	"context"

	"github.com/jhoicas/psicofattura/internal/domain/entity"
	"github.com/jhoicas/psicofattura/internal/domain/repository"
	"github.com/jhoicas/psicofattura/internal/infrastructure/aruba"
	"github.com/jhoicas/psicofattura/internal/infrastructure/fatturapa"
	"github.com/jhoicas/psicofattura/internal/infrastructure/xlsx"
)

// Intermediary cliente del intermediario de transmisión hacia el SDI.
// Implementado por *aruba.Client.
type Intermediary interface {
	UploadInvoice(ctx context.Context, xml, filename string) (*aruba.UploadResult, error)
	GetInvoiceStatus(ctx context.Context, filename string) (*aruba.InvoiceStatus, error)
	GetNotifications(ctx context.Context, filename string) ([]aruba.Notification, error)
	TestConnection(ctx context.Context) aruba.ConnectionResult
	EnvironmentInfo() aruba.EnvironmentInfo
}

// DocumentGenerator pipeline build → serialize → validate → hash → filename.
// Implementado por *fatturapa.Generator.
type DocumentGenerator interface {
	Generate(in fatturapa.BuildInput) (*fatturapa.GeneratedDocument, error)
}

// ParcellaRenderer PDF legible de la parcella.
type ParcellaRenderer interface {
	GenerateParcella(ctx context.Context, inv *entity.Invoice, psy *entity.Psychologist, patient *entity.Patient) ([]byte, error)
}

// RegisterExporter registro de facturas en hoja de cálculo.
type RegisterExporter interface {
	Export(rows []xlsx.RegisterRow) ([]byte, error)
}

// Archiver almacenamiento de los XML generados. Devuelve la clave del objeto.
type Archiver interface {
	Archive(ctx context.Context, year int, filename, xml, hash string) (string, error)
}

// InvoiceTxRunner ejecuta fn dentro de una transacción sobre el repositorio de facturas.
type InvoiceTxRunner interface {
	RunInvoiceTx(ctx context.Context, fn func(invoices repository.InvoiceRepository) error) error
}
