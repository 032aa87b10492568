package repository

import (
	"context"
	"time"

	"github.com/jhoicas/psicofattura/internal/domain/entity"
)

// InvoiceRepository puerto de persistencia de las parcelle y su ciclo SDI.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetByUploadFilename localiza la factura por el nombre de archivo subido al intermediario.
	GetByUploadFilename(ctx context.Context, filename string) (*entity.Invoice, error)
	List(ctx context.Context, filter entity.InvoiceFilter) ([]*entity.Invoice, error)
	Update(ctx context.Context, invoice *entity.Invoice) error
	Delete(ctx context.Context, id string) error

	UpdateStatus(ctx context.Context, id, status string, paymentDate *time.Time) error
	// AttachXML guarda el XML generado, su hash y el nombre de archivo; no toca otros campos.
	AttachXML(ctx context.Context, id, xml, hash, filename string) error
	UpdateSDI(ctx context.Context, id string, upd entity.SDIUpdate) error
	AppendSDIHistory(ctx context.Context, id string, entry entity.SDIHistoryEntry) error

	// NextInvoiceNumber devuelve YYYY-NNNN según las facturas ya emitidas en el año.
	NextInvoiceNumber(ctx context.Context, year int) (string, error)
	Stats(ctx context.Context, now time.Time) (*entity.InvoiceStats, error)
}
