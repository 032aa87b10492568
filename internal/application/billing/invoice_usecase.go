package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/psicofattura/internal/application/dto"
	"github.com/jhoicas/psicofattura/internal/domain"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
	dfatturapa "github.com/jhoicas/psicofattura/internal/domain/fatturapa"
	"github.com/jhoicas/psicofattura/internal/domain/repository"
	"github.com/jhoicas/psicofattura/internal/infrastructure/pdf"
	"github.com/jhoicas/psicofattura/internal/infrastructure/xlsx"
)

// exportLimit máximo de filas del registro exportado.
const exportLimit = 10000

var defaultStampAmount = decimal.RequireFromString("2.00")

// InvoiceUseCase casos de uso de las parcelle: registro, estado de pago, numeración,
// estadísticas, PDF y exportación.
type InvoiceUseCase struct {
	invoices      repository.InvoiceRepository
	psychologists repository.PsychologistRepository
	patients      repository.PatientRepository
	renderer      ParcellaRenderer
	exporter      RegisterExporter
	now           func() time.Time
}

// NewInvoiceUseCase construye el caso de uso. renderer y exporter pueden ser nil
// si no se exponen PDF ni exportación.
func NewInvoiceUseCase(
	invoices repository.InvoiceRepository,
	psychologists repository.PsychologistRepository,
	patients repository.PatientRepository,
	renderer ParcellaRenderer,
	exporter RegisterExporter,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		invoices:      invoices,
		psychologists: psychologists,
		patients:      patients,
		renderer:      renderer,
		exporter:      exporter,
		now:           time.Now,
	}
}

// Create registra una parcella. Sin número se asigna el siguiente del año de la fecha.
// Los campos del ciclo SDI no se aceptan en la entrada.
func (uc *InvoiceUseCase) Create(ctx context.Context, in *entity.Invoice) (*entity.Invoice, error) {
	if in == nil {
		return nil, domain.ErrInvalidInput
	}
	inv := *in
	clearSDI(&inv)
	if inv.Date.IsZero() {
		now := uc.now()
		inv.Date = entity.NewDate(now.Year(), now.Month(), now.Day())
	}
	psy, err := uc.applyDefaults(ctx, &inv)
	if err != nil {
		return nil, err
	}
	if inv.TaxRegime == "" {
		inv.TaxRegime = psy.Regime()
	}
	if inv.Number == "" {
		number, err := uc.invoices.NextInvoiceNumber(ctx, inv.Date.Year())
		if err != nil {
			return nil, err
		}
		inv.Number = number
	}
	if err := dfatturapa.ValidateInvoice(&inv); err != nil {
		return nil, err
	}

	now := uc.now()
	inv.ID = uuid.New().String()
	inv.CreatedAt, inv.UpdatedAt = now, now
	if err := uc.invoices.Create(ctx, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Get devuelve la parcella con su historial SDI o ErrNotFound.
func (uc *InvoiceUseCase) Get(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, err := uc.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

// List parcelle filtradas por psicólogo, paciente y año.
func (uc *InvoiceUseCase) List(ctx context.Context, q dto.InvoiceListQuery) ([]*entity.Invoice, error) {
	return uc.invoices.List(ctx, q.Filter())
}

// Update reemplaza los datos de negocio de la parcella. El estado SDI, el XML y el
// vínculo con la factura original se conservan.
func (uc *InvoiceUseCase) Update(ctx context.Context, id string, in *entity.Invoice) (*entity.Invoice, error) {
	if in == nil {
		return nil, domain.ErrInvalidInput
	}
	current, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	inv := *in
	inv.ID = current.ID
	keepSDI(&inv, current)
	inv.DocumentType = current.DocumentType
	inv.OriginalInvoiceID = current.OriginalInvoiceID
	inv.OriginalInvoiceNumber = current.OriginalInvoiceNumber
	if inv.Number == "" {
		inv.Number = current.Number
	}
	if inv.Date.IsZero() {
		inv.Date = current.Date
	}
	if _, err := uc.applyDefaults(ctx, &inv); err != nil {
		return nil, err
	}
	if err := dfatturapa.ValidateInvoice(&inv); err != nil {
		return nil, err
	}
	inv.CreatedAt = current.CreatedAt
	inv.UpdatedAt = uc.now()
	if err := uc.invoices.Update(ctx, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Delete elimina la parcella y su historial SDI.
func (uc *InvoiceUseCase) Delete(ctx context.Context, id string) error {
	return uc.invoices.Delete(ctx, id)
}

// UpdateStatus cambia el estado de pago. "pagata" sin fecha toma la de hoy; los demás
// estados borran la fecha de pago.
func (uc *InvoiceUseCase) UpdateStatus(ctx context.Context, id string, in dto.InvoiceStatusRequest) (*entity.Invoice, error) {
	switch in.Status {
	case entity.InvoiceStatusIssued, entity.InvoiceStatusPaid, entity.InvoiceStatusVoided:
	default:
		return nil, fmt.Errorf("%w: stato non valido: %q", domain.ErrInvalidInput, in.Status)
	}
	var paid *time.Time
	if in.Status == entity.InvoiceStatusPaid {
		d := in.PaymentDate.Time
		if in.PaymentDate.IsZero() {
			now := uc.now()
			d = entity.NewDate(now.Year(), now.Month(), now.Day()).Time
		}
		paid = &d
	}
	if err := uc.invoices.UpdateStatus(ctx, id, in.Status, paid); err != nil {
		return nil, err
	}
	return uc.Get(ctx, id)
}

// NextNumber siguiente número YYYY-NNNN. year <= 0 = año en curso.
func (uc *InvoiceUseCase) NextNumber(ctx context.Context, year int) (*dto.NextNumberResponse, error) {
	if year <= 0 {
		year = uc.now().Year()
	}
	number, err := uc.invoices.NextInvoiceNumber(ctx, year)
	if err != nil {
		return nil, err
	}
	return &dto.NextNumberResponse{Number: number}, nil
}

// Stats totales del tablero respecto al mes en curso.
func (uc *InvoiceUseCase) Stats(ctx context.Context) (*entity.InvoiceStats, error) {
	return uc.invoices.Stats(ctx, uc.now())
}

// PDF genera la parcella legible de la factura id.
func (uc *InvoiceUseCase) PDF(ctx context.Context, id string) (*dto.PDFResult, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("billing: generador PDF no configurado")
	}
	inv, psy, patient, err := loadTriple(ctx, uc.invoices, uc.psychologists, uc.patients, id)
	if err != nil {
		return nil, err
	}
	content, err := uc.renderer.GenerateParcella(ctx, inv, psy, patient)
	if err != nil {
		return nil, err
	}
	return &dto.PDFResult{Filename: pdf.Filename(inv, patient), Content: content}, nil
}

// Export registro .xlsx de las parcelle que cumplen el filtro.
func (uc *InvoiceUseCase) Export(ctx context.Context, q dto.InvoiceListQuery) ([]byte, error) {
	if uc.exporter == nil {
		return nil, fmt.Errorf("billing: exportador no configurado")
	}
	filter := q.Filter()
	filter.Limit, filter.Offset = exportLimit, 0
	list, err := uc.invoices.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	rows := make([]xlsx.RegisterRow, 0, len(list))
	for _, inv := range list {
		name, ok := names[inv.PatientID]
		if !ok {
			p, err := uc.patients.GetByID(ctx, inv.PatientID)
			if err != nil {
				return nil, err
			}
			if p != nil {
				name = p.LastName + " " + p.FirstName
			}
			names[inv.PatientID] = name
		}
		rows = append(rows, xlsx.RegisterRow{Invoice: inv, PatientName: name})
	}
	return uc.exporter.Export(rows)
}

// applyDefaults completa valores por defecto y comprueba que psicólogo y paciente existan.
func (uc *InvoiceUseCase) applyDefaults(ctx context.Context, inv *entity.Invoice) (*entity.Psychologist, error) {
	if inv.Status == "" {
		inv.Status = entity.InvoiceStatusIssued
	}
	if inv.Sessions == 0 {
		inv.Sessions = 1
	}
	if inv.DocumentType == "" {
		inv.DocumentType = entity.DocumentTypeInvoice
	}
	if inv.StampAmount.IsZero() {
		inv.StampAmount = defaultStampAmount
	}
	if inv.PsychologistID == "" || inv.PatientID == "" {
		return nil, fmt.Errorf("%w: psicologo e paziente obbligatori", domain.ErrInvalidInput)
	}
	psy, err := uc.psychologists.GetByID(ctx, inv.PsychologistID)
	if err != nil {
		return nil, err
	}
	if psy == nil {
		return nil, fmt.Errorf("%w: psicologo %s inesistente", domain.ErrInvalidInput, inv.PsychologistID)
	}
	patient, err := uc.patients.GetByID(ctx, inv.PatientID)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, fmt.Errorf("%w: paziente %s inesistente", domain.ErrInvalidInput, inv.PatientID)
	}
	return psy, nil
}

// loadTriple carga la factura id con su emisor y su destinatario.
func loadTriple(
	ctx context.Context,
	invoices repository.InvoiceRepository,
	psychologists repository.PsychologistRepository,
	patients repository.PatientRepository,
	id string,
) (*entity.Invoice, *entity.Psychologist, *entity.Patient, error) {
	inv, err := invoices.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if inv == nil {
		return nil, nil, nil, domain.ErrNotFound
	}
	psy, err := psychologists.GetByID(ctx, inv.PsychologistID)
	if err != nil {
		return nil, nil, nil, err
	}
	patient, err := patients.GetByID(ctx, inv.PatientID)
	if err != nil {
		return nil, nil, nil, err
	}
	if psy == nil || patient == nil {
		return nil, nil, nil, fmt.Errorf("%w: psicologo o paziente della fattura %s inesistente", domain.ErrNotFound, id)
	}
	return inv, psy, patient, nil
}

func clearSDI(inv *entity.Invoice) {
	inv.XMLData, inv.XMLHash, inv.UploadFilename = "", "", ""
	inv.SDIID, inv.SDIStatus = "", ""
	inv.SDIErrors, inv.SDIHistory = nil, nil
	inv.SDISubmissionDate, inv.SDILastCheck = nil, nil
}

func keepSDI(dst, src *entity.Invoice) {
	dst.Electronic = src.Electronic
	dst.XMLData, dst.XMLHash, dst.UploadFilename = src.XMLData, src.XMLHash, src.UploadFilename
	dst.SDIID, dst.SDIStatus = src.SDIID, src.SDIStatus
	dst.SDIErrors, dst.SDIHistory = src.SDIErrors, src.SDIHistory
	dst.SDISubmissionDate, dst.SDILastCheck = src.SDISubmissionDate, src.SDILastCheck
}
