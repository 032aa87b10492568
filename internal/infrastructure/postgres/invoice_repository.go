package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/psicofattura/internal/domain"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
	"github.com/jhoicas/psicofattura/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `
	id, psychologist_id, patient_id, number, date, COALESCE(description, ''), session_detail, sessions,
	COALESCE(service_type, ''), amount, vat_rate, expenses, COALESCE(notes, ''), mask_privacy,
	COALESCE(payment_method, ''), status, payment_date, COALESCE(tax_regime, ''), stamp, stamp_amount,
	electronic, COALESCE(xml_data, ''), COALESCE(xml_hash, ''), COALESCE(upload_filename, ''),
	COALESCE(sdi_id, ''), COALESCE(sdi_status, ''), sdi_errors, sdi_submission_date, sdi_last_check,
	document_type, COALESCE(original_invoice_id::text, ''), COALESCE(original_invoice_number, ''),
	COALESCE(amendment_reason, ''), COALESCE(amendment_detail, ''), COALESCE(amendment_correction, ''),
	created_at, updated_at`

const defaultInvoiceLimit = 200

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la parcella completa, incluidos los campos SDI y de nota de crédito.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now
	if inv.DocumentType == "" {
		inv.DocumentType = entity.DocumentTypeInvoice
	}
	if inv.Status == "" {
		inv.Status = entity.InvoiceStatusIssued
	}
	query := `
		INSERT INTO invoices (id, psychologist_id, patient_id, number, date, description, session_detail,
			sessions, service_type, amount, vat_rate, expenses, notes, mask_privacy, payment_method, status,
			payment_date, tax_regime, stamp, stamp_amount, electronic, xml_data, xml_hash, upload_filename,
			sdi_id, sdi_status, sdi_errors, sdi_submission_date, sdi_last_check, document_type,
			original_invoice_id, original_invoice_number, amendment_reason, amendment_detail,
			amendment_correction, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.PsychologistID, inv.PatientID, inv.Number, dateArg(inv.Date), nullIfEmpty(inv.Description),
		inv.SessionDetail, inv.Sessions, nullIfEmpty(inv.ServiceType), inv.Amount, inv.VATRate, inv.Expenses,
		nullIfEmpty(inv.Notes), inv.MaskPrivacy, nullIfEmpty(inv.PaymentMethod), inv.Status,
		dateArg(inv.PaymentDate), nullIfEmpty(inv.TaxRegime), inv.Stamp, inv.StampAmount, inv.Electronic,
		nullIfEmpty(inv.XMLData), nullIfEmpty(inv.XMLHash), nullIfEmpty(inv.UploadFilename),
		nullIfEmpty(inv.SDIID), nullIfEmpty(inv.SDIStatus), sdiErrorsArg(inv.SDIErrors),
		inv.SDISubmissionDate, inv.SDILastCheck, inv.DocumentType,
		nullIfEmpty(inv.OriginalInvoiceID), nullIfEmpty(inv.OriginalInvoiceNumber),
		nullIfEmpty(inv.AmendmentReason), nullIfEmpty(inv.AmendmentDetail), nullIfEmpty(inv.AmendmentCorrection),
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: numero fattura %s già esistente", domain.ErrDuplicate, inv.Number)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetByID factura con su historial SDI; nil, nil si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByUploadFilename nil, nil si ninguna factura fue subida con ese nombre.
func (r *InvoiceRepo) GetByUploadFilename(ctx context.Context, filename string) (*entity.Invoice, error) {
	return r.getOne(ctx, "upload_filename = $1", filename)
}

func (r *InvoiceRepo) getOne(ctx context.Context, where string, arg any) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	history, err := r.history(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.SDIHistory = history
	return inv, nil
}

// List más recientes primero. Sin historial SDI.
func (r *InvoiceRepo) List(ctx context.Context, f entity.InvoiceFilter) ([]*entity.Invoice, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.PsychologistID != "" {
		add("psychologist_id = $%d", f.PsychologistID)
	}
	if f.PatientID != "" {
		add("patient_id = $%d", f.PatientID)
	}
	if f.Year > 0 {
		add("EXTRACT(YEAR FROM date) = $%d", f.Year)
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultInvoiceLimit
	}
	args = append(args, limit, max(f.Offset, 0))
	query += fmt.Sprintf(" ORDER BY date DESC, number DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Update reemplaza los datos de negocio. XML y campos SDI sólo cambian vía AttachXML / UpdateSDI.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE invoices
		SET psychologist_id = $2, patient_id = $3, number = $4, date = $5, description = $6,
		    session_detail = $7, sessions = $8, service_type = $9, amount = $10, vat_rate = $11,
		    expenses = $12, notes = $13, mask_privacy = $14, payment_method = $15, status = $16,
		    payment_date = $17, tax_regime = $18, stamp = $19, stamp_amount = $20, electronic = $21,
		    updated_at = $22
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		inv.ID, inv.PsychologistID, inv.PatientID, inv.Number, dateArg(inv.Date), nullIfEmpty(inv.Description),
		inv.SessionDetail, inv.Sessions, nullIfEmpty(inv.ServiceType), inv.Amount, inv.VATRate,
		inv.Expenses, nullIfEmpty(inv.Notes), inv.MaskPrivacy, nullIfEmpty(inv.PaymentMethod), inv.Status,
		dateArg(inv.PaymentDate), nullIfEmpty(inv.TaxRegime), inv.Stamp, inv.StampAmount, inv.Electronic,
		inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: numero fattura %s già esistente", domain.ErrDuplicate, inv.Number)
		}
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina la parcella y su historial (ON DELETE CASCADE).
func (r *InvoiceRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: la fattura ha note di credito collegate", domain.ErrConflict)
		}
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatus cambia el estado de pago; paymentDate nil limpia la fecha.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, id, status string, paymentDate *time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE invoices SET status = $2, payment_date = $3::date, updated_at = now() WHERE id = $1`,
		id, status, paymentDate)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AttachXML guarda XML, hash y nombre de archivo y marca la factura como electrónica.
func (r *InvoiceRepo) AttachXML(ctx context.Context, id, xml, hash, filename string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET xml_data = $2, xml_hash = $3, upload_filename = $4, electronic = true, updated_at = now()
		WHERE id = $1`, id, xml, hash, filename)
	if err != nil {
		return fmt.Errorf("attach xml: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateSDI actualiza sólo los campos no nil de upd.
func (r *InvoiceRepo) UpdateSDI(ctx context.Context, id string, upd entity.SDIUpdate) error {
	var errs any
	if upd.Errors != nil {
		errs = upd.Errors
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET sdi_status          = COALESCE($2, sdi_status),
		    sdi_id              = COALESCE($3, sdi_id),
		    upload_filename     = COALESCE($4, upload_filename),
		    sdi_errors          = COALESCE($5::jsonb, sdi_errors),
		    sdi_submission_date = COALESCE($6, sdi_submission_date),
		    sdi_last_check      = COALESCE($7, sdi_last_check),
		    updated_at          = now()
		WHERE id = $1`,
		id, upd.Status, upd.SDIID, upd.UploadFilename, errs, upd.SubmissionDate, upd.LastCheck,
	)
	if err != nil {
		return fmt.Errorf("update sdi: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AppendSDIHistory agrega una transición al log SDI.
func (r *InvoiceRepo) AppendSDIHistory(ctx context.Context, id string, e entity.SDIHistoryEntry) error {
	if e.Date.IsZero() {
		e.Date = time.Now().UTC()
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO invoice_sdi_history (invoice_id, date, status, note, errors) VALUES ($1, $2, $3, $4, $5)`,
		id, e.Date, e.Status, nullIfEmpty(e.Note), sdiErrorsArg(e.Errors))
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("append sdi history: %w", err)
	}
	return nil
}

// NextInvoiceNumber YYYY-NNNN con NNNN = facturas del año + 1.
func (r *InvoiceRepo) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM invoices WHERE EXTRACT(YEAR FROM date) = $1`, year).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	return fmt.Sprintf("%d-%04d", year, n+1), nil
}

// Stats total, facturas del mes de now, facturado del mes (importo + IVA), pendientes y pagadas.
func (r *InvoiceRepo) Stats(ctx context.Context, now time.Time) (*entity.InvoiceStats, error) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	var s entity.InvoiceStats
	var revenue decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE date >= $1 AND date < $2),
		       COALESCE(sum(amount * (1 + vat_rate / 100)) FILTER (WHERE date >= $1 AND date < $2), 0),
		       count(*) FILTER (WHERE status = 'emessa'),
		       count(*) FILTER (WHERE status = 'pagata')
		FROM invoices`, from, to,
	).Scan(&s.Total, &s.Monthly, &revenue, &s.Pending, &s.Paid)
	if err != nil {
		return nil, fmt.Errorf("invoice stats: %w", err)
	}
	s.Revenue = revenue.Round(2)
	return &s, nil
}

func (r *InvoiceRepo) history(ctx context.Context, id string) ([]entity.SDIHistoryEntry, error) {
	rows, err := r.q.Query(ctx,
		`SELECT date, status, COALESCE(note, ''), errors FROM invoice_sdi_history WHERE invoice_id = $1 ORDER BY date, id`, id)
	if err != nil {
		return nil, fmt.Errorf("sdi history: %w", err)
	}
	defer rows.Close()

	var out []entity.SDIHistoryEntry
	for rows.Next() {
		var e entity.SDIHistoryEntry
		if err := rows.Scan(&e.Date, &e.Status, &e.Note, &e.Errors); err != nil {
			return nil, fmt.Errorf("scan sdi history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var date, paymentDate *time.Time
	err := row.Scan(
		&inv.ID, &inv.PsychologistID, &inv.PatientID, &inv.Number, &date, &inv.Description,
		&inv.SessionDetail, &inv.Sessions,
		&inv.ServiceType, &inv.Amount, &inv.VATRate, &inv.Expenses, &inv.Notes, &inv.MaskPrivacy,
		&inv.PaymentMethod, &inv.Status, &paymentDate, &inv.TaxRegime, &inv.Stamp, &inv.StampAmount,
		&inv.Electronic, &inv.XMLData, &inv.XMLHash, &inv.UploadFilename,
		&inv.SDIID, &inv.SDIStatus, &inv.SDIErrors, &inv.SDISubmissionDate, &inv.SDILastCheck,
		&inv.DocumentType, &inv.OriginalInvoiceID, &inv.OriginalInvoiceNumber,
		&inv.AmendmentReason, &inv.AmendmentDetail, &inv.AmendmentCorrection,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Date, inv.PaymentDate = toDate(date), toDate(paymentDate)
	return &inv, nil
}
