package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/psicofattura/internal/domain"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
	"github.com/jhoicas/psicofattura/internal/domain/repository"
)

var _ repository.PatientRepository = (*PatientRepo)(nil)

const patientColumns = `
	p.id, p.first_name, p.last_name, p.fiscal_code, p.birth_date, COALESCE(p.birth_place, ''),
	COALESCE(p.address, ''), COALESCE(p.postal_code, ''), COALESCE(p.city, ''), COALESCE(p.province, ''),
	COALESCE(p.phone, ''), COALESCE(p.email, ''), COALESCE(p.recipient_code, ''), COALESCE(p.pec, ''),
	COALESCE(p.notes, ''), p.data_consent, p.consent_date, p.created_at, p.updated_at`

const defaultPatientLimit = 100

// PatientRepo persistencia de los pacientes.
type PatientRepo struct {
	q Querier
}

// NewPatientRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPatientRepository(q Querier) *PatientRepo {
	return &PatientRepo{q: q}
}

// Create inserta el paciente; asigna ID y timestamps si faltan.
func (r *PatientRepo) Create(ctx context.Context, p *entity.Patient) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	query := `
		INSERT INTO patients (id, first_name, last_name, fiscal_code, birth_date, birth_place, address,
			postal_code, city, province, phone, email, recipient_code, pec, notes, data_consent, consent_date,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.FirstName, p.LastName, p.FiscalCode, dateArg(p.BirthDate), nullIfEmpty(p.BirthPlace),
		nullIfEmpty(p.Address), nullIfEmpty(p.PostalCode), nullIfEmpty(p.City), nullIfEmpty(p.Province),
		nullIfEmpty(p.Phone), nullIfEmpty(p.Email), nullIfEmpty(p.RecipientCode), nullIfEmpty(p.PEC),
		nullIfEmpty(p.Notes), p.DataConsent, dateArg(p.ConsentDate), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: codice fiscale già registrato", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

// GetByID nil, nil si no existe.
func (r *PatientRepo) GetByID(ctx context.Context, id string) (*entity.Patient, error) {
	p, err := scanPatient(r.q.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients p WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

// List orden alfabético por apellido.
func (r *PatientRepo) List(ctx context.Context, limit, offset int) ([]*entity.Patient, error) {
	if limit <= 0 {
		limit = defaultPatientLimit
	}
	return r.queryPatients(ctx,
		`SELECT `+patientColumns+` FROM patients p ORDER BY p.last_name, p.first_name LIMIT $1 OFFSET $2`,
		limit, max(offset, 0))
}

// Search por subcadena de nombre, apellido o codice fiscale.
func (r *PatientRepo) Search(ctx context.Context, query string, limit int) ([]*entity.Patient, error) {
	if limit <= 0 {
		limit = defaultPatientLimit
	}
	return r.queryPatients(ctx, `
		SELECT `+patientColumns+` FROM patients p
		WHERE p.first_name ILIKE $1 OR p.last_name ILIKE $1 OR p.fiscal_code ILIKE $1
		ORDER BY p.last_name, p.first_name LIMIT $2`,
		likePattern(query), limit)
}

// ListByPsychologist pacientes con parcelle del psicólogo, con número de parcelle y fecha de la última.
func (r *PatientRepo) ListByPsychologist(ctx context.Context, psychologistID string) ([]*entity.PatientSummary, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+patientColumns+`, count(i.id), max(i.date)
		FROM patients p
		JOIN invoices i ON i.patient_id = p.id
		WHERE i.psychologist_id = $1
		GROUP BY p.id
		ORDER BY p.last_name, p.first_name`, psychologistID)
	if err != nil {
		return nil, fmt.Errorf("list patients by psychologist: %w", err)
	}
	defer rows.Close()

	var out []*entity.PatientSummary
	for rows.Next() {
		var s entity.PatientSummary
		var birth, consent, last *time.Time
		if err := rows.Scan(append(patientDest(&s.Patient, &birth, &consent), &s.InvoiceCount, &last)...); err != nil {
			return nil, fmt.Errorf("scan patient summary: %w", err)
		}
		s.BirthDate, s.ConsentDate, s.LastInvoice = toDate(birth), toDate(consent), toDate(last)
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Update reemplaza los datos del paciente.
func (r *PatientRepo) Update(ctx context.Context, p *entity.Patient) error {
	p.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE patients
		SET first_name = $2, last_name = $3, fiscal_code = $4, birth_date = $5, birth_place = $6,
		    address = $7, postal_code = $8, city = $9, province = $10, phone = $11, email = $12,
		    recipient_code = $13, pec = $14, notes = $15, data_consent = $16, consent_date = $17,
		    updated_at = $18
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		p.ID, p.FirstName, p.LastName, p.FiscalCode, dateArg(p.BirthDate), nullIfEmpty(p.BirthPlace),
		nullIfEmpty(p.Address), nullIfEmpty(p.PostalCode), nullIfEmpty(p.City), nullIfEmpty(p.Province),
		nullIfEmpty(p.Phone), nullIfEmpty(p.Email), nullIfEmpty(p.RecipientCode), nullIfEmpty(p.PEC),
		nullIfEmpty(p.Notes), p.DataConsent, dateArg(p.ConsentDate), p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: codice fiscale già registrato", domain.ErrDuplicate)
		}
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el paciente. Falla con ErrConflict si tiene parcelle.
func (r *PatientRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: il paziente ha fatture associate", domain.ErrConflict)
		}
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PatientRepo) queryPatients(ctx context.Context, query string, args ...any) ([]*entity.Patient, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var out []*entity.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// patientDest destinos de Scan en el orden de patientColumns.
func patientDest(p *entity.Patient, birth, consent **time.Time) []any {
	return []any{
		&p.ID, &p.FirstName, &p.LastName, &p.FiscalCode, birth, &p.BirthPlace,
		&p.Address, &p.PostalCode, &p.City, &p.Province,
		&p.Phone, &p.Email, &p.RecipientCode, &p.PEC,
		&p.Notes, &p.DataConsent, consent, &p.CreatedAt, &p.UpdatedAt,
	}
}

func scanPatient(row pgx.Row) (*entity.Patient, error) {
	var p entity.Patient
	var birth, consent *time.Time
	if err := row.Scan(patientDest(&p, &birth, &consent)...); err != nil {
		return nil, err
	}
	p.BirthDate, p.ConsentDate = toDate(birth), toDate(consent)
	return &p, nil
}
