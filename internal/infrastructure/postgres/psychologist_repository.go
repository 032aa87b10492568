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

var _ repository.PsychologistRepository = (*PsychologistRepo)(nil)

const psychologistColumns = `
	id, first_name, last_name, COALESCE(sex, ''), fiscal_code, vat_number, address,
	COALESCE(postal_code, ''), COALESCE(city, ''), COALESCE(province, ''), COALESCE(phone, ''),
	COALESCE(email, ''), COALESCE(registration_number, ''), COALESCE(registration_region, ''),
	COALESCE(pec, ''), preferred, einvoicing_enabled, COALESCE(recipient_code, ''), tax_regime,
	created_at, updated_at`

// PsychologistRepo persistencia de los profesionales.
type PsychologistRepo struct {
	q Querier
}

// NewPsychologistRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPsychologistRepository(q Querier) *PsychologistRepo {
	return &PsychologistRepo{q: q}
}

// Create inserta el profesional; asigna ID y timestamps si faltan.
func (r *PsychologistRepo) Create(ctx context.Context, p *entity.Psychologist) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	query := `
		INSERT INTO psychologists (id, first_name, last_name, sex, fiscal_code, vat_number, address,
			postal_code, city, province, phone, email, registration_number, registration_region, pec,
			preferred, einvoicing_enabled, recipient_code, tax_regime, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.FirstName, p.LastName, nullIfEmpty(p.Sex), p.FiscalCode, p.VATNumber, p.Address,
		nullIfEmpty(p.PostalCode), nullIfEmpty(p.City), nullIfEmpty(p.Province), nullIfEmpty(p.Phone),
		nullIfEmpty(p.Email), nullIfEmpty(p.RegistrationNumber), nullIfEmpty(p.RegistrationRegion),
		nullIfEmpty(p.PEC), p.Preferred, p.EInvoicingEnabled, nullIfEmpty(p.RecipientCode), p.Regime(),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: codice fiscale già registrato", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert psychologist: %w", err)
	}
	return nil
}

// GetByID nil, nil si no existe.
func (r *PsychologistRepo) GetByID(ctx context.Context, id string) (*entity.Psychologist, error) {
	p, err := scanPsychologist(r.q.QueryRow(ctx, `SELECT `+psychologistColumns+` FROM psychologists WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get psychologist: %w", err)
	}
	return p, nil
}

// List preferido primero, luego por apellido.
func (r *PsychologistRepo) List(ctx context.Context) ([]*entity.Psychologist, error) {
	rows, err := r.q.Query(ctx, `SELECT `+psychologistColumns+` FROM psychologists ORDER BY preferred DESC, last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("list psychologists: %w", err)
	}
	defer rows.Close()

	var out []*entity.Psychologist
	for rows.Next() {
		p, err := scanPsychologist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan psychologist: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update reemplaza los datos del profesional (no toca preferred).
func (r *PsychologistRepo) Update(ctx context.Context, p *entity.Psychologist) error {
	p.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE psychologists
		SET first_name = $2, last_name = $3, sex = $4, fiscal_code = $5, vat_number = $6, address = $7,
		    postal_code = $8, city = $9, province = $10, phone = $11, email = $12,
		    registration_number = $13, registration_region = $14, pec = $15,
		    einvoicing_enabled = $16, recipient_code = $17, tax_regime = $18, updated_at = $19
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		p.ID, p.FirstName, p.LastName, nullIfEmpty(p.Sex), p.FiscalCode, p.VATNumber, p.Address,
		nullIfEmpty(p.PostalCode), nullIfEmpty(p.City), nullIfEmpty(p.Province), nullIfEmpty(p.Phone),
		nullIfEmpty(p.Email), nullIfEmpty(p.RegistrationNumber), nullIfEmpty(p.RegistrationRegion),
		nullIfEmpty(p.PEC), p.EInvoicingEnabled, nullIfEmpty(p.RecipientCode), p.Regime(), p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: codice fiscale già registrato", domain.ErrDuplicate)
		}
		return fmt.Errorf("update psychologist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el profesional. Falla con ErrConflict si tiene parcelle.
func (r *PsychologistRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM psychologists WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: il psicologo ha fatture associate", domain.ErrConflict)
		}
		return fmt.Errorf("delete psychologist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetPreferred desmarca el preferido actual y marca id, en una sola transacción.
func (r *PsychologistRepo) SetPreferred(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE psychologists SET preferred = false WHERE preferred AND id <> $1`, id); err != nil {
			return fmt.Errorf("clear preferred: %w", err)
		}
		tag, err := tx.Exec(ctx, `UPDATE psychologists SET preferred = true, updated_at = now() WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("set preferred: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func scanPsychologist(row pgx.Row) (*entity.Psychologist, error) {
	var p entity.Psychologist
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Sex, &p.FiscalCode, &p.VATNumber, &p.Address,
		&p.PostalCode, &p.City, &p.Province, &p.Phone,
		&p.Email, &p.RegistrationNumber, &p.RegistrationRegion,
		&p.PEC, &p.Preferred, &p.EInvoicingEnabled, &p.RecipientCode, &p.TaxRegime,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
