package repository

import (
	"context"

	"github.com/jhoicas/psicofattura/internal/domain/entity"
)

// PatientRepository puerto de persistencia de los pacientes.
type PatientRepository interface {
	Create(ctx context.Context, p *entity.Patient) error
	GetByID(ctx context.Context, id string) (*entity.Patient, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Patient, error)
	// Search busca por nombre, apellido o codice fiscale (sin distinguir mayúsculas).
	Search(ctx context.Context, query string, limit int) ([]*entity.Patient, error)
	// ListByPsychologist pacientes con al menos una parcella del psicólogo.
	ListByPsychologist(ctx context.Context, psychologistID string) ([]*entity.PatientSummary, error)
	Update(ctx context.Context, p *entity.Patient) error
	Delete(ctx context.Context, id string) error
}
