package repository

import (
	"context"

	"github.com/jhoicas/psicofattura/internal/domain/entity"
)

// PsychologistRepository puerto de persistencia de los profesionales.
type PsychologistRepository interface {
	Create(ctx context.Context, p *entity.Psychologist) error
	GetByID(ctx context.Context, id string) (*entity.Psychologist, error)
	List(ctx context.Context) ([]*entity.Psychologist, error)
	Update(ctx context.Context, p *entity.Psychologist) error
	Delete(ctx context.Context, id string) error
	// SetPreferred marca id como preferido y desmarca el resto.
	SetPreferred(ctx context.Context, id string) error
}
