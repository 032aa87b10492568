package repository

import (
	"context"

	"github.com/jhoicas/psicofattura/internal/domain/entity"
)

// ComuneRepository consulta del elenco de municipios.
type ComuneRepository interface {
	// FindByName búsqueda exacta sin distinguir mayúsculas; nil, nil si no existe.
	FindByName(ctx context.Context, name string) (*entity.Comune, error)
}
