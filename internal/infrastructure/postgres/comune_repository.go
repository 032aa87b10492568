package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/psicofattura/internal/domain/entity"
	"github.com/jhoicas/psicofattura/internal/domain/repository"
)

var _ repository.ComuneRepository = (*ComuneRepo)(nil)

// ComuneRepo consulta la tabla comuni (cargada por cmd/seed_comuni).
type ComuneRepo struct {
	q Querier
}

// NewComuneRepository construye el adaptador.
func NewComuneRepository(q Querier) *ComuneRepo {
	return &ComuneRepo{q: q}
}

// FindByName búsqueda exacta sin distinguir mayúsculas.
func (r *ComuneRepo) FindByName(ctx context.Context, name string) (*entity.Comune, error) {
	var c entity.Comune
	err := r.q.QueryRow(ctx,
		`SELECT istat_code, name, province FROM comuni WHERE lower(name) = lower($1) LIMIT 1`, name,
	).Scan(&c.ISTATCode, &c.Name, &c.Province)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comune: %w", err)
	}
	return &c, nil
}
