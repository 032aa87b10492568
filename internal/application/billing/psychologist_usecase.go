package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/psicofattura/internal/domain"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
	dfatturapa "github.com/jhoicas/psicofattura/internal/domain/fatturapa"
	"github.com/jhoicas/psicofattura/internal/domain/repository"
)

// PsychologistUseCase casos de uso de los profesionales emisores.
type PsychologistUseCase struct {
	repo   repository.PsychologistRepository
	comuni repository.ComuneRepository // opcional: completa la provincia desde el municipio
	now    func() time.Time
}

// NewPsychologistUseCase construye el caso de uso. comuni puede ser nil.
func NewPsychologistUseCase(repo repository.PsychologistRepository, comuni repository.ComuneRepository) *PsychologistUseCase {
	return &PsychologistUseCase{repo: repo, comuni: comuni, now: time.Now}
}

// Create valida y persiste un psicólogo. Si llega marcado como preferido, desmarca al resto.
func (uc *PsychologistUseCase) Create(ctx context.Context, in *entity.Psychologist) (*entity.Psychologist, error) {
	if in == nil {
		return nil, domain.ErrInvalidInput
	}
	p := *in
	normalizePsychologist(&p)
	p.Province = resolveProvince(ctx, uc.comuni, p.City, p.Province)
	if err := dfatturapa.ValidatePsychologist(&p); err != nil {
		return nil, err
	}
	now := uc.now()
	p.ID = uuid.New().String()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := uc.repo.Create(ctx, &p); err != nil {
		return nil, err
	}
	if p.Preferred {
		if err := uc.repo.SetPreferred(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// Get devuelve el psicólogo o ErrNotFound.
func (uc *PsychologistUseCase) Get(ctx context.Context, id string) (*entity.Psychologist, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// List todos los psicólogos, el preferido primero.
func (uc *PsychologistUseCase) List(ctx context.Context) ([]*entity.Psychologist, error) {
	return uc.repo.List(ctx)
}

// Update reemplaza los datos del psicólogo id conservando id y fecha de alta.
func (uc *PsychologistUseCase) Update(ctx context.Context, id string, in *entity.Psychologist) (*entity.Psychologist, error) {
	if in == nil {
		return nil, domain.ErrInvalidInput
	}
	current, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := *in
	normalizePsychologist(&p)
	p.Province = resolveProvince(ctx, uc.comuni, p.City, p.Province)
	if err := dfatturapa.ValidatePsychologist(&p); err != nil {
		return nil, err
	}
	p.ID = current.ID
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, &p); err != nil {
		return nil, err
	}
	if p.Preferred && !current.Preferred {
		if err := uc.repo.SetPreferred(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// Delete elimina el psicólogo. ErrConflict si tiene parcelle emitidas.
func (uc *PsychologistUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

// SetPreferred marca id como único preferido.
func (uc *PsychologistUseCase) SetPreferred(ctx context.Context, id string) error {
	return uc.repo.SetPreferred(ctx, id)
}

func normalizePsychologist(p *entity.Psychologist) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.FiscalCode = strings.ToUpper(strings.TrimSpace(p.FiscalCode))
	p.VATNumber = strings.TrimSpace(p.VATNumber)
	p.Province = strings.ToUpper(strings.TrimSpace(p.Province))
	p.RecipientCode = strings.ToUpper(strings.TrimSpace(p.RecipientCode))
	p.Sex = strings.ToUpper(strings.TrimSpace(p.Sex))
	if p.TaxRegime == "" {
		p.TaxRegime = entity.RegimeForfettario
	}
}

// resolveProvince devuelve province si viene informada; si no, la sigla del municipio city.
// Un fallo de la consulta deja la provincia vacía: es un dato opcional.
func resolveProvince(ctx context.Context, comuni repository.ComuneRepository, city, province string) string {
	if province != "" || comuni == nil || strings.TrimSpace(city) == "" {
		return province
	}
	c, err := comuni.FindByName(ctx, strings.TrimSpace(city))
	if err != nil || c == nil {
		return province
	}
	return c.Province
}
