package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/psicofattura/internal/application/dto"
	"github.com/jhoicas/psicofattura/internal/domain"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
	dfatturapa "github.com/jhoicas/psicofattura/internal/domain/fatturapa"
	"github.com/jhoicas/psicofattura/internal/domain/repository"
)

// PatientUseCase casos de uso de los pacientes.
type PatientUseCase struct {
	repo   repository.PatientRepository
	comuni repository.ComuneRepository
	now    func() time.Time
}

// NewPatientUseCase construye el caso de uso. comuni puede ser nil.
func NewPatientUseCase(repo repository.PatientRepository, comuni repository.ComuneRepository) *PatientUseCase {
	return &PatientUseCase{repo: repo, comuni: comuni, now: time.Now}
}

// Create valida y persiste un paciente.
func (uc *PatientUseCase) Create(ctx context.Context, in *entity.Patient) (*entity.Patient, error) {
	if in == nil {
		return nil, domain.ErrInvalidInput
	}
	p := *in
	normalizePatient(&p)
	p.Province = resolveProvince(ctx, uc.comuni, p.City, p.Province)
	if err := dfatturapa.ValidatePatient(&p); err != nil {
		return nil, err
	}
	now := uc.now()
	p.ID = uuid.New().String()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := uc.repo.Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Get devuelve el paciente o ErrNotFound.
func (uc *PatientUseCase) Get(ctx context.Context, id string) (*entity.Patient, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// List pacientes paginados por apellido.
func (uc *PatientUseCase) List(ctx context.Context, page dto.PageRequest) ([]*entity.Patient, error) {
	page.DefaultPage()
	return uc.repo.List(ctx, page.Limit, page.Offset)
}

// Search busca por nombre, apellido o codice fiscale. Consulta vacía = listado.
func (uc *PatientUseCase) Search(ctx context.Context, query string, page dto.PageRequest) ([]*entity.Patient, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return uc.List(ctx, page)
	}
	page.DefaultPage()
	return uc.repo.Search(ctx, query, page.Limit)
}

// ListByPsychologist pacientes atendidos por el psicólogo con su número de parcelle.
func (uc *PatientUseCase) ListByPsychologist(ctx context.Context, psychologistID string) ([]*entity.PatientSummary, error) {
	if psychologistID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.repo.ListByPsychologist(ctx, psychologistID)
}

// Update reemplaza los datos del paciente id.
func (uc *PatientUseCase) Update(ctx context.Context, id string, in *entity.Patient) (*entity.Patient, error) {
	if in == nil {
		return nil, domain.ErrInvalidInput
	}
	current, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := *in
	normalizePatient(&p)
	p.Province = resolveProvince(ctx, uc.comuni, p.City, p.Province)
	if err := dfatturapa.ValidatePatient(&p); err != nil {
		return nil, err
	}
	p.ID = current.ID
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete elimina el paciente. ErrConflict si tiene parcelle.
func (uc *PatientUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

func normalizePatient(p *entity.Patient) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.FiscalCode = strings.ToUpper(strings.TrimSpace(p.FiscalCode))
	p.Province = strings.ToUpper(strings.TrimSpace(p.Province))
	p.RecipientCode = strings.ToUpper(strings.TrimSpace(p.RecipientCode))
}
