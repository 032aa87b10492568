package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/psicofattura/internal/application/dto"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
)

// PatientHandler anagrafica de pacientes (protegido).
type PatientHandler struct {
	uc PatientService
}

// NewPatientHandler construye el handler.
func NewPatientHandler(uc PatientService) *PatientHandler {
	return &PatientHandler{uc: uc}
}

// Create godoc
// @Summary      Crear paciente
// @Tags         patients
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  entity.Patient  true  "Datos del paciente"
// @Success      201   {object}  entity.Patient
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/patients [post]
func (h *PatientHandler) Create(c *fiber.Ctx) error {
	var in entity.Patient
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo della richiesta non valido"})
	}
	out, err := h.uc.Create(c.UserContext(), &in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener paciente por ID
// @Tags         patients
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del paciente"
// @Success      200  {object}  entity.Patient
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/patients/{id} [get]
func (h *PatientHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar o buscar pacientes
// @Description  Con q busca por nombre, apellido o codice fiscale (sin distinguir mayúsculas).
// @Tags         patients
// @Security     Bearer
// @Produce      json
// @Param        q       query  string  false  "Texto a buscar"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.ListResponse[entity.Patient]
// @Router       /api/patients [get]
func (h *PatientHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parametri di paginazione non validi"})
	}
	page.DefaultPage()

	var (
		list []*entity.Patient
		err  error
	)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		list, err = h.uc.Search(c.UserContext(), q, page)
	} else {
		list, err = h.uc.List(c.UserContext(), page)
	}
	if err != nil {
		return writeError(c, err)
	}
	if list == nil {
		list = []*entity.Patient{}
	}
	return c.JSON(dto.ListResponse[*entity.Patient]{
		Items: list,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// ListByPsychologist godoc
// @Summary      Pacientes atendidos por un psicólogo, con número de sesiones
// @Tags         patients
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del psicólogo"
// @Success      200  {array}  entity.PatientSummary
// @Router       /api/psychologists/{id}/patients [get]
func (h *PatientHandler) ListByPsychologist(c *fiber.Ctx) error {
	list, err := h.uc.ListByPsychologist(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if list == nil {
		list = []*entity.PatientSummary{}
	}
	return c.JSON(list)
}

// Update godoc
// @Summary      Actualizar paciente
// @Tags         patients
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del paciente"
// @Param        body  body  entity.Patient  true  "Datos completos"
// @Success      200   {object}  entity.Patient
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/patients/{id} [put]
func (h *PatientHandler) Update(c *fiber.Ctx) error {
	var in entity.Patient
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo della richiesta non valido"})
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), &in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar paciente (sólo admin)
// @Tags         patients
// @Security     Bearer
// @Param        id   path  string  true  "ID del paciente"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/patients/{id} [delete]
func (h *PatientHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
