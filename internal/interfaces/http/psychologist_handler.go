package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/psicofattura/internal/application/dto"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
)

// PsychologistHandler anagrafica de psicólogos (protegido).
type PsychologistHandler struct {
	uc PsychologistService
}

// NewPsychologistHandler construye el handler.
func NewPsychologistHandler(uc PsychologistService) *PsychologistHandler {
	return &PsychologistHandler{uc: uc}
}

// Create godoc
// @Summary      Crear psicólogo
// @Tags         psychologists
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  entity.Psychologist  true  "Datos anagráficos y fiscales"
// @Success      201   {object}  entity.Psychologist
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/psychologists [post]
func (h *PsychologistHandler) Create(c *fiber.Ctx) error {
	var in entity.Psychologist
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
// @Summary      Obtener psicólogo por ID
// @Tags         psychologists
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del psicólogo"
// @Success      200  {object}  entity.Psychologist
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/psychologists/{id} [get]
func (h *PsychologistHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar psicólogos (el preferido primero)
// @Tags         psychologists
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  entity.Psychologist
// @Router       /api/psychologists [get]
func (h *PsychologistHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	if list == nil {
		list = []*entity.Psychologist{}
	}
	return c.JSON(list)
}

// Update godoc
// @Summary      Actualizar psicólogo
// @Tags         psychologists
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del psicólogo"
// @Param        body  body  entity.Psychologist  true  "Datos completos"
// @Success      200   {object}  entity.Psychologist
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/psychologists/{id} [put]
func (h *PsychologistHandler) Update(c *fiber.Ctx) error {
	var in entity.Psychologist
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
// @Summary      Eliminar psicólogo (sólo admin)
// @Tags         psychologists
// @Security     Bearer
// @Param        id   path  string  true  "ID del psicólogo"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/psychologists/{id} [delete]
func (h *PsychologistHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetPreferred godoc
// @Summary      Marcar psicólogo preferido
// @Tags         psychologists
// @Security     Bearer
// @Param        id   path  string  true  "ID del psicólogo"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/psychologists/{id}/preferred [put]
func (h *PsychologistHandler) SetPreferred(c *fiber.Ctx) error {
	if err := h.uc.SetPreferred(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
