package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/psicofattura/internal/application/dto"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InvoiceHandler maneja las parcelle (protegido).
type InvoiceHandler struct {
	uc InvoiceService
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// Create godoc
// @Summary      Crear parcella
// @Description  Sin numeroFattura se asigna el siguiente número del año (YYYY-NNNN).
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  entity.Invoice  true  "Datos de la parcella"
// @Success      201   {object}  entity.Invoice
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in entity.Invoice
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
// @Summary      Obtener parcella con historial SDI
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la parcella"
// @Success      200  {object}  entity.Invoice
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar parcelle
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        idPsicologo  query  string  false  "Filtro por psicólogo"
// @Param        idPaziente   query  string  false  "Filtro por paciente"
// @Param        anno         query  int     false  "Año"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {array}  entity.Invoice
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	var q dto.InvoiceListQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "filtri non validi"})
	}
	list, err := h.uc.List(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	if list == nil {
		list = []*entity.Invoice{}
	}
	return c.JSON(list)
}

// Update godoc
// @Summary      Actualizar parcella
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la parcella"
// @Param        body  body  entity.Invoice  true  "Datos completos"
// @Success      200   {object}  entity.Invoice
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [put]
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	var in entity.Invoice
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
// @Summary      Eliminar parcella (sólo admin)
// @Tags         invoices
// @Security     Bearer
// @Param        id   path  string  true  "ID de la parcella"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateStatus godoc
// @Summary      Cambiar estado de pago
// @Description  stato: emessa | pagata | annullata. pagata sin dataPagamento usa la fecha de hoy.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la parcella"
// @Param        body  body  dto.InvoiceStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  entity.Invoice
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/status [patch]
func (h *InvoiceHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.InvoiceStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo della richiesta non valido"})
	}
	out, err := h.uc.UpdateStatus(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// NextNumber godoc
// @Summary      Siguiente número de parcella
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        anno  query  int  false  "Año (por defecto el actual)"
// @Success      200   {object}  dto.NextNumberResponse
// @Router       /api/invoices/next-number [get]
func (h *InvoiceHandler) NextNumber(c *fiber.Ctx) error {
	out, err := h.uc.NextNumber(c.UserContext(), c.QueryInt("anno"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Estadísticas de facturación
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  entity.InvoiceStats
// @Router       /api/invoices/stats [get]
func (h *InvoiceHandler) Stats(c *fiber.Ctx) error {
	out, err := h.uc.Stats(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// PDF godoc
// @Summary      Descargar la parcella en PDF
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la parcella"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) PDF(c *fiber.Ctx) error {
	out, err := h.uc.PDF(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, out.Filename))
	return c.Send(out.Content)
}

// Export godoc
// @Summary      Registro de parcelle en Excel
// @Tags         invoices
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        idPsicologo  query  string  false  "Filtro por psicólogo"
// @Param        anno         query  int     false  "Año"
// @Success      200  {file}  binary
// @Router       /api/invoices/export.xlsx [get]
func (h *InvoiceHandler) Export(c *fiber.Ctx) error {
	var q dto.InvoiceListQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "filtri non validi"})
	}
	content, err := h.uc.Export(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	name := "registro_fatture.xlsx"
	if q.Year > 0 {
		name = fmt.Sprintf("registro_fatture_%d.xlsx", q.Year)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(content)
}
