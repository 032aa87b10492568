package http

import (
	"net/url"
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/psicofattura/internal/application/dto"
)

// EInvoiceHandler rutas /api/fattura-elettronica. Los errores conservan la forma
// {success:false, error, details} del cliente web.
type EInvoiceHandler struct {
	svc EInvoicingService
}

// NewEInvoiceHandler construye el handler.
func NewEInvoiceHandler(svc EInvoicingService) *EInvoiceHandler {
	return &EInvoiceHandler{svc: svc}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.EInvoiceErrorResponse{Error: "Invalid request body"})
}

// GenerateXML godoc
// @Summary      Generar XML FatturaPA
// @Description  Acepta la tríada en línea (invoice, psychologist, patient) o invoiceId de una parcella guardada.
// @Tags         fattura-elettronica
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.GenerateXMLRequest  true  "Datos de la parcella"
// @Success      200   {object}  dto.GenerateXMLResponse
// @Failure      400   {object}  dto.EInvoiceErrorResponse
// @Failure      503   {object}  dto.EInvoiceErrorResponse
// @Router       /api/fattura-elettronica/generate-xml [post]
func (h *EInvoiceHandler) GenerateXML(c *fiber.Ctx) error {
	var req dto.GenerateXMLRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.GenerateXML(c.UserContext(), req)
	if err != nil {
		return writeEInvoiceError(c, err, "Failed to generate XML")
	}
	return c.JSON(out)
}

// Send godoc
// @Summary      Enviar XML al intermediario
// @Tags         fattura-elettronica
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SendRequest  true  "xmlData, filename e invoiceId opcional"
// @Success      200   {object}  dto.SendResponse
// @Failure      400   {object}  dto.EInvoiceErrorResponse
// @Failure      401   {object}  dto.EInvoiceErrorResponse
// @Failure      429   {object}  dto.EInvoiceErrorResponse
// @Router       /api/fattura-elettronica/send [post]
func (h *EInvoiceHandler) Send(c *fiber.Ctx) error {
	var req dto.SendRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.Send(c.UserContext(), req)
	if err != nil {
		return writeEInvoiceError(c, err, "Failed to send invoice to Aruba")
	}
	return c.JSON(out)
}

// Status godoc
// @Summary      Estado SDI de un archivo subido
// @Tags         fattura-elettronica
// @Security     Bearer
// @Produce      json
// @Param        filename  path  string  true  "Nombre del archivo en el intermediario"
// @Success      200  {object}  dto.StatusResponse
// @Failure      404  {object}  dto.EInvoiceErrorResponse
// @Router       /api/fattura-elettronica/status/{filename} [get]
func (h *EInvoiceHandler) Status(c *fiber.Ctx) error {
	out, err := h.svc.Status(c.UserContext(), filenameParam(c))
	if err != nil {
		return writeEInvoiceError(c, err, "Failed to check invoice status")
	}
	return c.JSON(out)
}

// StatusAction godoc
// @Summary      Acción sobre un archivo subido
// @Description  action: check-status | get-notifications
// @Tags         fattura-elettronica
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        filename  path  string  true  "Nombre del archivo en el intermediario"
// @Param        body      body  dto.StatusActionRequest  true  "Acción"
// @Success      200  {object}  dto.StatusResponse
// @Failure      400  {object}  dto.EInvoiceErrorResponse
// @Router       /api/fattura-elettronica/status/{filename} [post]
func (h *EInvoiceHandler) StatusAction(c *fiber.Ctx) error {
	var req dto.StatusActionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.StatusAction(c.UserContext(), filenameParam(c), req.Action)
	if err != nil {
		return writeEInvoiceError(c, err, "Failed to perform status action")
	}
	return c.JSON(out)
}

// Amend godoc
// @Summary      Nota di credito sobre una parcella
// @Tags         fattura-elettronica
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AmendRequest  true  "Parcella original, tríada y datos de la rectificación"
// @Success      200   {object}  dto.AmendResponse
// @Failure      400   {object}  dto.EInvoiceErrorResponse
// @Failure      503   {object}  dto.EInvoiceErrorResponse
// @Router       /api/fattura-elettronica/amend [post]
func (h *EInvoiceHandler) Amend(c *fiber.Ctx) error {
	var req dto.AmendRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.Amend(c.UserContext(), req)
	if err != nil {
		return writeEInvoiceError(c, err, "Failed to create credit note")
	}
	return c.JSON(out)
}

// TestConnection godoc
// @Summary      Probar credenciales y conectividad con el intermediario
// @Tags         fattura-elettronica
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ConnectionTestResponse
// @Router       /api/fattura-elettronica/test-connection [get]
func (h *EInvoiceHandler) TestConnection(c *fiber.Ctx) error {
	return c.JSON(h.svc.TestConnection(c.UserContext()))
}

// Demo godoc
// @Summary      Pruebas de demostración con datos de ejemplo
// @Tags         fattura-elettronica
// @Security     Bearer
// @Produce      json
// @Param        test  query  string  false  "connection | xml | upload | status | full"  default(connection)
// @Success      200  {object}  dto.DemoResponse
// @Failure      400  {object}  dto.EInvoiceErrorResponse
// @Router       /api/fattura-elettronica/test-mock [get]
func (h *EInvoiceHandler) Demo(c *fiber.Ctx) error {
	kind := c.Query("test", dto.DemoConnection)
	if !slices.Contains(dto.DemoKinds, kind) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":        false,
			"error":          "Invalid test type",
			"availableTests": dto.DemoKinds,
		})
	}
	out, err := h.svc.Demo(c.UserContext(), kind)
	if err != nil {
		return writeEInvoiceError(c, err, "Test failed")
	}
	return c.JSON(out)
}

func filenameParam(c *fiber.Ctx) string {
	raw := c.Params("filename")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}
