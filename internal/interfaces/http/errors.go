package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/psicofattura/internal/application/billing"
	"github.com/jhoicas/psicofattura/internal/application/dto"
	"github.com/jhoicas/psicofattura/internal/domain"
)

// writeError traduce los sentinels de domain a la respuesta de las rutas de gestión.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "dati non validi", Details: validationDetails(err),
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "risorsa non trovata"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "record già esistente"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "record in uso da altri dati"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "accesso negato"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

// validationDetails extrae los mensajes de campo de un error de validación:
// errors.Join(ErrInvalidInput, campos...) o fmt.Errorf("%w: detalle", ErrInvalidInput).
func validationDetails(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			if e == domain.ErrInvalidInput {
				continue
			}
			out = append(out, e.Error())
		}
		if len(out) > 0 {
			return out
		}
	}
	msg := strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error())
	msg = strings.TrimPrefix(msg, ": ")
	if msg == "" {
		return nil
	}
	return []string{msg}
}

// eInvoiceStatus código HTTP de cada sentinel de fatturazione elettronica.
func eInvoiceStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrEInvoicingDisabled):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrMissingInput),
		errors.Is(err, domain.ErrEInvoicingNotEnabledForIssuer),
		errors.Is(err, domain.ErrXMLValidation),
		errors.Is(err, domain.ErrUploadRejected):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrIntermediaryAuth):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrRateLimited):
		return fiber.StatusTooManyRequests
	case errors.Is(err, domain.ErrTransmission):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// writeEInvoiceError responde con el cuerpo {success:false, error, details}. Los rechazos
// del orquestador llevan su propio mensaje; el resto usa fallback y err como details.
func writeEInvoiceError(c *fiber.Ctx, err error, fallback string) error {
	status := eInvoiceStatus(err)
	var rej *billing.EInvoiceError
	if errors.As(err, &rej) {
		return c.Status(status).JSON(dto.EInvoiceErrorResponse{Error: rej.Message, Details: rej.Details})
	}
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(dto.EInvoiceErrorResponse{Error: fallback, Details: err.Error()})
	}
	return c.Status(status).JSON(dto.EInvoiceErrorResponse{Error: err.Error()})
}
