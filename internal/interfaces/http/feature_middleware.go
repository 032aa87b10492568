package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/psicofattura/internal/application/dto"
	"github.com/jhoicas/psicofattura/internal/domain"
)

// featureChecker es el contrato mínimo que necesita el middleware; lo implementa
// *billing.EInvoiceService.
type featureChecker interface {
	Enabled() bool
}

// RequireEInvoicing corta con 503 las rutas de fatturazione elettronica cuando
// FEATURE_ELECTRONIC_INVOICING está apagado. test-connection y test-mock no lo usan:
// deben responder también con la función deshabilitada.
func RequireEInvoicing(checker featureChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if checker == nil || !checker.Enabled() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.EInvoiceErrorResponse{
				Error: domain.ErrEInvoicingDisabled.Error(),
			})
		}
		return c.Next()
	}
}
