package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
)

// Errores de fatturazione elettronica. Los mensajes son los que ve el cliente HTTP.
var (
	ErrEInvoicingDisabled            = errors.New("Electronic invoicing is not enabled")
	ErrEInvoicingNotEnabledForIssuer = errors.New("Electronic invoicing not enabled for this psychologist")
	ErrMissingInput                  = errors.New("Missing required data: invoice, psychologist, or patient")
	ErrMissingCredentials            = errors.New("Aruba API credentials are not configured")
	ErrXMLValidation                 = errors.New("XML validation failed")
	ErrTransmission                  = errors.New("transmission to intermediary failed")
	ErrUploadRejected                = errors.New("Failed to upload to Aruba")
	ErrIntermediaryAuth              = errors.New("Authentication failed")
	ErrRateLimited                   = errors.New("intermediary rate limit exceeded")
)
