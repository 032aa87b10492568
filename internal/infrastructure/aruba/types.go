package aruba

import (
	"context"
	"time"

	"github.com/jhoicas/psicofattura/internal/domain/entity"
)

const (
	// MaxFileSize tamaño máximo del XML aceptado por el intermediario (5 MiB).
	MaxFileSize = 5 * 1024 * 1024

	defaultListLimit = 50
	maxResponseBody  = 1 << 20 // 1 MB

	// isoLayout formato de fechas intercambiado con el intermediario.
	isoLayout = "2006-01-02T15:04:05.000Z"
)

// Claves de cuota por minuto.
const (
	QuotaUpload = "aruba:upload"
	QuotaSearch = "aruba:search"
)

// RateLimiter controla las cuotas por ventana. Allow devuelve false si key superó limit en window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// AuthResponse respuesta de /auth/signin.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // segundos
	RefreshToken string `json:"refresh_token,omitempty"`
}

// UploadResult resultado de la subida. Los fallos de transporte o HTTP llegan como Success=false.
type UploadResult struct {
	Success        bool              `json:"success"`
	UploadFilename string            `json:"uploadFilename,omitempty"`
	Errors         []entity.SDIError `json:"errors"`
}

// Notification notificación SDI asociada a un archivo.
type Notification struct {
	Type        string `json:"type"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// InvoiceStatus estado de un archivo en el intermediario; Status ya normalizado a minúsculas.
type InvoiceStatus struct {
	Filename       string            `json:"filename"`
	SDIID          string            `json:"sdiId,omitempty"`
	Status         string            `json:"status"`
	SubmissionDate string            `json:"submissionDate,omitempty"`
	LastUpdate     string            `json:"lastUpdate,omitempty"`
	Errors         []entity.SDIError `json:"errors"`
	Notifications  []Notification    `json:"notifications"`
}

// ConnectionResult resultado de TestConnection.
type ConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// EnvironmentInfo ambiente activo del cliente.
type EnvironmentInfo struct {
	Environment string `json:"environment"`
	BaseURL     string `json:"baseUrl"`
	IsTest      bool   `json:"isTest"`
}

// remoteInvoice forma cruda de un archivo en las respuestas find y list.
type remoteInvoice struct {
	Filename       string            `json:"filename"`
	SDIID          string            `json:"sdiId"`
	Status         string            `json:"status"`
	SubmissionDate string            `json:"submissionDate"`
	LastUpdate     string            `json:"lastUpdate"`
	Errors         []entity.SDIError `json:"errors"`
	Notifications  []Notification    `json:"notifications"`
}

var statusMap = map[string]string{
	"PENDING":   entity.SDIStatusPending,
	"SENT":      entity.SDIStatusSent,
	"ACCEPTED":  entity.SDIStatusAccepted,
	"REJECTED":  entity.SDIStatusRejected,
	"DELIVERED": entity.SDIStatusDelivered,
}
