package dto

import "github.com/jhoicas/psicofattura/internal/domain/entity"

// GenerateXMLRequest body de POST /api/fattura-elettronica/generate-xml.
// Acepta la tríada en línea o InvoiceID para cargarla del almacenamiento.
type GenerateXMLRequest struct {
	Invoice           *entity.Invoice      `json:"invoice,omitempty"`
	Psychologist      *entity.Psychologist `json:"psychologist,omitempty"`
	Patient           *entity.Patient      `json:"patient,omitempty"`
	InvoiceID         string               `json:"invoiceId,omitempty"`
	IsAmendment       bool                 `json:"isAmendment"`
	ProgressiveNumber string               `json:"progressivoInvio,omitempty"`
}

// Validation resultado de la validación estructural.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// GenerateXMLResponse documento generado.
type GenerateXMLResponse struct {
	Success    bool       `json:"success"`
	XMLData    string     `json:"xmlData"`
	XMLHash    string     `json:"xmlHash"`
	Filename   string     `json:"filename"`
	Size       int        `json:"size"`
	Validation Validation `json:"validation"`
}

// SendRequest body de POST /api/fattura-elettronica/send.
type SendRequest struct {
	XMLData   string `json:"xmlData"`
	Filename  string `json:"filename"`
	InvoiceID string `json:"invoiceId,omitempty"`
}

// SendResponse subida aceptada por el intermediario.
type SendResponse struct {
	Success        bool   `json:"success"`
	UploadFilename string `json:"uploadFilename"`
	SubmissionDate string `json:"submissionDate"`
	Environment    string `json:"environment"`
	IsTest         bool   `json:"isTest"`
	Message        string `json:"message"`
}

// Notification notificación SDI.
type Notification struct {
	Type        string `json:"type"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// StatusResponse estado de un archivo en el intermediario.
type StatusResponse struct {
	Success        bool              `json:"success"`
	Status         string            `json:"status"`
	SDIID          string            `json:"sdiId,omitempty"`
	SubmissionDate string            `json:"submissionDate,omitempty"`
	LastUpdate     string            `json:"lastUpdate,omitempty"`
	Errors         []entity.SDIError `json:"errors"`
	Notifications  []Notification    `json:"notifications"`
	Environment    string            `json:"environment"`
}

// StatusActionRequest body de POST /api/fattura-elettronica/status/:filename.
type StatusActionRequest struct {
	Action string `json:"action"`
}

// NotificationsResponse respuesta de la acción get-notifications.
type NotificationsResponse struct {
	Success       bool           `json:"success"`
	Notifications []Notification `json:"notifications"`
}

// AmendRequest body de POST /api/fattura-elettronica/amend.
type AmendRequest struct {
	OriginalInvoice   *entity.Invoice      `json:"originalInvoice,omitempty"`
	OriginalInvoiceID string               `json:"originalInvoiceId,omitempty"`
	Psychologist      *entity.Psychologist `json:"psychologist,omitempty"`
	Patient           *entity.Patient      `json:"patient,omitempty"`
	AmendmentData     *entity.Amendment    `json:"amendmentData,omitempty"`
	AutoSend          bool                 `json:"autoSend"`
}

// CreditNote nota de crédito generada con la referencia a la factura original.
type CreditNote struct {
	entity.Invoice
	OriginalInvoiceReference string `json:"originalInvoiceReference"`
}

// UploadSummary resultado del envío automático.
type UploadSummary struct {
	Success bool              `json:"success"`
	Errors  []entity.SDIError `json:"errors"`
}

// AmendResponse nota de crédito, XML y resultado del envío (null si no se envió).
type AmendResponse struct {
	Success    bool           `json:"success"`
	CreditNote CreditNote     `json:"creditNote"`
	Upload     *UploadSummary `json:"upload"`
	Validation Validation     `json:"validation"`
}

// ConnectionConfiguration configuración visible del intermediario.
type ConnectionConfiguration struct {
	Enabled     bool   `json:"enabled"`
	Environment string `json:"environment"`
	BaseURL     string `json:"baseUrl,omitempty"`
	IsTest      *bool  `json:"isTest,omitempty"`
}

// ConnectionTestResponse respuesta de GET /api/fattura-elettronica/test-connection.
type ConnectionTestResponse struct {
	Success       bool                    `json:"success"`
	Message       string                  `json:"message,omitempty"`
	Error         string                  `json:"error,omitempty"`
	Details       string                  `json:"details,omitempty"`
	Configuration ConnectionConfiguration `json:"configuration"`
	Timestamp     string                  `json:"timestamp,omitempty"`
}

// Tipos de prueba de GET /api/fattura-elettronica/test-mock y nombre devuelto en "test".
const (
	DemoConnection = "connection"
	DemoXML        = "xml"
	DemoUpload     = "upload"
	DemoStatus     = "status"
	DemoFull       = "full"
)

// DemoKinds pruebas disponibles, en el orden en que se anuncian.
var DemoKinds = []string{DemoConnection, DemoXML, DemoUpload, DemoStatus, DemoFull}

// DemoResponse resultado de una prueba de demostración. Result y Results llevan
// los valores del intermediario tal cual.
type DemoResponse struct {
	Test        string       `json:"test"`
	Result      any          `json:"result,omitempty"`
	Results     *DemoResults `json:"results,omitempty"`
	Environment any          `json:"environment,omitempty"`
	Summary     *DemoSummary `json:"summary,omitempty"`
}

// DemoXMLResult resultado de la prueba de generación.
type DemoXMLResult struct {
	Success    bool       `json:"success"`
	XMLLength  int        `json:"xmlLength"`
	Validation Validation `json:"validation"`
	Preview    string     `json:"preview"`
}

// DemoGeneration resumen de la generación dentro del flujo completo.
type DemoGeneration struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// DemoResults pasos del flujo completo.
type DemoResults struct {
	Connection    any            `json:"connection"`
	XMLGeneration DemoGeneration `json:"xmlGeneration"`
	Upload        any            `json:"upload,omitempty"`
	Status        any            `json:"status,omitempty"`
}

// DemoSummary éxito de cada paso del flujo completo.
type DemoSummary struct {
	Connection    bool `json:"connection"`
	XMLGeneration bool `json:"xmlGeneration"`
	Upload        bool `json:"upload"`
	StatusCheck   bool `json:"statusCheck"`
}
