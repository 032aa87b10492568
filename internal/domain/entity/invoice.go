package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estado de pago de la parcella.
const (
	InvoiceStatusIssued = "emessa"
	InvoiceStatusPaid   = "pagata"
	InvoiceStatusVoided = "annullata"
)

// Estados de transmisión al SDI (Sistema di Interscambio).
const (
	SDIStatusPending   = "pending"
	SDIStatusSent      = "sent"
	SDIStatusAccepted  = "accepted"
	SDIStatusRejected  = "rejected"
	SDIStatusDelivered = "delivered"
)

// ValidSDIStatuses estados SDI reconocidos.
var ValidSDIStatuses = map[string]bool{
	SDIStatusPending: true, SDIStatusSent: true, SDIStatusAccepted: true,
	SDIStatusRejected: true, SDIStatusDelivered: true,
}

// Tipos de documento del registro.
const (
	DocumentTypeInvoice    = "fattura"
	DocumentTypeCreditNote = "nota_credito"
)

// Tipos de corrección de una nota de crédito.
const (
	CorrectionFull    = "totale"
	CorrectionPartial = "parziale"
)

// Severidades de un error SDI.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// SDIError error o aviso devuelto por el SDI o por el intermediario.
type SDIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Severity    string `json:"severity,omitempty"`
}

// SDIHistoryEntry transición de estado SDI (log append-only).
type SDIHistoryEntry struct {
	Date   time.Time  `json:"date"`
	Status string     `json:"status"`
	Note   string     `json:"note,omitempty"`
	Errors []SDIError `json:"errors,omitempty"`
}

// Invoice parcella emitida por un psicólogo a un paciente.
type Invoice struct {
	ID             string          `json:"id" yaml:"id"`
	PsychologistID string          `json:"idPsicologo" yaml:"idPsicologo"`
	PatientID      string          `json:"idPaziente" yaml:"idPaziente"`
	Number         string          `json:"numeroFattura" yaml:"numeroFattura"`
	Date           Date            `json:"data" yaml:"data"`
	Description    string          `json:"descrizione,omitempty" yaml:"descrizione"`
	SessionDetail  bool            `json:"dettaglioSedute" yaml:"dettaglioSedute"`
	Sessions       int             `json:"numeroSedute" yaml:"numeroSedute"`
	ServiceType    string          `json:"tipoPrestazione,omitempty" yaml:"tipoPrestazione"`
	Amount         decimal.Decimal `json:"importo" yaml:"importo"`
	VATRate        decimal.Decimal `json:"aliquotaIva" yaml:"aliquotaIva"`
	Expenses       decimal.Decimal `json:"speseAnticipate" yaml:"speseAnticipate"`
	Notes          string          `json:"note,omitempty" yaml:"note"`
	MaskPrivacy    bool            `json:"mostraPrivacy" yaml:"mostraPrivacy"`
	PaymentMethod  string          `json:"modalitaPagamento,omitempty" yaml:"modalitaPagamento"`
	Status         string          `json:"stato" yaml:"stato"`
	PaymentDate    Date            `json:"dataPagamento" yaml:"dataPagamento"`
	TaxRegime      string          `json:"regimeFiscale,omitempty" yaml:"regimeFiscale"`
	Stamp          bool            `json:"marcaDaBollo" yaml:"marcaDaBollo"`
	StampAmount    decimal.Decimal `json:"importoMarcaDaBollo" yaml:"importoMarcaDaBollo"`

	// Fatturazione elettronica
	Electronic        bool              `json:"fatturazioneElettronica" yaml:"fatturazioneElettronica"`
	XMLData           string            `json:"xmlData,omitempty" yaml:"-"`
	XMLHash           string            `json:"xmlHash,omitempty" yaml:"-"`
	UploadFilename    string            `json:"uploadFilename,omitempty" yaml:"-"`
	SDIID             string            `json:"sdiId,omitempty" yaml:"-"`
	SDIStatus         string            `json:"sdiStatus,omitempty" yaml:"-"`
	SDIErrors         []SDIError        `json:"sdiErrors,omitempty" yaml:"-"`
	SDIHistory        []SDIHistoryEntry `json:"sdiHistory,omitempty" yaml:"-"`
	SDISubmissionDate *time.Time        `json:"sdiSubmissionDate,omitempty" yaml:"-"`
	SDILastCheck      *time.Time        `json:"sdiLastCheck,omitempty" yaml:"-"`

	// Nota de crédito
	DocumentType          string `json:"tipoDocumento,omitempty" yaml:"tipoDocumento"`
	OriginalInvoiceID     string `json:"fatturaOriginaleId,omitempty" yaml:"-"`
	OriginalInvoiceNumber string `json:"fatturaOriginaleNumero,omitempty" yaml:"-"`
	AmendmentReason       string `json:"motivoAmendment,omitempty" yaml:"-"`
	AmendmentDetail       string `json:"motivoDettaglio,omitempty" yaml:"-"`
	AmendmentCorrection   string `json:"tipoCorrezione,omitempty" yaml:"-"`

	CreatedAt time.Time `json:"dataCreazione" yaml:"-"`
	UpdatedAt time.Time `json:"dataModifica" yaml:"-"`
}

// Regime devuelve el régimen de la factura o forfettario si está vacío.
func (i *Invoice) Regime() string {
	if i.TaxRegime == "" {
		return RegimeForfettario
	}
	return i.TaxRegime
}

// IsCreditNote indica si el registro es una nota de crédito.
func (i *Invoice) IsCreditNote() bool {
	return i.DocumentType == DocumentTypeCreditNote
}

// VAT importo × aliquota / 100.
func (i *Invoice) VAT() decimal.Decimal {
	return i.Amount.Mul(i.VATRate).Div(decimal.NewFromInt(100))
}

// Total importo + IVA + spese anticipate.
func (i *Invoice) Total() decimal.Decimal {
	return i.Amount.Add(i.VAT()).Add(i.Expenses)
}

// Amendment datos de corrección para emitir una nota de crédito.
type Amendment struct {
	Reason          string           `json:"motivo"`
	Detail          string           `json:"motivoDettaglio"`
	AdditionalNotes string           `json:"noteAggiuntive,omitempty"`
	CorrectionType  string           `json:"tipoCorrezione"`
	NewAmount       *decimal.Decimal `json:"nuovoImporto,omitempty"`
}

// InvoiceFilter filtros de listado.
type InvoiceFilter struct {
	PsychologistID string
	PatientID      string
	Year           int
	Limit          int
	Offset         int
}

// InvoiceStats estadísticas del tablero.
type InvoiceStats struct {
	Total   int             `json:"total"`
	Monthly int             `json:"mensili"`
	Revenue decimal.Decimal `json:"fatturato"`
	Pending int             `json:"inAttesa"`
	Paid    int             `json:"pagate"`
}

// SDIUpdate campos SDI que el orquestador actualiza tras enviar o consultar.
// Nil = no modificar.
type SDIUpdate struct {
	Status         *string
	SDIID          *string
	UploadFilename *string
	Errors         []SDIError
	SubmissionDate *time.Time
	LastCheck      *time.Time
}
