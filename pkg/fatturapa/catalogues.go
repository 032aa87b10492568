// Package fatturapa contiene las tablas fiscales y las validaciones de identificadores
// usadas por la FatturaPA (formato FPR12, fatture verso privati) v1.2.
package fatturapa

// =============================================================================
// Cabecera del documento
// =============================================================================

const (
	SchemaVersion      = "FPR12"
	Namespace          = "http://ivaservizi.agenziaentrate.gov.it/docs/xsd/fatture/v1.2"
	TransmissionFormat = "FPR12"
	CountryIT          = "IT"
	Currency           = "EUR"

	// TransmitterCode identifica al intermediario que transmite (no al profesional emisor).
	TransmitterCode = "01879020517"

	// DefaultRecipientCode se usa cuando el paciente no tiene código destinatario.
	DefaultRecipientCode = "0000000"
)

// Valores por defecto de la sede cuando faltan campos de dirección.
const (
	DefaultPostalCode = "00100"
	DefaultCity       = "Roma"
	DefaultProvince   = "RM"
)

// =============================================================================
// RegimeFiscale (Tabla RF)
// =============================================================================

// Regímenes del profesional tal como se guardan en los registros.
const (
	RegimeForfettario = "forfettario"
	RegimeOrdinario   = "ordinario"
	RegimeMinimi      = "minimi"
)

const (
	RegimeCodeOrdinario   = "RF01"
	RegimeCodeMinimi      = "RF02"
	RegimeCodeForfettario = "RF04"
)

var regimeCodes = map[string]string{
	RegimeForfettario: RegimeCodeForfettario,
	RegimeOrdinario:   RegimeCodeOrdinario,
	RegimeMinimi:      RegimeCodeMinimi,
}

// ValidRegimes regímenes aceptados en psicólogos y facturas.
var ValidRegimes = map[string]bool{
	RegimeForfettario: true,
	RegimeOrdinario:   true,
	RegimeMinimi:      true,
}

// RegimeCode devuelve el código RFxx del régimen. Vacío o desconocido => RF04.
func RegimeCode(regime string) string {
	if code, ok := regimeCodes[regime]; ok {
		return code
	}
	return RegimeCodeForfettario
}

// =============================================================================
// Natura IVA
// =============================================================================

const (
	NatureOutOfScope = "N1" // escluse ex art. 15
	NatureNotSubject = "N2" // non soggette

	// ExpenseNature se aplica siempre a la línea de spese anticipate.
	ExpenseNature = NatureOutOfScope

	// FlatRateLegalReference cita normativa del régimen forfettario.
	FlatRateLegalReference = "art. 1, comma da 54 a 89 della legge 190/2014"
)

// VATNature devuelve la natura de exención del régimen ("" si se aplica IVA normal).
func VATNature(regime string) string {
	if regime == "" || regime == RegimeForfettario {
		return NatureNotSubject
	}
	return ""
}

// LegalReference devuelve el RiferimentoNormativo del régimen ("" si no aplica).
func LegalReference(regime string) string {
	if VATNature(regime) == "" {
		return ""
	}
	return FlatRateLegalReference
}

// =============================================================================
// TipoDocumento
// =============================================================================

const (
	DocTypeCreditNote = "TD04" // nota di credito
	DocTypeParcella   = "TD06" // parcella
)

// DocumentType devuelve TD04 para notas de crédito y TD06 en otro caso.
func DocumentType(isAmendment bool) string {
	if isAmendment {
		return DocTypeCreditNote
	}
	return DocTypeParcella
}

// =============================================================================
// Titolo (tratamiento profesional)
// =============================================================================

// Honorific devuelve "Dott." (M), "Dott.ssa" (F) o "" si el sexo no está declarado.
func Honorific(sex string) string {
	switch sex {
	case "M":
		return "Dott."
	case "F":
		return "Dott.ssa"
	default:
		return ""
	}
}

// =============================================================================
// Bollo
// =============================================================================

const (
	StampVirtual       = "SI"
	DefaultStampAmount = "2.00"
)

// =============================================================================
// Valores de registro (estado, pago, prestación)
// =============================================================================

// ValidPaymentMethods modalidades de pago aceptadas.
var ValidPaymentMethods = map[string]bool{
	"contanti": true, "bonifico": true, "assegno": true, "carta": true, "altro": true,
}

// ValidServiceTypes tipos de prestación aceptados.
var ValidServiceTypes = map[string]bool{
	"sostegno_psicologico":         true,
	"psicoterapia":                 true,
	"consulenza":                   true,
	"valutazione_psicodiagnostica": true,
	"relazione_psicologica":        true,
	"altro":                        true,
}
