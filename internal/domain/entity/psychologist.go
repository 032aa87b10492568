package entity

import "time"

// Sexo declarado del profesional (determina el Titolo en la FatturaPA).
const (
	SexMale   = "M"
	SexFemale = "F"
)

// Regímenes fiscales del profesional.
const (
	RegimeForfettario = "forfettario"
	RegimeOrdinario   = "ordinario"
	RegimeMinimi      = "minimi"
)

// Psychologist profesional emisor de las parcelle (CedentePrestatore).
type Psychologist struct {
	ID                 string    `json:"id" yaml:"id"`
	FirstName          string    `json:"nome" yaml:"nome"`
	LastName           string    `json:"cognome" yaml:"cognome"`
	Sex                string    `json:"sesso,omitempty" yaml:"sesso"`
	FiscalCode         string    `json:"codiceFiscale" yaml:"codiceFiscale"`
	VATNumber          string    `json:"partitaIva" yaml:"partitaIva"`
	Address            string    `json:"indirizzo" yaml:"indirizzo"`
	PostalCode         string    `json:"cap,omitempty" yaml:"cap"`
	City               string    `json:"citta,omitempty" yaml:"citta"`
	Province           string    `json:"provincia,omitempty" yaml:"provincia"`
	Phone              string    `json:"telefono,omitempty" yaml:"telefono"`
	Email              string    `json:"email" yaml:"email"`
	RegistrationNumber string    `json:"numeroOrdine,omitempty" yaml:"numeroOrdine"`
	RegistrationRegion string    `json:"regioneOrdine,omitempty" yaml:"regioneOrdine"`
	PEC                string    `json:"pec,omitempty" yaml:"pec"`
	Preferred          bool      `json:"isPreferito" yaml:"isPreferito"`
	EInvoicingEnabled  bool      `json:"fatturaElettronicaAbilitata" yaml:"fatturaElettronicaAbilitata"`
	RecipientCode      string    `json:"codiceDestinatario,omitempty" yaml:"codiceDestinatario"`
	TaxRegime          string    `json:"regimeFiscale" yaml:"regimeFiscale"`
	CreatedAt          time.Time `json:"dataCreazione" yaml:"-"`
	UpdatedAt          time.Time `json:"dataModifica" yaml:"-"`
}

// FullName devuelve "Nome Cognome".
func (p *Psychologist) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Regime devuelve el régimen declarado o forfettario si está vacío.
func (p *Psychologist) Regime() string {
	if p.TaxRegime == "" {
		return RegimeForfettario
	}
	return p.TaxRegime
}
