package entity

import "time"

// Patient destinatario de la parcella (CessionarioCommittente).
type Patient struct {
	ID            string    `json:"id" yaml:"id"`
	FirstName     string    `json:"nome" yaml:"nome"`
	LastName      string    `json:"cognome" yaml:"cognome"`
	FiscalCode    string    `json:"codiceFiscale" yaml:"codiceFiscale"`
	BirthDate     Date      `json:"dataNascita" yaml:"dataNascita"`
	BirthPlace    string    `json:"luogoNascita,omitempty" yaml:"luogoNascita"`
	Address       string    `json:"indirizzo,omitempty" yaml:"indirizzo"`
	PostalCode    string    `json:"cap,omitempty" yaml:"cap"`
	City          string    `json:"citta,omitempty" yaml:"citta"`
	Province      string    `json:"provincia,omitempty" yaml:"provincia"`
	Phone         string    `json:"telefono,omitempty" yaml:"telefono"`
	Email         string    `json:"email,omitempty" yaml:"email"`
	RecipientCode string    `json:"codiceDestinatario,omitempty" yaml:"codiceDestinatario"`
	PEC           string    `json:"pec,omitempty" yaml:"pec"`
	Notes         string    `json:"note,omitempty" yaml:"note"`
	DataConsent   bool      `json:"consensoTrattamentoDati" yaml:"consensoTrattamentoDati"`
	ConsentDate   Date      `json:"dataConsenso" yaml:"dataConsenso"`
	CreatedAt     time.Time `json:"dataCreazione" yaml:"-"`
	UpdatedAt     time.Time `json:"dataModifica" yaml:"-"`
}

// FullName devuelve "Nome Cognome".
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// PatientSummary paciente de un psicólogo con el número de parcelle emitidas.
type PatientSummary struct {
	Patient
	InvoiceCount int  `json:"numeroFatture"`
	LastInvoice  Date `json:"ultimaFattura"`
}
