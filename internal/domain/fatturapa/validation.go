// Package fatturapa contiene las reglas de dominio de los registros que alimentan la
// FatturaPA: validación de psicólogos, pacientes y parcelle, y la transformación en nota de crédito.
package fatturapa

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/psicofattura/internal/domain"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
	"github.com/jhoicas/psicofattura/pkg/fatturapa"
)

var (
	postalCodePattern = regexp.MustCompile(`^[0-9]{5}$`)
	minAmount         = decimal.RequireFromString("0.01")
	hundred           = decimal.NewFromInt(100)
)

// ValidatePsychologist valida los datos anagráficos y fiscales del profesional.
func ValidatePsychologist(p *entity.Psychologist) error {
	if p == nil {
		return fmt.Errorf("%w: psicologo nullo", domain.ErrInvalidInput)
	}
	var errs []error
	errs = append(errs, validateName(p.FirstName, p.LastName)...)
	if err := fatturapa.ValidateFiscalCode(p.FiscalCode); err != nil {
		errs = append(errs, err)
	}
	if err := fatturapa.ValidateVATNumber(p.VATNumber); err != nil {
		errs = append(errs, err)
	}
	if utf8.RuneCountInString(strings.TrimSpace(p.Address)) < 5 {
		errs = append(errs, errors.New("indirizzo obbligatorio"))
	}
	errs = append(errs, validateAddress(p.PostalCode, p.Province)...)
	if p.Sex != "" && p.Sex != entity.SexMale && p.Sex != entity.SexFemale {
		errs = append(errs, fmt.Errorf("sesso non valido: %q", p.Sex))
	}
	if p.RecipientCode != "" && len(p.RecipientCode) != 7 {
		errs = append(errs, errors.New("il codice destinatario deve essere di 7 caratteri"))
	}
	if p.TaxRegime != "" && !fatturapa.ValidRegimes[p.TaxRegime] {
		errs = append(errs, fmt.Errorf("regime fiscale non valido: %q", p.TaxRegime))
	}
	return join(errs)
}

// ValidatePatient valida los datos del paciente.
func ValidatePatient(p *entity.Patient) error {
	if p == nil {
		return fmt.Errorf("%w: paziente nullo", domain.ErrInvalidInput)
	}
	var errs []error
	errs = append(errs, validateName(p.FirstName, p.LastName)...)
	if err := fatturapa.ValidateFiscalCode(p.FiscalCode); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, validateAddress(p.PostalCode, p.Province)...)
	if p.RecipientCode != "" && len(p.RecipientCode) != 7 {
		errs = append(errs, errors.New("il codice destinatario deve essere di 7 caratteri"))
	}
	return join(errs)
}

// ValidateInvoice valida importi, stato e vocabolari della parcella.
// Las notas de crédito quedan exentas de la regla de importo positivo.
func ValidateInvoice(inv *entity.Invoice) error {
	if inv == nil {
		return fmt.Errorf("%w: fattura nulla", domain.ErrInvalidInput)
	}
	var errs []error
	if inv.PsychologistID == "" {
		errs = append(errs, errors.New("selezione psicologo obbligatoria"))
	}
	if inv.PatientID == "" {
		errs = append(errs, errors.New("selezione paziente obbligatoria"))
	}
	if strings.TrimSpace(inv.Number) == "" {
		errs = append(errs, errors.New("numero parcella obbligatorio"))
	}
	if inv.Date.IsZero() {
		errs = append(errs, errors.New("data obbligatoria"))
	}
	if !inv.IsCreditNote() && inv.Amount.LessThan(minAmount) {
		errs = append(errs, errors.New("l'importo deve essere maggiore di 0"))
	}
	if inv.VATRate.IsNegative() || inv.VATRate.GreaterThan(hundred) {
		errs = append(errs, errors.New("l'aliquota IVA deve essere tra 0-100%"))
	}
	if inv.Expenses.IsNegative() {
		errs = append(errs, errors.New("le spese anticipate non possono essere negative"))
	}
	if inv.Sessions < 1 {
		errs = append(errs, errors.New("numero sedute deve essere almeno 1"))
	}
	switch inv.Status {
	case "", entity.InvoiceStatusIssued, entity.InvoiceStatusPaid, entity.InvoiceStatusVoided:
	default:
		errs = append(errs, fmt.Errorf("stato non valido: %q", inv.Status))
	}
	if inv.PaymentMethod != "" && !fatturapa.ValidPaymentMethods[inv.PaymentMethod] {
		errs = append(errs, fmt.Errorf("modalità di pagamento non valida: %q", inv.PaymentMethod))
	}
	if inv.ServiceType != "" && !fatturapa.ValidServiceTypes[inv.ServiceType] {
		errs = append(errs, fmt.Errorf("tipo prestazione non valido: %q", inv.ServiceType))
	}
	if inv.TaxRegime != "" && !fatturapa.ValidRegimes[inv.TaxRegime] {
		errs = append(errs, fmt.Errorf("regime fiscale non valido: %q", inv.TaxRegime))
	}
	return join(errs)
}

func validateName(first, last string) []error {
	var errs []error
	if utf8.RuneCountInString(strings.TrimSpace(first)) < 2 {
		errs = append(errs, errors.New("il nome deve essere di almeno 2 caratteri"))
	}
	if utf8.RuneCountInString(strings.TrimSpace(last)) < 2 {
		errs = append(errs, errors.New("il cognome deve essere di almeno 2 caratteri"))
	}
	return errs
}

func validateAddress(postalCode, province string) []error {
	var errs []error
	if postalCode != "" && !postalCodePattern.MatchString(postalCode) {
		errs = append(errs, errors.New("CAP deve essere di 5 cifre"))
	}
	if province != "" && len(province) != 2 {
		errs = append(errs, errors.New("provincia deve essere di 2 caratteri"))
	}
	return errs
}

func join(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{domain.ErrInvalidInput}, errs...)...)
}
