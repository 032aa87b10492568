package fatturapa

import (
	"fmt"
	"regexp"
	"strings"
)

var fiscalCodePattern = regexp.MustCompile(`^[A-Z]{6}[0-9]{2}[A-Z][0-9]{2}[A-Z][0-9]{3}[A-Z]$`)

// ValidateFiscalCode valida el patrón del codice fiscale de persona física (16 caracteres).
// Se compara en mayúsculas; no se verifica el carácter de control.
func ValidateFiscalCode(cf string) error {
	if !fiscalCodePattern.MatchString(strings.ToUpper(cf)) {
		return fmt.Errorf("fatturapa: codice fiscale non valido: %q", cf)
	}
	return nil
}

// IsValidFiscalCode atajo booleano de ValidateFiscalCode.
func IsValidFiscalCode(cf string) bool { return ValidateFiscalCode(cf) == nil }

// ValidateVATNumber valida la partita IVA: 11 dígitos y dígito de control (algoritmo Luhn modificado).
func ValidateVATNumber(piva string) error {
	if len(piva) != 11 {
		return fmt.Errorf("fatturapa: partita IVA deve avere 11 cifre, ricevute %d", len(piva))
	}
	for _, r := range piva {
		if r < '0' || r > '9' {
			return fmt.Errorf("fatturapa: partita IVA contiene caratteri non numerici")
		}
	}
	expected := VATCheckDigit(piva[:10])
	if piva[10] != expected {
		return fmt.Errorf("fatturapa: cifra di controllo partita IVA errata: attesa %c, ricevuta %c", expected, piva[10])
	}
	return nil
}

// IsValidVATNumber atajo booleano de ValidateVATNumber.
func IsValidVATNumber(piva string) bool { return ValidateVATNumber(piva) == nil }

// VATCheckDigit calcula el dígito de control sobre los 10 primeros dígitos.
// Las posiciones impares (base 0) se duplican restando 9 si superan 9.
func VATCheckDigit(first10 string) byte {
	var sum int
	for i := 0; i < 10 && i < len(first10); i++ {
		d := int(first10[i] - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10)
}
