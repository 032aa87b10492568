package fatturapa

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/jhoicas/psicofattura/pkg/fatturapa"
)

// timestampLayout ISO 8601 en UTC con milisegundos.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Filename nombre del archivo a transmitir:
// IT<codiceFiscale>_<numero con la primera "/" como "-">_<timestamp con ":" y "." como "-">.xml
func Filename(fiscalCode, number string, ts time.Time) string {
	return fatturapa.CountryIT + fiscalCode + "_" + strings.Replace(number, "/", "-", 1) + "_" + fileTimestamp(ts) + ".xml"
}

// CreditNoteFilename variante de la nota de crédito con el marcador _CN_ y el número original.
func CreditNoteFilename(fiscalCode, originalNumber string, ts time.Time) string {
	return fatturapa.CountryIT + fiscalCode + "_CN_" + strings.Replace(originalNumber, "/", "-", 1) + "_" + fileTimestamp(ts) + ".xml"
}

// HashXML SHA-256 en hexadecimal de los bytes UTF-8 del XML.
func HashXML(xml string) string {
	sum := sha256.Sum256([]byte(xml))
	return hex.EncodeToString(sum[:])
}

func fileTimestamp(ts time.Time) string {
	return strings.NewReplacer(":", "-", ".", "-").Replace(ts.UTC().Format(timestampLayout))
}
