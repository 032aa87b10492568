package fatturapa_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/psicofattura/internal/infrastructure/fatturapa"
)

var ts = time.Date(2024, 1, 15, 10, 30, 45, 123_000_000, time.UTC)

func TestFilename(t *testing.T) {
	assert.Equal(t,
		"ITRSSMRA80A01H501Z_1-2024_2024-01-15T10-30-45-123Z.xml",
		fatturapa.Filename("RSSMRA80A01H501Z", "1/2024", ts))
}

func TestFilename_SoloPrimaBarra(t *testing.T) {
	assert.Equal(t,
		"ITX_1-2024/B_2024-01-15T10-30-45-123Z.xml",
		fatturapa.Filename("X", "1/2024/B", ts))
}

func TestFilename_ConvertiInUTC(t *testing.T) {
	rome := time.FixedZone("CET", 3600)
	assert.Equal(t,
		fatturapa.Filename("X", "1", ts),
		fatturapa.Filename("X", "1", ts.In(rome)))
}

func TestCreditNoteFilename(t *testing.T) {
	assert.Equal(t,
		"ITRSSMRA80A01H501Z_CN_1-2024_2024-01-15T10-30-45-123Z.xml",
		fatturapa.CreditNoteFilename("RSSMRA80A01H501Z", "1/2024", ts))
}

func TestHashXML(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", fatturapa.HashXML("abc"))
	assert.Len(t, fatturapa.HashXML("<x/>"), 64)
}
