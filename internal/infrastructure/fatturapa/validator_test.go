package fatturapa_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/psicofattura/internal/infrastructure/fatturapa"
)

var markers = []struct {
	name, message string
}{
	{"FatturaElettronica", "Missing FatturaElettronica root element"},
	{"DatiTrasmissione", "Missing DatiTrasmissione"},
	{"CedentePrestatore", "Missing CedentePrestatore"},
	{"CessionarioCommittente", "Missing CessionarioCommittente"},
	{"DatiGeneraliDocumento", "Missing DatiGeneraliDocumento"},
	{"DettaglioLinee", "Missing DettaglioLinee"},
}

func TestMarkerValidator_TuttiPresenti(t *testing.T) {
	var sb strings.Builder
	for _, m := range markers {
		sb.WriteString(m.name + " ")
	}
	res := fatturapa.MarkerValidator{}.Validate(sb.String())
	assert.True(t, res.Valid)
	assert.NotNil(t, res.Errors)
	assert.Empty(t, res.Errors)
}

func TestMarkerValidator_UnoMancante(t *testing.T) {
	for i, missing := range markers {
		t.Run(missing.name, func(t *testing.T) {
			var sb strings.Builder
			for j, m := range markers {
				if j != i {
					sb.WriteString(m.name + " ")
				}
			}
			text := sb.String()
			if missing.name == "FatturaElettronica" {
				// ningún otro marcador contiene la raíz como subcadena
				require.NotContains(t, text, "FatturaElettronica")
			}
			res := fatturapa.MarkerValidator{}.Validate(text)
			assert.False(t, res.Valid)
			assert.Contains(t, res.Errors, missing.message)
		})
	}
}

func TestMarkerValidator_TestoVuoto(t *testing.T) {
	res := fatturapa.MarkerValidator{}.Validate("")
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 6)
	for i, m := range markers {
		assert.Equal(t, m.message, res.Errors[i])
	}
}

func TestElementValidator_DocumentoGenerato(t *testing.T) {
	_, xml, err := build(input())
	require.NoError(t, err)

	res := fatturapa.ElementValidator{}.Validate(xml)
	assert.True(t, res.Valid, res.Errors)
	assert.Empty(t, res.Errors)
}

func TestElementValidator_SezioneFuoriPosto(t *testing.T) {
	// El marcador aparece como texto, no como elemento: el MarkerValidator lo acepta, éste no.
	xml := `<FatturaElettronica versione="FPR12" xmlns="http://ivaservizi.agenziaentrate.gov.it/docs/xsd/fatture/v1.2">` +
		`<Nota>DatiTrasmissione CedentePrestatore CessionarioCommittente DatiGeneraliDocumento DettaglioLinee</Nota>` +
		`</FatturaElettronica>`

	assert.True(t, fatturapa.MarkerValidator{}.Validate(xml).Valid)
	res := fatturapa.ElementValidator{}.Validate(xml)
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 5)
}

func TestElementValidator_XMLNonValido(t *testing.T) {
	res := fatturapa.ElementValidator{}.Validate("<FatturaElettronica>")
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Errors)
}
