package fatturapa_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/psicofattura/internal/infrastructure/fatturapa"
)

func TestSerialize_AttributiERipetuti(t *testing.T) {
	root := &fatturapa.Node{Name: "Radice", Children: []*fatturapa.Node{
		{Name: "@versione", Text: "1"},
		{Name: "Voce", Text: "a"},
		{Name: "Voce", Text: "b"},
	}}

	xml, err := fatturapa.Serialize(root)
	require.NoError(t, err)

	assert.Contains(t, xml, `<Radice versione="1">`)
	assert.Equal(t, 2, strings.Count(xml, "<Voce>"))
	assert.Less(t, strings.Index(xml, "<Voce>a</Voce>"), strings.Index(xml, "<Voce>b</Voce>"))
	assert.Contains(t, xml, "\n  <Voce>a</Voce>")
}

func TestSerialize_OmetteNodiVuoti(t *testing.T) {
	root := &fatturapa.Node{Name: "Radice", Children: []*fatturapa.Node{
		{Name: "Pieno", Text: "x"},
		{Name: "Vuoto"},
		{Name: "Contenitore", Children: []*fatturapa.Node{{Name: "Figlio"}}},
		{Name: "@attr"},
	}}

	xml, err := fatturapa.Serialize(root)
	require.NoError(t, err)
	assert.NotContains(t, xml, "Vuoto")
	assert.NotContains(t, xml, "Contenitore")
	assert.NotContains(t, xml, "attr=")
}

func TestSerialize_EscapeTesto(t *testing.T) {
	xml, err := fatturapa.Serialize(&fatturapa.Node{Name: "R", Children: []*fatturapa.Node{{Name: "D", Text: "Rossi & Verdi <srl>"}}})
	require.NoError(t, err)
	assert.Contains(t, xml, "Rossi &amp; Verdi &lt;srl&gt;")
}

func TestSerialize_AlberoMalformato(t *testing.T) {
	_, err := fatturapa.Serialize(nil)
	assert.Error(t, err)

	_, err = fatturapa.Serialize(&fatturapa.Node{Name: "R"})
	assert.ErrorContains(t, err, "documento vacío")

	_, err = fatturapa.Serialize(&fatturapa.Node{Name: "R", Children: []*fatturapa.Node{{Name: "nome non valido", Text: "x"}}})
	assert.ErrorContains(t, err, "serialización")
	assert.ErrorContains(t, err, "nombre de elemento no válido")

	_, err = fatturapa.Serialize(&fatturapa.Node{Name: "R", Text: "t", Children: []*fatturapa.Node{{Name: "F", Text: "x"}}})
	assert.ErrorContains(t, err, "texto e hijos")
}
