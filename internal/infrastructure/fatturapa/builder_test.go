package fatturapa_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/psicofattura/internal/domain"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
	"github.com/jhoicas/psicofattura/internal/infrastructure/fatturapa"
)

var (
	pathDatiTrasmissione = []string{"FatturaElettronicaHeader", "DatiTrasmissione"}
	pathCedente          = []string{"FatturaElettronicaHeader", "CedentePrestatore"}
	pathCessionario      = []string{"FatturaElettronicaHeader", "CessionarioCommittente"}
	pathDocumento        = []string{"FatturaElettronicaBody", "DatiGenerali", "DatiGeneraliDocumento"}
	pathBeniServizi      = []string{"FatturaElettronicaBody", "DatiBeniServizi"}
)

func at(base []string, rest ...string) []string {
	return append(append([]string{}, base...), rest...)
}

// ─────────────────────────────────────────────────────────────────────────────
// Radice e intestazione
// ─────────────────────────────────────────────────────────────────────────────

func TestBuild_RadiceVersioneENamespace(t *testing.T) {
	_, xml, err := build(input())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(xml, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, xml, "<FatturaElettronica ")
	assert.Contains(t, xml, `versione="FPR12"`)
	assert.Contains(t, xml, `xmlns="http://ivaservizi.agenziaentrate.gov.it/docs/xsd/fatture/v1.2"`)
}

func TestBuild_DatiTrasmissione(t *testing.T) {
	tree, _, err := build(input())
	require.NoError(t, err)

	assert.Equal(t, "IT", tree.Value(at(pathDatiTrasmissione, "IdTrasmittente", "IdPaese")...))
	assert.Equal(t, "01879020517", tree.Value(at(pathDatiTrasmissione, "IdTrasmittente", "IdCodice")...))
	assert.Equal(t, "00001", tree.Value(at(pathDatiTrasmissione, "ProgressivoInvio")...))
	assert.Equal(t, "FPR12", tree.Value(at(pathDatiTrasmissione, "FormatoTrasmissione")...))
	assert.Equal(t, "0000000", tree.Value(at(pathDatiTrasmissione, "CodiceDestinatario")...))
	assert.Nil(t, tree.Find(at(pathDatiTrasmissione, "PECDestinatario")...))
}

func TestBuild_CodiceDestinatarioEPEC(t *testing.T) {
	in := input()
	in.Patient.RecipientCode = "ABC1234"
	in.Patient.PEC = "anna@pec.it"

	tree, _, err := build(in)
	require.NoError(t, err)
	assert.Equal(t, "ABC1234", tree.Value(at(pathDatiTrasmissione, "CodiceDestinatario")...))
	assert.Equal(t, "anna@pec.it", tree.Value(at(pathDatiTrasmissione, "PECDestinatario")...))
}

func TestBuild_ProgressivoGeneratoSeAssente(t *testing.T) {
	in := input()
	in.Options.ProgressiveNumber = ""

	tree, _, err := build(in)
	require.NoError(t, err)
	assert.Equal(t, "99999", tree.Value(at(pathDatiTrasmissione, "ProgressivoInvio")...))
}

func TestBuild_CedentePrestatore(t *testing.T) {
	tree, _, err := build(input())
	require.NoError(t, err)

	assert.Equal(t, "12345678903", tree.Value(at(pathCedente, "DatiAnagrafici", "IdFiscaleIVA", "IdCodice")...))
	assert.Equal(t, "RSSMRA80A01H501Z", tree.Value(at(pathCedente, "DatiAnagrafici", "CodiceFiscale")...))
	assert.Equal(t, "Dott.", tree.Value(at(pathCedente, "DatiAnagrafici", "Anagrafica", "Titolo")...))
	assert.Equal(t, "RF04", tree.Value(at(pathCedente, "DatiAnagrafici", "RegimeFiscale")...))
	assert.Equal(t, "Lazio", tree.Value(at(pathCedente, "IscrizioneREA", "Ufficio")...))
	assert.Equal(t, "12345", tree.Value(at(pathCedente, "IscrizioneREA", "NumeroREA")...))
	assert.Equal(t, "+39 06 123456789", tree.Value(at(pathCedente, "Contatti", "Telefono")...))
	assert.Equal(t, "mario.rossi@pec.example.com", tree.Value(at(pathCedente, "Contatti", "PEC")...))
}

func TestBuild_TitoloPerSesso(t *testing.T) {
	in := input()
	in.Psychologist.Sex = entity.SexFemale
	tree, _, err := build(in)
	require.NoError(t, err)
	assert.Equal(t, "Dott.ssa", tree.Value(at(pathCedente, "DatiAnagrafici", "Anagrafica", "Titolo")...))

	in.Psychologist.Sex = ""
	_, xml, err := build(in)
	require.NoError(t, err)
	assert.NotContains(t, xml, "<Titolo>")
}

func TestBuild_SedeConDefaultEBlocchiOpzionali(t *testing.T) {
	in := input()
	in.Psychologist.PostalCode = ""
	in.Psychologist.City = ""
	in.Psychologist.Province = ""
	in.Psychologist.RegistrationRegion = ""
	in.Psychologist.Phone = ""
	in.Psychologist.Email = ""
	in.Psychologist.PEC = ""

	tree, xml, err := build(in)
	require.NoError(t, err)

	assert.Equal(t, "00100", tree.Value(at(pathCedente, "Sede", "CAP")...))
	assert.Equal(t, "Roma", tree.Value(at(pathCedente, "Sede", "Comune")...))
	assert.Equal(t, "RM", tree.Value(at(pathCedente, "Sede", "Provincia")...))
	assert.Equal(t, "IT", tree.Value(at(pathCedente, "Sede", "Nazione")...))
	assert.NotContains(t, xml, "IscrizioneREA")
	assert.NotContains(t, xml, "Contatti")
}

func TestBuild_CessionarioSenzaIndirizzo_SenzaSede(t *testing.T) {
	in := input()
	in.Patient.Address = ""

	tree, _, err := build(in)
	require.NoError(t, err)
	assert.Equal(t, "VRDNNA85C01H501W", tree.Value(at(pathCessionario, "DatiAnagrafici", "CodiceFiscale")...))
	assert.Equal(t, "Anna", tree.Value(at(pathCessionario, "DatiAnagrafici", "Anagrafica", "Nome")...))
	assert.Nil(t, tree.Find(at(pathCessionario, "Sede")...))
}

// ─────────────────────────────────────────────────────────────────────────────
// Corpo: totali, regime, tipo documento
// ─────────────────────────────────────────────────────────────────────────────

func TestBuild_TotaleDocumento(t *testing.T) {
	cases := []struct {
		name, amount, rate, expenses, want string
	}{
		{"solo importo", "50.00", "0", "0", "50.00"},
		{"con spese", "50.00", "0", "10.50", "60.50"},
		{"con iva", "100", "22", "0", "122.00"},
		{"iva e spese", "80", "22", "5", "102.60"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := input()
			in.Invoice.Amount = decimal.RequireFromString(tc.amount)
			in.Invoice.VATRate = decimal.RequireFromString(tc.rate)
			in.Invoice.Expenses = decimal.RequireFromString(tc.expenses)

			tree, _, err := build(in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, tree.Value(at(pathDocumento, "ImportoTotaleDocumento")...))
		})
	}
}

func TestBuild_RegimeForfettario(t *testing.T) {
	_, xml, err := build(input())
	require.NoError(t, err)

	assert.Contains(t, xml, "RF04")
	assert.Contains(t, xml, "<Natura>N2</Natura>")
	assert.Contains(t, xml, "art. 1, comma da 54 a 89 della legge 190/2014")
}

func TestBuild_RegimeOrdinario(t *testing.T) {
	in := input()
	in.Psychologist.TaxRegime = entity.RegimeOrdinario
	in.Invoice.TaxRegime = entity.RegimeOrdinario
	in.Invoice.VATRate = decimal.NewFromInt(22)

	tree, xml, err := build(in)
	require.NoError(t, err)

	assert.Contains(t, xml, "RF01")
	assert.NotContains(t, xml, "N2")
	assert.NotContains(t, xml, "RiferimentoNormativo")
	assert.Equal(t, "11.00", tree.Value(at(pathBeniServizi, "DatiRiepilogo", "Imposta")...))
	assert.Equal(t, "22.00", tree.Value(at(pathBeniServizi, "DettaglioLinee", "AliquotaIVA")...))
}

func TestBuild_RegimeFatturaVuoto_Forfettario(t *testing.T) {
	in := input()
	in.Invoice.TaxRegime = ""

	tree, _, err := build(in)
	require.NoError(t, err)
	assert.Equal(t, "N2", tree.Value(at(pathBeniServizi, "DettaglioLinee", "Natura")...))
}

func TestBuild_TipoDocumento(t *testing.T) {
	_, xml, err := build(input())
	require.NoError(t, err)
	assert.Contains(t, xml, "<TipoDocumento>TD06</TipoDocumento>")

	in := input()
	in.Options.IsAmendment = true
	in.Options.OriginalInvoiceReference = "1/2024"
	tree, xml, err := build(in)
	require.NoError(t, err)
	assert.Contains(t, xml, "<TipoDocumento>TD04</TipoDocumento>")
	assert.Equal(t, "1/2024", tree.Value("FatturaElettronicaBody", "DatiGenerali", "DatiFattureCollegate", "IdDocumento"))
}

func TestBuild_DataEValuta(t *testing.T) {
	tree, _, err := build(input())
	require.NoError(t, err)
	assert.Equal(t, "EUR", tree.Value(at(pathDocumento, "Divisa")...))
	assert.Equal(t, "2024-01-15", tree.Value(at(pathDocumento, "Data")...))
	assert.Equal(t, "1/2024", tree.Value(at(pathDocumento, "Numero")...))
}

func TestBuild_Bollo(t *testing.T) {
	in := input()
	in.Invoice.Stamp = true

	tree, _, err := build(in)
	require.NoError(t, err)
	assert.Equal(t, "SI", tree.Value(at(pathDocumento, "DatiBollo", "BolloVirtuale")...))
	assert.Equal(t, "2.00", tree.Value(at(pathDocumento, "DatiBollo", "ImportoBollo")...))
	assert.Equal(t, "50.00", tree.Value(at(pathDocumento, "ImportoTotaleDocumento")...), "il bollo non cambia il totale")

	in.Invoice.Stamp = false
	_, xml, err := build(in)
	require.NoError(t, err)
	assert.NotContains(t, xml, "DatiBollo")
}

// ─────────────────────────────────────────────────────────────────────────────
// Causale
// ─────────────────────────────────────────────────────────────────────────────

func TestSplitCausale(t *testing.T) {
	text := strings.Repeat("abcdefghij", 45) // 450

	chunks := fatturapa.SplitCausale(text)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 200)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))

	assert.Len(t, fatturapa.SplitCausale(strings.Repeat("x", 200)), 1)
	assert.Len(t, fatturapa.SplitCausale(strings.Repeat("x", 201)), 2)
	assert.Nil(t, fatturapa.SplitCausale(""))
}

func TestSplitCausale_Multibyte(t *testing.T) {
	text := strings.Repeat("è", 250)
	chunks := fatturapa.SplitCausale(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, 200, len([]rune(chunks[0])))
	assert.Equal(t, text, chunks[0]+chunks[1])
}

func TestBuild_CausaleRipetuta(t *testing.T) {
	in := input()
	in.Invoice.Description = strings.Repeat("a", 401)

	tree, _, err := build(in)
	require.NoError(t, err)
	causali := tree.FindAll("Causale", pathDocumento...)
	require.Len(t, causali, 3)
	assert.Len(t, causali[2].Text, 1)
}

func TestBuild_SenzaDescrizione_SenzaCausale(t *testing.T) {
	in := input()
	in.Invoice.Description = ""

	tree, xml, err := build(in)
	require.NoError(t, err)
	assert.NotContains(t, xml, "Causale")
	assert.Equal(t, "Prestazioni professionali psicologiche", tree.Value(at(pathBeniServizi, "DettaglioLinee", "Descrizione")...))
}

// ─────────────────────────────────────────────────────────────────────────────
// Linee e riepilogo
// ─────────────────────────────────────────────────────────────────────────────

func TestBuild_DescrizioneConSedute(t *testing.T) {
	in := input()
	in.Invoice.Sessions = 3

	tree, _, err := build(in)
	require.NoError(t, err)
	assert.Equal(t, "Prestazioni professionali psicologiche - 3 sedute",
		tree.Value(at(pathBeniServizi, "DettaglioLinee", "Descrizione")...))

	in.Invoice.SessionDetail = false
	tree, _, err = build(in)
	require.NoError(t, err)
	assert.NotContains(t, tree.Value(at(pathBeniServizi, "DettaglioLinee", "Descrizione")...), "sedute")
}

func TestBuild_LineaSpese(t *testing.T) {
	in := input()
	in.Invoice.Expenses = decimal.RequireFromString("10.5")

	tree, _, err := build(in)
	require.NoError(t, err)

	lines := tree.FindAll("DettaglioLinee", pathBeniServizi...)
	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0].Value("NumeroLinea"))
	assert.Equal(t, "1.00", lines[0].Value("Quantita"))
	assert.Equal(t, "50.00", lines[0].Value("PrezzoUnitario"))
	assert.Equal(t, "50.00", lines[0].Value("PrezzoTotale"))
	assert.Equal(t, "0.00", lines[0].Value("AliquotaIVA"))

	assert.Equal(t, "2", lines[1].Value("NumeroLinea"))
	assert.Equal(t, "Spese anticipate e sostenute", lines[1].Value("Descrizione"))
	assert.Equal(t, "10.50", lines[1].Value("PrezzoTotale"))
	assert.Equal(t, "N1", lines[1].Value("Natura"))

	summaries := tree.FindAll("DatiRiepilogo", pathBeniServizi...)
	require.Len(t, summaries, 2)
	assert.Equal(t, "50.00", summaries[0].Value("ImponibileImporto"))
	assert.Equal(t, "0.00", summaries[0].Value("Imposta"))
	assert.Equal(t, "N1", summaries[1].Value("Natura"))
	assert.Equal(t, "10.50", summaries[1].Value("ImponibileImporto"))
	assert.Equal(t, "0.00", summaries[1].Value("Imposta"))
}

func TestBuild_SenzaSpese_UnaLinea(t *testing.T) {
	tree, _, err := build(input())
	require.NoError(t, err)
	assert.Len(t, tree.FindAll("DettaglioLinee", pathBeniServizi...), 1)
	assert.Len(t, tree.FindAll("DatiRiepilogo", pathBeniServizi...), 1)
}

// ─────────────────────────────────────────────────────────────────────────────
// Errori e purezza
// ─────────────────────────────────────────────────────────────────────────────

func TestBuild_TriadeIncompleta(t *testing.T) {
	in := input()
	in.Patient = nil

	_, err := fatturapa.NewBuilder(nil).Build(in)
	assert.ErrorIs(t, err, domain.ErrMissingInput)
}

func TestBuild_NonModificaInput(t *testing.T) {
	in := input()
	in.Patient.PostalCode = ""
	before := *in.Patient
	beforeInv := *in.Invoice

	_, _, err := build(in)
	require.NoError(t, err)
	assert.Equal(t, before, *in.Patient)
	assert.Equal(t, beforeInv.Amount, in.Invoice.Amount)
	assert.Equal(t, beforeInv.Description, in.Invoice.Description)
}

func TestBuild_Deterministico(t *testing.T) {
	_, a, err := build(input())
	require.NoError(t, err)
	_, b, err := build(input())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
