// Package pdf genera la "parcella" del psicólogo: la representación legible de la
// fattura, independiente del XML FatturaPA.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│            Dott./Dott.ssa Nome Cognome (centrado)            │
//	│        Indirizzo / C.f. / Partita Iva / Iscrizione Ordine    │
//	│  Egr. Sig.  Nome Cognome      (oculto con mostraPrivacy)     │
//	│  Cod. Fisc. XXXXXXXXXXXXXXXX                                 │
//	│  PARCELLA N. <num> del <dd/mm/yyyy>                          │
//	│  Descrizione + dettaglio sedute                              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  Spese anticipate (*) | Onorari | Contr. integr. ENPAP 2%    │
//	│  TOTALE / NETTO A PAGARE                                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  Leyenda regime forfettario + Note                           │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/psicofattura/internal/domain/entity"
	"github.com/jhoicas/psicofattura/pkg/fatturapa"
)

// DefaultDescription texto de cortesía cuando la factura no trae descripción.
const DefaultDescription = "Ci pregiamo rimetterVi fattura per prestazioni professionali relative a :"

// ENPAPRate contributo integrativo ENPAP (2 %) sobre los honorarios.
var ENPAPRate = decimal.RequireFromString("0.02")

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorBlack = &props.Color{Red: 0, Green: 0, Blue: 0}
	colorGray  = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator genera la parcella con Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// ParcellaTotals importes derivados de la factura.
type ParcellaTotals struct {
	Fee      decimal.Decimal
	ENPAP    decimal.Decimal
	Total    decimal.Decimal
	Expenses decimal.Decimal
}

// ComputeTotals ENPAP = importo × 2 %; total = importo + ENPAP (los gastos anticipados se muestran aparte).
func ComputeTotals(inv *entity.Invoice) ParcellaTotals {
	enpap := inv.Amount.Mul(ENPAPRate).Round(2)
	return ParcellaTotals{
		Fee:      inv.Amount,
		ENPAP:    enpap,
		Total:    inv.Amount.Add(enpap),
		Expenses: inv.Expenses,
	}
}

// Filename Parcella_<num>_<cognome>_<anno>.pdf; las barras del número pasan a guiones.
func Filename(inv *entity.Invoice, patient *entity.Patient) string {
	surname := ""
	if patient != nil {
		surname = patient.LastName
	}
	num := strings.ReplaceAll(inv.Number, "/", "-")
	return fmt.Sprintf("Parcella_%s_%s_%d.pdf", num, surname, inv.Date.Year())
}

// GenerateParcella genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateParcella(
	_ context.Context,
	inv *entity.Invoice,
	psy *entity.Psychologist,
	patient *entity.Patient,
) ([]byte, error) {
	if inv == nil || psy == nil || patient == nil {
		return nil, fmt.Errorf("pdf: faltan invoice, psychologist o patient")
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(25).WithRightMargin(25).
		WithTopMargin(20).WithBottomMargin(15).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 10}).
		WithTitle("Parcella "+inv.Number, true).
		WithAuthor(psy.FullName(), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(issuerRows(psy)...)
	m.AddRows(row.New(10))
	m.AddRows(recipientRows(patient, inv.MaskPrivacy)...)
	m.AddRows(row.New(8))
	m.AddRows(text.NewRow(8, fmt.Sprintf("PARCELLA N. %s del %s", inv.Number, inv.Date.Format("02/01/2006")),
		props.Text{Style: fontstyle.Bold, Size: 10}))
	m.AddRows(descriptionRows(inv)...)
	m.AddRows(row.New(10))
	m.AddRows(amountRows(ComputeTotals(inv))...)
	m.AddRows(row.New(12))
	m.AddRows(footerRows(inv)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func issuerRows(psy *entity.Psychologist) []core.Row {
	center := func(s string, size float64, style fontstyle.Type) core.Row {
		return text.NewRow(6, s, props.Text{Size: size, Style: style, Align: align.Center})
	}
	rows := []core.Row{
		text.NewRow(8, fmt.Sprintf("%s %s", title(psy.Sex), psy.FullName()),
			props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Center}),
		center(psy.Address, 10, fontstyle.Normal),
		center("C.f. "+psy.FiscalCode, 10, fontstyle.Normal),
		center("Partita Iva "+psy.VATNumber, 10, fontstyle.Normal),
	}
	if psy.RegistrationNumber != "" {
		rows = append(rows, center("Iscrizione Ordine Psicologi n. "+psy.RegistrationNumber, 10, fontstyle.Normal))
	}
	return rows
}

// title Dott.ssa sólo para sesso F; cualquier otro valor usa Dott.
func title(sex string) string {
	if sex == entity.SexFemale {
		return fatturapa.Honorific(sex)
	}
	return fatturapa.Honorific(entity.SexMale)
}

// recipientRows datos del paciente; con mask los valores se cubren con una celda negra.
func recipientRows(patient *entity.Patient, mask bool) []core.Row {
	field := func(label, value string, width int) core.Row {
		cell := col.New(width)
		if mask {
			cell = cell.WithStyle(&props.Cell{BackgroundColor: colorBlack})
		} else {
			cell = cell.Add(text.New(value, props.Text{Size: 10}))
		}
		return row.New(7).Add(
			col.New(2).Add(text.New(label, props.Text{Size: 10})),
			cell,
			col.New(10-width),
		)
	}
	return []core.Row{
		field("Egr. Sig.", patient.FullName(), 5),
		field("Cod. Fisc.", patient.FiscalCode, 4),
	}
}

func descriptionRows(inv *entity.Invoice) []core.Row {
	desc := inv.Description
	if desc == "" {
		desc = DefaultDescription
	}
	rows := []core.Row{text.NewRow(10, desc, props.Text{Size: 10, Top: 3})}
	if inv.SessionDetail {
		sessions := inv.Sessions
		if sessions < 1 {
			sessions = 1
		}
		rows = append(rows, text.NewRow(7,
			fmt.Sprintf("sostegno psicologico numero %d seduta", sessions),
			props.Text{Size: 10, Left: 5}))
	}
	return rows
}

func amountRows(t ParcellaTotals) []core.Row {
	amount := func(label, value string, style fontstyle.Type, size float64) core.Row {
		return row.New(7).Add(
			col.New(7).Add(text.New(label, props.Text{Size: size, Style: style})),
			col.New(3).Add(text.New(value, props.Text{Size: size, Style: style, Align: align.Right})),
			col.New(2),
		)
	}

	var rows []core.Row
	if t.Expenses.IsPositive() {
		rows = append(rows, amount("Spese anticipate (*)", FormatEuro(t.Expenses), fontstyle.Normal, 10))
	}
	rows = append(rows,
		amount("Onorari", FormatEuro(t.Fee), fontstyle.Normal, 10),
		amount("Contr. integr. ENPAP 2%", FormatEuro(t.ENPAP), fontstyle.Normal, 10),
		row.New(3),
		amount("TOTALE", FormatEuro(t.Total), fontstyle.Bold, 10),
		row.New(3),
		line.NewRow(1, props.Line{Color: colorBlack, Thickness: 0.5}),
		row.New(3),
		amount("NETTO A PAGARE", FormatEuro(t.Total), fontstyle.Bold, 11),
	)
	if t.Expenses.IsPositive() {
		rows = append(rows, text.NewRow(5, "(*) Importo escluso da I.V.A. ai sensi dell'art. 15 D.P.R. 633/72",
			props.Text{Size: 8, Color: colorGray, Top: 1}))
	}
	return rows
}

func footerRows(inv *entity.Invoice) []core.Row {
	var rows []core.Row
	if inv.Regime() == entity.RegimeForfettario {
		rows = append(rows,
			text.NewRow(4, "Operazione effettuata ai sensi dell' art. 1, comma da 54 a 89 della legge 190/2014, come modificati",
				props.Text{Size: 8, Style: fontstyle.Italic}),
			text.NewRow(4, "dall' articolo 1, comma da 111 a 113 della Legge 208/2015 (regime forfettario).",
				props.Text{Size: 8, Style: fontstyle.Italic}),
		)
	}
	if strings.TrimSpace(inv.Notes) != "" {
		rows = append(rows, row.New(6), text.NewRow(5, "Note:", props.Text{Size: 8, Style: fontstyle.Bold}))
		for _, l := range strings.Split(inv.Notes, "\n") {
			rows = append(rows, text.NewRow(5, l, props.Text{Size: 8}))
		}
	}
	return rows
}
