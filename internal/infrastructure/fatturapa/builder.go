// Package fatturapa genera el documento FatturaPA (FPR12) de una parcella:
// árbol del documento, serialización XML, validación estructural, nombre de archivo y hash.
package fatturapa

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/psicofattura/internal/domain"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
	"github.com/jhoicas/psicofattura/pkg/fatturapa"
)

const (
	causaleMaxLength   = 200
	defaultDescription = "Prestazioni professionali psicologiche"
	expenseDescription = "Spese anticipate e sostenute"
	fixedQuantity      = "1.00"
	zeroRate           = "0.00"
)

var hundred = decimal.NewFromInt(100)

// BuildOptions opciones del documento.
type BuildOptions struct {
	// ProgressiveNumber se usa tal cual si no está vacío; si no, lo genera el ProgressiveSource.
	ProgressiveNumber string
	IsAmendment       bool
	// OriginalInvoiceReference número de la factura que corrige la nota de crédito.
	OriginalInvoiceReference string
}

// BuildInput tríada de registros (sólo lectura) más opciones.
type BuildInput struct {
	Invoice      *entity.Invoice
	Psychologist *entity.Psychologist
	Patient      *entity.Patient
	Options      BuildOptions
}

// Builder construye el árbol FatturaElettronica. No valida reglas de negocio ni modifica la entrada.
type Builder struct {
	progressive ProgressiveSource
}

// NewBuilder crea el builder. src nil => ClockRandomSource.
func NewBuilder(src ProgressiveSource) *Builder {
	if src == nil {
		src = NewClockRandomSource()
	}
	return &Builder{progressive: src}
}

// Build construye el documento completo (cabecera y cuerpo).
func (b *Builder) Build(in BuildInput) (*Node, error) {
	if in.Invoice == nil || in.Psychologist == nil || in.Patient == nil {
		return nil, fmt.Errorf("fatturapa: faltan invoice, psychologist o patient: %w", domain.ErrMissingInput)
	}
	progressive := in.Options.ProgressiveNumber
	if progressive == "" {
		progressive = b.progressive.Next()
	}

	return el("FatturaElettronica",
		attr("versione", fatturapa.SchemaVersion),
		attr("xmlns", fatturapa.Namespace),
		el("FatturaElettronicaHeader",
			transmission(in.Patient, progressive),
			supplier(in.Psychologist),
			customer(in.Patient),
		),
		body(in.Invoice, in.Options),
	), nil
}

// ── Header ──────────────────────────────────────────────────────────────────

func transmission(p *entity.Patient, progressive string) *Node {
	recipient := p.RecipientCode
	if recipient == "" {
		recipient = fatturapa.DefaultRecipientCode
	}
	return el("DatiTrasmissione",
		el("IdTrasmittente",
			leaf("IdPaese", fatturapa.CountryIT),
			leaf("IdCodice", fatturapa.TransmitterCode),
		),
		leaf("ProgressivoInvio", progressive),
		leaf("FormatoTrasmissione", fatturapa.TransmissionFormat),
		leaf("CodiceDestinatario", recipient),
		optLeaf("PECDestinatario", p.PEC),
	)
}

func supplier(p *entity.Psychologist) *Node {
	return el("CedentePrestatore",
		el("DatiAnagrafici",
			el("IdFiscaleIVA",
				leaf("IdPaese", fatturapa.CountryIT),
				leaf("IdCodice", p.VATNumber),
			),
			optLeaf("CodiceFiscale", p.FiscalCode),
			el("Anagrafica",
				leaf("Nome", p.FirstName),
				leaf("Cognome", p.LastName),
				optLeaf("Titolo", fatturapa.Honorific(p.Sex)),
			),
			leaf("RegimeFiscale", fatturapa.RegimeCode(p.Regime())),
		),
		sede(p.Address, p.PostalCode, p.City, p.Province),
		opt(p.RegistrationNumber != "" && p.RegistrationRegion != "",
			el("IscrizioneREA",
				leaf("Ufficio", p.RegistrationRegion),
				leaf("NumeroREA", p.RegistrationNumber),
			)),
		el("Contatti",
			optLeaf("Telefono", p.Phone),
			optLeaf("Email", p.Email),
			optLeaf("PEC", p.PEC),
		),
	)
}

func customer(p *entity.Patient) *Node {
	return el("CessionarioCommittente",
		el("DatiAnagrafici",
			leaf("CodiceFiscale", p.FiscalCode),
			el("Anagrafica",
				leaf("Nome", p.FirstName),
				leaf("Cognome", p.LastName),
			),
		),
		opt(p.Address != "", sede(p.Address, p.PostalCode, p.City, p.Province)),
	)
}

// sede completa CAP, Comune y Provincia con los valores por defecto cuando faltan.
func sede(address, postalCode, city, province string) *Node {
	return el("Sede",
		leaf("Indirizzo", address),
		leaf("CAP", orDefault(postalCode, fatturapa.DefaultPostalCode)),
		leaf("Comune", orDefault(city, fatturapa.DefaultCity)),
		leaf("Provincia", orDefault(province, fatturapa.DefaultProvince)),
		leaf("Nazione", fatturapa.CountryIT),
	)
}

// ── Body ────────────────────────────────────────────────────────────────────

func body(inv *entity.Invoice, opts BuildOptions) *Node {
	regime := inv.Regime()
	nature := fatturapa.VATNature(regime)
	vat := inv.Amount.Mul(inv.VATRate).Div(hundred)
	total := inv.Amount.Add(vat).Add(inv.Expenses)
	hasExpenses := inv.Expenses.IsPositive()

	generalDoc := el("DatiGeneraliDocumento",
		leaf("TipoDocumento", fatturapa.DocumentType(opts.IsAmendment)),
		leaf("Divisa", fatturapa.Currency),
		leaf("Data", inv.Date.Format(entity.DateLayout)),
		leaf("Numero", inv.Number),
		opt(inv.Stamp, stamp(inv.StampAmount)),
		leaf("ImportoTotaleDocumento", money(total)),
	)
	generalDoc.Children = append(generalDoc.Children, leaves("Causale", SplitCausale(inv.Description))...)

	lines := []*Node{
		el("DettaglioLinee",
			leaf("NumeroLinea", strconv.Itoa(1)),
			leaf("Descrizione", serviceDescription(inv)),
			leaf("Quantita", fixedQuantity),
			leaf("PrezzoUnitario", money(inv.Amount)),
			leaf("PrezzoTotale", money(inv.Amount)),
			leaf("AliquotaIVA", money(inv.VATRate)),
			optLeaf("Natura", nature),
		),
	}
	summaries := []*Node{
		el("DatiRiepilogo",
			leaf("AliquotaIVA", money(inv.VATRate)),
			optLeaf("Natura", nature),
			leaf("ImponibileImporto", money(inv.Amount)),
			leaf("Imposta", money(vat)),
			optLeaf("RiferimentoNormativo", fatturapa.LegalReference(regime)),
		),
	}
	if hasExpenses {
		lines = append(lines, el("DettaglioLinee",
			leaf("NumeroLinea", strconv.Itoa(2)),
			leaf("Descrizione", expenseDescription),
			leaf("Quantita", fixedQuantity),
			leaf("PrezzoUnitario", money(inv.Expenses)),
			leaf("PrezzoTotale", money(inv.Expenses)),
			leaf("AliquotaIVA", zeroRate),
			leaf("Natura", fatturapa.ExpenseNature),
		))
		summaries = append(summaries, el("DatiRiepilogo",
			leaf("AliquotaIVA", zeroRate),
			leaf("Natura", fatturapa.ExpenseNature),
			leaf("ImponibileImporto", money(inv.Expenses)),
			leaf("Imposta", zeroRate),
		))
	}

	return el("FatturaElettronicaBody",
		el("DatiGenerali",
			generalDoc,
			opt(opts.IsAmendment && opts.OriginalInvoiceReference != "",
				el("DatiFattureCollegate", leaf("IdDocumento", opts.OriginalInvoiceReference))),
		),
		el("DatiBeniServizi", append(lines, summaries...)...),
	)
}

func stamp(amount decimal.Decimal) *Node {
	value := fatturapa.DefaultStampAmount
	if amount.IsPositive() {
		value = money(amount)
	}
	return el("DatiBollo",
		leaf("BolloVirtuale", fatturapa.StampVirtual),
		leaf("ImportoBollo", value),
	)
}

func serviceDescription(inv *entity.Invoice) string {
	base := orDefault(inv.Description, defaultDescription)
	if inv.SessionDetail && inv.Sessions > 1 {
		return fmt.Sprintf("%s - %d sedute", base, inv.Sessions)
	}
	return base
}

// SplitCausale corta el texto en trozos de hasta 200 caracteres, en orden y sin
// respetar palabras. Se cuenta por runas para no partir caracteres multibyte.
func SplitCausale(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+causaleMaxLength-1)/causaleMaxLength)
	for i := 0; i < len(runes); i += causaleMaxLength {
		end := min(i+causaleMaxLength, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// money formatea con exactamente dos decimales.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
