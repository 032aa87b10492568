package fatturapa

import (
	"strings"
	"time"

	"github.com/jhoicas/psicofattura/internal/domain"
)

// GeneratedDocument documento completo listo para transmitir. Inmutable una vez producido.
type GeneratedDocument struct {
	XML               string
	Hash              string
	Filename          string
	Size              int
	ProgressiveNumber string
	Validation        ValidationResult
}

// ValidationError el XML generado no superó la validación estructural.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return domain.ErrXMLValidation.Error() + ": " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Unwrap() error { return domain.ErrXMLValidation }

// Generator pipeline build → serialize → validate → hash → filename.
// Devuelve el documento completo o un error, nunca un resultado parcial.
type Generator struct {
	builder   *Builder
	validator DocumentValidator
	now       func() time.Time
}

// NewGenerator crea el pipeline. builder nil => NewBuilder(nil); validator nil => MarkerValidator.
func NewGenerator(builder *Builder, validator DocumentValidator) *Generator {
	if builder == nil {
		builder = NewBuilder(nil)
	}
	if validator == nil {
		validator = MarkerValidator{}
	}
	return &Generator{builder: builder, validator: validator, now: time.Now}
}

// WithClock fija el reloj usado para el timestamp del nombre de archivo.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	cp := *g
	cp.now = now
	return &cp
}

// Validator devuelve el validador configurado.
func (g *Generator) Validator() DocumentValidator { return g.validator }

// Generate produce XML, hash SHA-256 y nombre de archivo de la tríada.
func (g *Generator) Generate(in BuildInput) (*GeneratedDocument, error) {
	tree, err := g.builder.Build(in)
	if err != nil {
		return nil, err
	}
	xml, err := Serialize(tree)
	if err != nil {
		return nil, err
	}
	result := g.validator.Validate(xml)
	if !result.Valid {
		return nil, &ValidationError{Errors: result.Errors}
	}

	ts := g.now()
	// Sin número original la nota se nombra con su propio número, como una parcella.
	filename := Filename(in.Psychologist.FiscalCode, in.Invoice.Number, ts)
	if in.Options.IsAmendment {
		original := in.Options.OriginalInvoiceReference
		if original == "" {
			original = in.Invoice.OriginalInvoiceNumber
		}
		if original != "" {
			filename = CreditNoteFilename(in.Psychologist.FiscalCode, original, ts)
		}
	}

	return &GeneratedDocument{
		XML:               xml,
		Hash:              HashXML(xml),
		Filename:          filename,
		Size:              len(xml),
		ProgressiveNumber: tree.Value("FatturaElettronicaHeader", "DatiTrasmissione", "ProgressivoInvio"),
		Validation:        result,
	}, nil
}
