package fatturapa

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/jhoicas/psicofattura/pkg/fatturapa"
)

// ValidationResult resultado de la validación estructural. Errors nunca es nil.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// DocumentValidator valida el XML ya serializado.
type DocumentValidator interface {
	Validate(xml string) ValidationResult
}

// requiredMarker sección obligatoria y el error que produce su ausencia.
type requiredMarker struct {
	path    string
	message string
}

var requiredMarkers = []requiredMarker{
	{"FatturaElettronica", "Missing FatturaElettronica root element"},
	{"FatturaElettronicaHeader/DatiTrasmissione", "Missing DatiTrasmissione"},
	{"FatturaElettronicaHeader/CedentePrestatore", "Missing CedentePrestatore"},
	{"FatturaElettronicaHeader/CessionarioCommittente", "Missing CessionarioCommittente"},
	{"FatturaElettronicaBody/DatiGenerali/DatiGeneraliDocumento", "Missing DatiGeneraliDocumento"},
	{"FatturaElettronicaBody/DatiBeniServizi/DettaglioLinee", "Missing DettaglioLinee"},
}

// MarkerValidator comprueba sólo la presencia de los nombres de sección en el texto.
// Un resultado válido NO implica conformidad con el XSD.
type MarkerValidator struct{}

func (MarkerValidator) Validate(xml string) ValidationResult {
	errs := []string{}
	for _, m := range requiredMarkers {
		name := m.path[strings.LastIndex(m.path, "/")+1:]
		if !strings.Contains(xml, name) {
			errs = append(errs, m.message)
		}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ElementValidator parsea el XML y exige las secciones en su posición, además de
// la versión y el namespace del elemento raíz.
type ElementValidator struct{}

func (ElementValidator) Validate(xml string) ValidationResult {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		return ValidationResult{Errors: []string{"XML validation error: " + err.Error()}}
	}
	root := doc.Root()
	if root == nil || root.Tag != "FatturaElettronica" {
		return ValidationResult{Errors: []string{requiredMarkers[0].message}}
	}

	errs := []string{}
	if v := root.SelectAttrValue("versione", ""); v != fatturapa.SchemaVersion {
		errs = append(errs, "Invalid versione attribute: "+v)
	}
	if ns := root.SelectAttrValue("xmlns", ""); ns != fatturapa.Namespace {
		errs = append(errs, "Invalid namespace: "+ns)
	}
	for _, m := range requiredMarkers[1:] {
		if root.FindElement("./"+m.path) == nil {
			errs = append(errs, m.message)
		}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
