package fatturapa

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/psicofattura/internal/domain"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
)

// CreditNotePrefix antepuesto al número de la factura original.
const CreditNotePrefix = "CN-"

// ToCreditNote deriva la nota de crédito de una factura y los datos de corrección.
// La original no se modifica. Con corrección "totale" se anula el importo completo;
// en otro caso la diferencia con el nuevo importo (sin nuevo importo se asume 0).
func ToCreditNote(original *entity.Invoice, a entity.Amendment, now time.Time) (*entity.Invoice, error) {
	if original == nil {
		return nil, fmt.Errorf("%w: fattura originale mancante", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(original.Number) == "" {
		return nil, fmt.Errorf("%w: numero fattura originale mancante", domain.ErrInvalidInput)
	}

	credit := original.Amount
	if a.CorrectionType != entity.CorrectionFull {
		newAmount := decimal.Zero
		if a.NewAmount != nil {
			newAmount = *a.NewAmount
		}
		credit = original.Amount.Sub(newAmount)
	}

	cn := *original
	cn.ID = ""
	cn.Number = CreditNotePrefix + original.Number
	cn.Date = entity.Date{Time: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)}
	cn.Amount = credit.Abs().Neg()
	cn.Description = "NOTA DI CREDITO per fattura " + original.Number
	cn.Notes = creditNoteNotes(original, a)
	cn.Status = entity.InvoiceStatusIssued
	cn.PaymentDate = entity.Date{}

	cn.DocumentType = entity.DocumentTypeCreditNote
	cn.OriginalInvoiceID = original.ID
	cn.OriginalInvoiceNumber = original.Number
	cn.AmendmentReason = a.Reason
	cn.AmendmentDetail = a.Detail
	cn.AmendmentCorrection = a.CorrectionType

	// El documento es nuevo: nada del ciclo SDI de la original se hereda.
	cn.XMLData, cn.XMLHash, cn.UploadFilename = "", "", ""
	cn.SDIID, cn.SDIStatus = "", ""
	cn.SDIErrors, cn.SDIHistory = nil, nil
	cn.SDISubmissionDate, cn.SDILastCheck = nil, nil
	cn.CreatedAt, cn.UpdatedAt = time.Time{}, time.Time{}
	return &cn, nil
}

func creditNoteNotes(original *entity.Invoice, a entity.Amendment) string {
	parts := []string{
		"Motivo: " + a.Detail,
		a.AdditionalNotes,
		fmt.Sprintf("Riferimento fattura originale: %s del %s", original.Number, original.Date.Format("2/1/2006")),
	}
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
