package dto

import "github.com/jhoicas/psicofattura/internal/domain/entity"

// InvoiceListQuery filtros de GET /api/invoices.
type InvoiceListQuery struct {
	PsychologistID string `query:"idPsicologo"`
	PatientID      string `query:"idPaziente"`
	Year           int    `query:"anno"`
	Limit          int    `query:"limit"`
	Offset         int    `query:"offset"`
}

// Filter traduce la query al filtro del repositorio con paginación por defecto.
func (q InvoiceListQuery) Filter() entity.InvoiceFilter {
	page := PageRequest{Limit: q.Limit, Offset: q.Offset}
	page.DefaultPage()
	return entity.InvoiceFilter{
		PsychologistID: q.PsychologistID,
		PatientID:      q.PatientID,
		Year:           q.Year,
		Limit:          page.Limit,
		Offset:         page.Offset,
	}
}

// InvoiceStatusRequest body de PATCH /api/invoices/:id/status.
type InvoiceStatusRequest struct {
	Status      string      `json:"stato"`
	PaymentDate entity.Date `json:"dataPagamento"`
}

// NextNumberResponse siguiente número de parcella del año.
type NextNumberResponse struct {
	Number string `json:"numeroFattura"`
}

// PDFResult parcella renderizada.
type PDFResult struct {
	Filename string
	Content  []byte
}
