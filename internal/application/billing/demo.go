package billing

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/psicofattura/internal/application/dto"
	"github.com/jhoicas/psicofattura/internal/domain"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
	"github.com/jhoicas/psicofattura/internal/infrastructure/aruba"
	"github.com/jhoicas/psicofattura/internal/infrastructure/fatturapa"
)

const (
	demoFilename   = "test_invoice.xml"
	demoPreviewLen = 500
)

// DemoTriple parcella de ejemplo (Mario Rossi → Anna Verdi, 1/2024) usada por las pruebas
// de demostración y por fatturactl.
func DemoTriple() (*entity.Invoice, *entity.Psychologist, *entity.Patient) {
	psy := &entity.Psychologist{
		ID:                 "1",
		FirstName:          "Mario",
		LastName:           "Rossi",
		Sex:                entity.SexMale,
		FiscalCode:         "RSSMRA80A01H501Z",
		VATNumber:          "12345678901",
		Address:            "Via Roma 123",
		PostalCode:         "00100",
		City:               "Roma",
		Province:           "RM",
		Phone:              "+39 06 123456789",
		Email:              "mario.rossi@example.com",
		RegistrationNumber: "12345",
		RegistrationRegion: "Lazio",
		PEC:                "mario.rossi@pec.example.com",
		EInvoicingEnabled:  true,
		TaxRegime:          entity.RegimeForfettario,
	}
	patient := &entity.Patient{
		ID:          "1",
		FirstName:   "Anna",
		LastName:    "Verdi",
		FiscalCode:  "VRDNNA85C01H501W",
		BirthDate:   entity.NewDate(1985, time.March, 1),
		Address:     "Via Milano 456",
		PostalCode:  "00200",
		City:        "Roma",
		Province:    "RM",
		Phone:       "+39 06 987654321",
		Email:       "anna.verdi@example.com",
		DataConsent: true,
		ConsentDate: entity.NewDate(2024, time.January, 15),
	}
	inv := &entity.Invoice{
		ID:             "1",
		PatientID:      "1",
		PsychologistID: "1",
		Number:         "1/2024",
		Date:           entity.NewDate(2024, time.January, 15),
		Description:    "Prestazioni professionali psicologiche",
		Amount:         decimal.NewFromInt(50),
		VATRate:        decimal.Zero,
		Notes:          "Seduta di sostegno psicologico",
		Status:         entity.InvoiceStatusIssued,
		TaxRegime:      entity.RegimeForfettario,
		Electronic:     true,
		SessionDetail:  true,
		Sessions:       1,
		ServiceType:    "sostegno_psicologico",
		Expenses:       decimal.Zero,
		PaymentMethod:  "bonifico",
		StampAmount:    decimal.RequireFromString("2.00"),
		DocumentType:   entity.DocumentTypeInvoice,
	}
	return inv, psy, patient
}

// Demo ejecuta una prueba de demostración con la parcella de ejemplo:
// connection | xml | upload | status | full. Sólo xml funciona sin intermediario.
func (s *EInvoiceService) Demo(ctx context.Context, kind string) (*dto.DemoResponse, error) {
	if kind == "" {
		kind = dto.DemoConnection
	}
	if !slices.Contains(dto.DemoKinds, kind) {
		return nil, reject(domain.ErrInvalidInput, "Invalid test type", dto.DemoKinds)
	}
	if kind != dto.DemoXML {
		if s.intermediary == nil {
			return nil, reject(domain.ErrEInvoicingDisabled, domain.ErrEInvoicingDisabled.Error(), nil)
		}
	}

	switch kind {
	case dto.DemoConnection:
		return &dto.DemoResponse{
			Test:        "connection",
			Result:      s.intermediary.TestConnection(ctx),
			Environment: s.intermediary.EnvironmentInfo(),
		}, nil

	case dto.DemoXML:
		doc, err := s.demoDocument()
		if err != nil {
			return nil, err
		}
		return &dto.DemoResponse{
			Test: "xml-generation",
			Result: dto.DemoXMLResult{
				Success:    doc.Validation.Valid,
				XMLLength:  doc.Size,
				Validation: toValidation(doc.Validation),
				Preview:    preview(doc.XML),
			},
		}, nil

	case dto.DemoUpload:
		doc, err := s.demoDocument()
		if err != nil {
			return nil, err
		}
		result, err := s.intermediary.UploadInvoice(ctx, doc.XML, demoFilename)
		if err != nil {
			return nil, s.intermediaryError(err)
		}
		return &dto.DemoResponse{Test: "invoice-upload", Result: result, Environment: s.intermediary.EnvironmentInfo()}, nil

	case dto.DemoStatus:
		status, err := s.intermediary.GetInvoiceStatus(ctx, demoFilename)
		if err != nil {
			return nil, s.intermediaryError(err)
		}
		return &dto.DemoResponse{Test: "status-check", Result: status, Environment: s.intermediary.EnvironmentInfo()}, nil

	default:
		return s.demoFullWorkflow(ctx)
	}
}

// demoFullWorkflow conexión → generación → subida → estado; cada paso sólo si el anterior tuvo éxito.
func (s *EInvoiceService) demoFullWorkflow(ctx context.Context) (*dto.DemoResponse, error) {
	results := &dto.DemoResults{}
	summary := &dto.DemoSummary{}

	conn := s.intermediary.TestConnection(ctx)
	results.Connection = conn
	summary.Connection = conn.Success

	doc, err := s.demoDocument()
	if err != nil {
		return nil, err
	}
	results.XMLGeneration = dto.DemoGeneration{Success: doc.Validation.Valid, Errors: toValidation(doc.Validation).Errors}
	summary.XMLGeneration = doc.Validation.Valid

	if doc.Validation.Valid {
		upload, err := s.intermediary.UploadInvoice(ctx, doc.XML, fmt.Sprintf("test_full_%d.xml", s.now().UnixMilli()))
		if err != nil {
			return nil, s.intermediaryError(err)
		}
		results.Upload = upload
		summary.Upload = upload.Success

		if upload.Success {
			var status *aruba.InvoiceStatus
			status, err = s.intermediary.GetInvoiceStatus(ctx, upload.UploadFilename)
			if err != nil {
				return nil, s.intermediaryError(err)
			}
			if status != nil {
				results.Status = status
				summary.StatusCheck = true
			}
		}
	}

	return &dto.DemoResponse{
		Test:        "full-workflow",
		Results:     results,
		Environment: s.intermediary.EnvironmentInfo(),
		Summary:     summary,
	}, nil
}

func (s *EInvoiceService) demoDocument() (*fatturapa.GeneratedDocument, error) {
	inv, psy, patient := DemoTriple()
	doc, err := s.generator.Generate(fatturapa.BuildInput{Invoice: inv, Psychologist: psy, Patient: patient})
	if err != nil {
		return nil, s.generationError(err, "XML validation failed")
	}
	return doc, nil
}

// preview primeros 500 caracteres del XML seguidos de "...".
func preview(xml string) string {
	r := []rune(xml)
	if len(r) > demoPreviewLen {
		r = r[:demoPreviewLen]
	}
	return string(r) + "..."
}
