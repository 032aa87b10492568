package fatturapa_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/psicofattura/internal/domain/entity"
	"github.com/jhoicas/psicofattura/internal/infrastructure/fatturapa"
)

func psychologist() *entity.Psychologist {
	return &entity.Psychologist{
		ID:                 "psy-1",
		FirstName:          "Mario",
		LastName:           "Rossi",
		Sex:                entity.SexMale,
		FiscalCode:         "RSSMRA80A01H501Z",
		VATNumber:          "12345678903",
		Address:            "Via Roma 123",
		PostalCode:         "00100",
		City:               "Roma",
		Province:           "RM",
		Phone:              "+39 06 123456789",
		Email:              "mario.rossi@example.com",
		PEC:                "mario.rossi@pec.example.com",
		RegistrationNumber: "12345",
		RegistrationRegion: "Lazio",
		EInvoicingEnabled:  true,
		TaxRegime:          entity.RegimeForfettario,
	}
}

func patient() *entity.Patient {
	return &entity.Patient{
		ID:         "pat-1",
		FirstName:  "Anna",
		LastName:   "Verdi",
		FiscalCode: "VRDNNA85C01H501W",
		Address:    "Via Milano 456",
		PostalCode: "00200",
		City:       "Roma",
		Province:   "RM",
	}
}

func invoice() *entity.Invoice {
	return &entity.Invoice{
		ID:             "inv-1",
		PsychologistID: "psy-1",
		PatientID:      "pat-1",
		Number:         "1/2024",
		Date:           entity.NewDate(2024, time.January, 15),
		Description:    "Prestazioni professionali psicologiche",
		Amount:         decimal.NewFromInt(50),
		VATRate:        decimal.Zero,
		Expenses:       decimal.Zero,
		SessionDetail:  true,
		Sessions:       1,
		TaxRegime:      entity.RegimeForfettario,
		Status:         entity.InvoiceStatusIssued,
	}
}

func input() fatturapa.BuildInput {
	return fatturapa.BuildInput{
		Invoice:      invoice(),
		Psychologist: psychologist(),
		Patient:      patient(),
		Options:      fatturapa.BuildOptions{ProgressiveNumber: "00001"},
	}
}

func build(in fatturapa.BuildInput) (*fatturapa.Node, string, error) {
	tree, err := fatturapa.NewBuilder(fatturapa.NewSequenceSource("99999")).Build(in)
	if err != nil {
		return nil, "", err
	}
	xml, err := fatturapa.Serialize(tree)
	return tree, xml, err
}
