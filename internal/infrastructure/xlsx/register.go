// Package xlsx exporta el registro de fatture a una hoja Excel.
package xlsx

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/psicofattura/internal/domain/entity"
)

// SheetName nombre de la hoja del registro.
const SheetName = "Registro fatture"

// Headers cabecera fija del registro (fila 1).
var Headers = []string{
	"Numero", "Data", "Paziente", "Importo", "IVA", "Spese anticipate", "Totale", "Stato", "Stato SDI",
}

// RegisterRow una factura con el nombre del paciente ya resuelto.
type RegisterRow struct {
	Invoice     *entity.Invoice
	PatientName string
}

// RegisterExporter escribe el registro con excelize.
type RegisterExporter struct{}

// NewRegisterExporter construye el exportador.
func NewRegisterExporter() *RegisterExporter { return &RegisterExporter{} }

// Export devuelve el .xlsx en memoria. Los importes se escriben como números con formato "#,##0.00".
func (e *RegisterExporter) Export(rows []RegisterRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("xlsx: renombrar hoja: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo cabecera: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo importes: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Headers); err != nil {
		return nil, fmt.Errorf("xlsx: cabecera: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(Headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("xlsx: estilo cabecera: %w", err)
	}

	for i, r := range rows {
		inv := r.Invoice
		line := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, line)
		values := []any{
			inv.Number,
			inv.Date.Format("02/01/2006"),
			r.PatientName,
			inv.Amount.InexactFloat64(),
			inv.VAT().Round(2).InexactFloat64(),
			inv.Expenses.InexactFloat64(),
			inv.Total().Round(2).InexactFloat64(),
			inv.Status,
			inv.SDIStatus,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("xlsx: fila %d: %w", line, err)
		}
		from, _ := excelize.CoordinatesToCellName(4, line)
		to, _ := excelize.CoordinatesToCellName(7, line)
		if err := f.SetCellStyle(SheetName, from, to, money); err != nil {
			return nil, fmt.Errorf("xlsx: estilo fila %d: %w", line, err)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 12)
	_ = f.SetColWidth(SheetName, "C", "C", 28)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}
