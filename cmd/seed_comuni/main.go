// seed_comuni genera el script SQL que puebla la tabla comuni (código ISTAT,
// denominación y sigla de provincia) a partir del CSV oficial de ISTAT
// "Elenco-comuni-italiani.csv" (separado por ';', codificado en Windows-1252).
//
// Uso: go run ./cmd/seed_comuni [ruta/Elenco-comuni-italiani.csv]
// Escribe: migrations/002_seed_comuni.sql
package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Cabeceras del CSV de ISTAT que se usan.
const (
	colCodice        = "Codice Comune formato alfanumerico"
	colDenominazione = "Denominazione in italiano"
	colSigla         = "Sigla automobilistica"
)

type comune struct {
	codice        string
	denominazione string
	sigla         string
}

func main() {
	csvPath := "Elenco-comuni-italiani.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	comuni, err := parseComuni(transform.NewReader(f, charmap.Windows1252.NewDecoder()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join(findModuleRoot(), "migrations", "002_seed_comuni.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, comuni); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d comuni\n", outPath, len(comuni))
}

// parseComuni lee el CSV ya decodificado a UTF-8. Las filas sin código o sin
// sigla se descartan; el resultado va ordenado por código ISTAT.
func parseComuni(r io.Reader) ([]comune, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("cabecera: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range []string{colCodice, colDenominazione, colSigla} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("columna %q ausente", col)
		}
	}

	seen := make(map[string]bool)
	var comuni []comune
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		c := comune{
			codice:        field(rec, idx[colCodice]),
			denominazione: field(rec, idx[colDenominazione]),
			sigla:         strings.ToUpper(field(rec, idx[colSigla])),
		}
		if len(c.codice) != 6 || len(c.sigla) != 2 || c.denominazione == "" || seen[c.codice] {
			continue
		}
		seen[c.codice] = true
		comuni = append(comuni, c)
	}
	sort.Slice(comuni, func(i, j int) bool { return comuni[i].codice < comuni[j].codice })
	return comuni, nil
}

func writeSQL(w io.Writer, comuni []comune) error {
	var b strings.Builder
	b.WriteString("-- Comuni italiani (codice ISTAT)\n")
	b.WriteString("-- Generado desde Elenco-comuni-italiani.csv (ISTAT)\n\n")
	if len(comuni) > 0 {
		b.WriteString("INSERT INTO comuni (istat_code, name, province) VALUES\n")
		for i, c := range comuni {
			sep := ","
			if i == len(comuni)-1 {
				sep = ""
			}
			fmt.Fprintf(&b, "  ('%s', '%s', '%s')%s\n", c.codice, escapeSQL(c.denominazione), c.sigla, sep)
		}
		b.WriteString("ON CONFLICT (istat_code) DO NOTHING;\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
