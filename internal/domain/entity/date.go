package entity

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout formato de fecha de los registros (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Date fecha civil. Acepta "2006-01-02" o RFC3339 al decodificar y se codifica como "2006-01-02".
type Date struct {
	time.Time
}

// NewDate construye una Date a partir de año, mes y día (UTC).
func NewDate(y int, m time.Month, d int) Date {
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate interpreta "2006-01-02" o RFC3339.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("fecha inválida %q: se espera YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

// String devuelve la fecha en formato YYYY-MM-DD ("" si es cero).
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON codifica como "YYYY-MM-DD" o null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON acepta null, "" o una fecha.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalText permite decodificar desde YAML y formularios.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText codifica como "YYYY-MM-DD".
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
