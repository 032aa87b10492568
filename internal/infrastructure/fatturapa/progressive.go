package fatturapa

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// ProgressiveSource genera el ProgressivoInvio de cada transmisión.
type ProgressiveSource interface {
	Next() string
}

// ClockRandomSource timestamp en milisegundos + sufijo aleatorio de 3 dígitos.
// La unicidad es probabilística: dos llamadas en el mismo milisegundo pueden coincidir.
type ClockRandomSource struct {
	now func() time.Time
}

// NewClockRandomSource crea la fuente con el reloj del sistema.
func NewClockRandomSource() *ClockRandomSource {
	return &ClockRandomSource{now: time.Now}
}

// NewClockRandomSourceAt permite fijar el reloj (tests).
func NewClockRandomSourceAt(now func() time.Time) *ClockRandomSource {
	return &ClockRandomSource{now: now}
}

// Next devuelve p.ej. "1705312800000042".
func (s *ClockRandomSource) Next() string {
	return fmt.Sprintf("%d%03d", s.now().UnixMilli(), rand.IntN(1000))
}

// SequenceSource devuelve una secuencia fija; al agotarse repite el último valor.
type SequenceSource struct {
	mu     sync.Mutex
	values []string
	i      int
}

// NewSequenceSource crea la fuente con los valores indicados.
func NewSequenceSource(values ...string) *SequenceSource {
	return &SequenceSource{values: values}
}

func (s *SequenceSource) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return ""
	}
	v := s.values[min(s.i, len(s.values)-1)]
	s.i++
	return v
}
