package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/psicofattura/internal/domain/entity"
)

func TestLikePattern_EscapaComodines(t *testing.T) {
	assert.Equal(t, "%rossi%", likePattern("  rossi "))
	assert.Equal(t, `%50\%\_x%`, likePattern("50%_x"))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
}

func TestDateArg_FechaCeroEsNull(t *testing.T) {
	assert.Nil(t, dateArg(entity.Date{}))

	d := dateArg(entity.NewDate(2024, time.March, 5))
	if assert.NotNil(t, d) {
		assert.Equal(t, "2024-03-05", d.Format(entity.DateLayout))
	}
}

func TestToDate(t *testing.T) {
	assert.True(t, toDate(nil).IsZero())

	ts := time.Date(2024, time.March, 5, 23, 10, 0, 0, time.UTC)
	assert.Equal(t, entity.NewDate(2024, time.March, 5), toDate(&ts))
}

func TestSDIErrorsArg_NuncaNil(t *testing.T) {
	assert.NotNil(t, sdiErrorsArg(nil))
	assert.Len(t, sdiErrorsArg([]entity.SDIError{{Code: "00001"}}), 1)
}
