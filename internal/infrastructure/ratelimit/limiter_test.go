package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/psicofattura/internal/infrastructure/ratelimit"
)

// ─────────────────────────────────────────────────────────────────────────────
// LocalLimiter
// ─────────────────────────────────────────────────────────────────────────────

func TestLocalLimiter_CuotaPorVentana(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 5, 0, time.UTC)
	l := ratelimit.NewLocalLimiterWithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "aruba:upload", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "llamada %d", i+1)
	}
	ok, _ := l.Allow(ctx, "aruba:upload", 3, time.Minute)
	assert.False(t, ok)

	// Otra clave tiene su propio contador.
	ok, _ = l.Allow(ctx, "aruba:search", 3, time.Minute)
	assert.True(t, ok)

	// Ventana siguiente: se reinicia.
	now = now.Add(time.Minute)
	ok, _ = l.Allow(ctx, "aruba:upload", 3, time.Minute)
	assert.True(t, ok)
}

func TestLocalLimiter_Concurrente(t *testing.T) {
	l := ratelimit.NewLocalLimiterWithClock(func() time.Time { return time.Unix(0, 0) })
	ctx := context.Background()

	results := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		go func() {
			ok, _ := l.Allow(ctx, "k", 10, time.Minute)
			results <- ok
		}()
	}
	allowed := 0
	for i := 0; i < 50; i++ {
		if <-results {
			allowed++
		}
	}
	assert.Equal(t, 10, allowed)
}

func TestNewRedisLimiter_URLInvalida(t *testing.T) {
	_, err := ratelimit.NewRedisLimiter(context.Background(), "not-a-url")
	assert.Error(t, err)
}
