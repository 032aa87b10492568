// Package ratelimit implementa cuotas por ventana fija para las llamadas al intermediario.
// RedisLimiter comparte el contador entre réplicas; LocalLimiter es el respaldo en memoria.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "psicofattura:quota:"

// windowKey clave del contador para la ventana que contiene now.
func windowKey(key string, window time.Duration, now time.Time) string {
	slot := now.UnixNano() / int64(window)
	return fmt.Sprintf("%s%s:%d", keyPrefix, key, slot)
}

// ─── Redis ────────────────────────────────────────────────────────────────────

// RedisLimiter contador INCR + EXPIRE por ventana.
type RedisLimiter struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisLimiter conecta a partir de una URL redis://.
func NewRedisLimiter(ctx context.Context, redisURL string) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: REDIS_URL inválida: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ratelimit: ping redis: %w", err)
	}
	return &RedisLimiter{rdb: rdb, now: time.Now}, nil
}

// NewRedisLimiterFromClient usa un cliente ya configurado.
func NewRedisLimiterFromClient(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, now: time.Now}
}

// Allow incrementa el contador de la ventana actual y compara con limit.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := windowKey(key, window, l.now())
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("ratelimit: redis: %w", err)
	}
	return incr.Val() <= int64(limit), nil
}

// Close libera la conexión.
func (l *RedisLimiter) Close() error {
	return l.rdb.Close()
}

// ─── Memoria ──────────────────────────────────────────────────────────────────

type counter struct {
	slot  int64
	count int
}

// LocalLimiter ventana fija en memoria, válido para una sola réplica.
type LocalLimiter struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
}

// NewLocalLimiter crea el limitador en memoria.
func NewLocalLimiter() *LocalLimiter {
	return NewLocalLimiterWithClock(time.Now)
}

// NewLocalLimiterWithClock permite fijar el reloj (tests).
func NewLocalLimiterWithClock(now func() time.Time) *LocalLimiter {
	return &LocalLimiter{counters: make(map[string]*counter), now: now}
}

// Allow nunca devuelve error.
func (l *LocalLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}
	slot := l.now().UnixNano() / int64(window)

	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.counters[key]
	if !ok || c.slot != slot {
		c = &counter{slot: slot}
		l.counters[key] = c
	}
	c.count++
	return c.count <= limit, nil
}
