// Package ratelimit ограничивает число неудачных проверок секрета по ключу
// (логин, id доступа). Успешные попытки бюджет не расходуют.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter — набор token bucket'ов по ключам. Каждая неудача забирает токен,
// токены восстанавливаются по одному за refill. Пустой bucket — ключ заблокирован.
type Limiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*bucket
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New создаёт лимитер: attempts неудач подряд, затем одна попытка за refill.
// Записи, не трогавшиеся дольше ttl, удаляются.
func New(attempts int, refill, ttl time.Duration) *Limiter {
	if attempts < 1 {
		attempts = 1
	}
	return &Limiter{
		limit:   rate.Every(refill),
		burst:   attempts,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*bucket),
	}
}

// Blocked сообщает, исчерпан ли бюджет ключа.
func (l *Limiter) Blocked(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b := l.entries[key]
	if b == nil {
		return false
	}
	return b.lim.TokensAt(now) < 1
}

// Fail списывает одну попытку. Возвращает false, если бюджета уже не было.
func (l *Limiter) Fail(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b := l.entries[key]
	if b == nil {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = b
	}
	b.lastSeen = now
	l.evict(now)
	return b.lim.AllowN(now, 1)
}

// Reset сбрасывает счётчик ключа после успешной проверки.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

func (l *Limiter) evict(now time.Time) {
	for k, b := range l.entries {
		if now.Sub(b.lastSeen) > l.ttl {
			delete(l.entries, k)
		}
	}
}
