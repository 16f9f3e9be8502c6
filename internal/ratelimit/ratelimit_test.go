package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_BlocksAfterBudget(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(3, time.Minute, time.Hour)
	l.now = func() time.Time { return now }

	assert.False(t, l.Blocked("alice"))
	for i := 0; i < 3; i++ {
		assert.True(t, l.Fail("alice"))
	}
	assert.True(t, l.Blocked("alice"))
	assert.False(t, l.Fail("alice"))

	// другие ключи не затронуты
	assert.False(t, l.Blocked("bob"))

	// через минуту восстанавливается одна попытка
	now = now.Add(time.Minute)
	assert.False(t, l.Blocked("alice"))
	assert.True(t, l.Fail("alice"))
	assert.True(t, l.Blocked("alice"))
}

func TestLimiter_ResetAndEvict(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(1, time.Hour, 10*time.Minute)
	l.now = func() time.Time { return now }

	l.Fail("a")
	assert.True(t, l.Blocked("a"))
	l.Reset("a")
	assert.False(t, l.Blocked("a"))

	l.Fail("b")
	now = now.Add(11 * time.Minute)
	l.Fail("c")
	l.mu.Lock()
	_, ok := l.entries["b"]
	l.mu.Unlock()
	assert.False(t, ok, "stale key must be evicted")
}
