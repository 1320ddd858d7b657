package real

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeerLimiterDisabled(t *testing.T) {
	l := newPeerLimiter(0, 0)
	assert.Nil(t, l)
	assert.True(t, l.Allow("peer", time.Now()))
	assert.Zero(t, l.size())
}

func TestPeerLimiterPerPeerBudget(t *testing.T) {
	l := newPeerLimiter(3, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("a", now), "message %d", i)
	}
	assert.False(t, l.Allow("a", now))
	assert.True(t, l.Allow("b", now), "budgets are per peer")

	// 3 per minute refills one token every 20s
	assert.True(t, l.Allow("a", now.Add(20*time.Second)))
	assert.False(t, l.Allow("a", now.Add(20*time.Second)))
}

func TestPeerLimiterIgnoresEmptyKey(t *testing.T) {
	l := newPeerLimiter(1, time.Minute)
	now := time.Now()
	assert.True(t, l.Allow("", now))
	assert.True(t, l.Allow("  ", now))
	assert.Zero(t, l.size())
}

func TestPeerLimiterEvictsIdle(t *testing.T) {
	l := newPeerLimiter(1000, time.Minute)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.Allow("idle", start)

	later := start.Add(time.Hour)
	for i := 0; i < 512; i++ {
		l.Allow("busy", later)
	}
	assert.Equal(t, 1, l.size())
}
