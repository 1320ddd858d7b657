package contact

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/opd-ai/peerlink/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T, store kvstore.Store, ids ...string) *Ledger {
	t.Helper()
	l := NewLedger(store, DefaultLedgerKey)
	// Add inserts at the front, so add in reverse to keep ids in order
	for i := len(ids) - 1; i >= 0; i-- {
		require.NoError(t, l.Add(Contact{PeerID: ids[i], Name: DefaultName(ids[i])}))
	}
	return l
}

func TestLedgerAddInsertsAtFront(t *testing.T) {
	l := NewLedger(nil, "")
	require.NoError(t, l.Add(Contact{PeerID: "a"}))
	require.NoError(t, l.Add(Contact{PeerID: "b"}))
	assert.Equal(t, []string{"b", "a"}, peerIDs(l.All()))
	assert.Equal(t, 2, l.Len())
}

func TestLedgerAddRejectsDuplicatesAndMissingID(t *testing.T) {
	l := seeded(t, nil, "a")
	assert.ErrorIs(t, l.Add(Contact{PeerID: "a", Name: "again"}), ErrContactExists)
	assert.ErrorIs(t, l.Add(Contact{Name: "nobody"}), ErrMissingPeerID)
	assert.Equal(t, 1, l.Len())
}

func TestLedgerRemove(t *testing.T) {
	l := seeded(t, nil, "a", "b", "c")
	assert.True(t, l.Remove("b"))
	assert.False(t, l.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, peerIDs(l.All()))
}

func TestLedgerFindReturnsCopy(t *testing.T) {
	l := seeded(t, nil, "a")
	c, ok := l.FindByPeerID("a")
	require.True(t, ok)
	c.PeerID = "mutated"
	c.Name = "mutated"

	again, ok := l.FindByPeerID("a")
	require.True(t, ok)
	assert.Equal(t, DefaultName("a"), again.Name)

	_, ok = l.FindByPeerID("missing")
	assert.False(t, ok)
	_, ok = l.FindByPeerID("")
	assert.False(t, ok)
}

func TestLedgerAllReturnsCopy(t *testing.T) {
	l := seeded(t, nil, "a", "b")
	all := l.All()
	all[0].PeerID = "zzz"
	assert.Equal(t, []string{"a", "b"}, peerIDs(l.All()))
}

func TestLedgerMoveToFrontPreservesRelativeOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(12)
		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("peer-%02d", i)
		}
		l := seeded(t, nil, ids...)
		target := ids[rng.Intn(n)]

		require.True(t, l.MoveToFront(target))

		got := peerIDs(l.All())
		require.Equal(t, target, got[0])
		var rest []string
		for _, id := range ids {
			if id != target {
				rest = append(rest, id)
			}
		}
		assert.Equal(t, rest, nilIfEmpty(got[1:]), "round %d", round)
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestLedgerMoveToFrontIdempotent(t *testing.T) {
	store := newRecordingStore()
	l := seeded(t, store, "a", "b", "c")
	before := store.putCount()

	assert.True(t, l.MoveToFront("a"))
	assert.Equal(t, before, store.putCount(), "no write when already first")
	assert.Equal(t, []string{"a", "b", "c"}, peerIDs(l.All()))

	assert.False(t, l.MoveToFront("missing"))
}

func TestLedgerTouchAndUpdateSummary(t *testing.T) {
	l := seeded(t, nil, "a", "b", "c")

	require.True(t, l.UpdateSummary("c", "quiet", "10:00"))
	assert.Equal(t, []string{"a", "b", "c"}, peerIDs(l.All()), "update must not reorder")
	c, _ := l.FindByPeerID("c")
	assert.Equal(t, "quiet", c.LastMessage)
	assert.Equal(t, "10:00", c.Time)

	require.True(t, l.Touch("b", "loud", "10:01"))
	assert.Equal(t, []string{"b", "a", "c"}, peerIDs(l.All()))
	b, _ := l.FindByPeerID("b")
	assert.Equal(t, "loud", b.LastMessage)
	assert.Equal(t, DefaultName("b"), b.Name, "identity preserved")

	assert.False(t, l.Touch("missing", "x", "y"))
	assert.False(t, l.UpdateSummary("missing", "x", "y"))
}

func TestLedgerPersistsEveryMutation(t *testing.T) {
	store := newRecordingStore()
	l := NewLedger(store, DefaultLedgerKey)

	require.NoError(t, l.Add(Contact{PeerID: "a"}))
	require.NoError(t, l.Add(Contact{PeerID: "b"}))
	l.MoveToFront("a")
	l.UpdateSummary("a", "x", "y")
	l.Touch("b", "z", "w")
	l.Remove("a")

	assert.Equal(t, 6, store.putCount())

	reloaded := Load(store, DefaultLedgerKey)
	assert.Equal(t, []Contact{{PeerID: "b", LastMessage: "z", Time: "w"}}, reloaded.All())
}

func TestLoadRoundTripKeepsOrder(t *testing.T) {
	store := kvstore.NewMemory()
	l := seeded(t, store, "c", "a", "b")
	l.Touch("b", "latest", "09:30")

	reloaded := Load(store, DefaultLedgerKey)
	assert.Equal(t, l.All(), reloaded.All())
}

func TestLoadFallsBackToEmpty(t *testing.T) {
	tests := []struct {
		name  string
		store func() kvstore.Store
	}{
		{"nil store", func() kvstore.Store { return nil }},
		{"missing blob", func() kvstore.Store { return kvstore.NewMemory() }},
		{"corrupt blob", func() kvstore.Store {
			m := kvstore.NewMemory()
			_ = m.Put(DefaultLedgerKey, []byte("{not json"))
			return m
		}},
		{"wrong shape", func() kvstore.Store {
			m := kvstore.NewMemory()
			_ = m.Put(DefaultLedgerKey, []byte(`{"peerId":"a"}`))
			return m
		}},
		{"read error", func() kvstore.Store {
			s := newRecordingStore()
			s.failGet = errStoreDown
			return s
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Load(tt.store(), DefaultLedgerKey)
			require.NotNil(t, l)
			assert.Zero(t, l.Len())
		})
	}
}

func TestDecodeDropsInvalidAndDuplicateEntries(t *testing.T) {
	contacts, err := Decode([]byte(`[
		{"name":"A","peerId":"a"},
		{"name":"no id"},
		{"name":"A again","peerId":"a"},
		{"name":"B","peerId":"b","address":"/ip4/1.2.3.4/tcp/1"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, []Contact{
		{Name: "A", PeerID: "a"},
		{Name: "B", PeerID: "b", Address: "/ip4/1.2.3.4/tcp/1"},
	}, contacts)
}

func TestEncodeFormat(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = Encode([]Contact{{Name: "A", PeerID: "a", Address: "x", LastMessage: "hi", Time: "12:00"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"A","peerId":"a","address":"x","lastMessage":"hi","time":"12:00"}]`, string(data))
}

func TestPersistErrorIsReportedNotReturned(t *testing.T) {
	store := newRecordingStore()
	store.failPut = true
	l := NewLedger(store, DefaultLedgerKey)

	var reported []error
	l.OnPersistError(func(err error) { reported = append(reported, err) })

	require.NoError(t, l.Add(Contact{PeerID: "a"}))
	assert.Equal(t, 1, l.Len(), "in-memory state still updated")
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], errStoreDown)
}
