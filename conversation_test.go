package peerlink

import (
	"testing"

	"github.com/opd-ai/peerlink/connection"
	"github.com/opd-ai/peerlink/contact"
	"github.com/opd-ai/peerlink/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenConversationDialBurst(t *testing.T) {
	h := newHarness(t)
	h.addContact("Bob", testPeerB, testAddrB)

	conv, err := h.client.OpenConversation(testPeerB)
	require.NoError(t, err)
	assert.Equal(t, 1, h.engine.DialCount(testAddrB), "immediate dial")
	assert.Equal(t, connection.StateDialing, conv.LinkState())

	h.advance(testFirstRetry - 1)
	assert.Equal(t, 1, h.engine.DialCount(testAddrB))

	h.advance(1)
	assert.Equal(t, 2, h.engine.DialCount(testAddrB), "dial at 3000ms")

	h.advance(testSecondRetry - testFirstRetry)
	assert.Equal(t, 3, h.engine.DialCount(testAddrB), "dial at 6000ms")

	h.advance(testSecondRetry * 10)
	assert.Equal(t, 3, h.engine.DialCount(testAddrB), "the burst is bounded")
	assert.Equal(t, 3, conv.DialAttempts())

	dials := h.engine.Dials()
	require.Len(t, dials, 3)
	assert.Equal(t, testEpoch, dials[0].Timestamp)
	assert.Equal(t, testEpoch.Add(testFirstRetry), dials[1].Timestamp)
	assert.Equal(t, testEpoch.Add(testSecondRetry), dials[2].Timestamp)
}

func TestOpenConversationWithoutAddressNeverDials(t *testing.T) {
	h := newHarness(t)
	h.addContact("Carol", testPeerC, "")

	conv, err := h.client.OpenConversation(testPeerC)
	require.NoError(t, err)
	h.advance(testSecondRetry * 2)

	assert.Zero(t, h.engine.DialCount(""))
	assert.Equal(t, connection.StateIdle, conv.LinkState())

	require.NoError(t, conv.Background())
	require.NoError(t, conv.Foreground())
	h.advance(testResumeDelay)
	assert.Zero(t, h.engine.DialCount(""))
}

func TestOpenConversationUnknownPeer(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.OpenConversation(testPeerA)
	assert.ErrorIs(t, err, contact.ErrContactNotFound)

	_, active := h.client.ActivePeer()
	assert.False(t, active)
}

func TestCloseCancelsScheduledDials(t *testing.T) {
	h := newHarness(t)
	h.addContact("Bob", testPeerB, testAddrB)

	conv, err := h.client.OpenConversation(testPeerB)
	require.NoError(t, err)
	h.advance(testFirstRetry)
	require.Equal(t, 2, h.engine.DialCount(testAddrB))

	require.NoError(t, conv.Close())
	assert.Zero(t, h.clock.Pending(), "no timers left behind")

	h.advance(testSecondRetry * 2)
	assert.Equal(t, 2, h.engine.DialCount(testAddrB), "no dial after teardown")
	assert.Equal(t, connection.StateClosed, conv.LinkState())

	_, active := h.client.ActivePeer()
	assert.False(t, active)
	_, open := h.client.Conversation(testPeerB)
	assert.False(t, open)

	assert.ErrorIs(t, conv.Send("late"), ErrConversationClosed)
	assert.ErrorIs(t, conv.Foreground(), ErrConversationClosed)
	assert.NoError(t, conv.Close(), "close is idempotent")
	assert.NoError(t, conv.Background())
}

func TestResumeSchedulesOneDial(t *testing.T) {
	h := newHarness(t)
	h.addContact("Bob", testPeerB, testAddrB)

	conv, err := h.client.OpenConversation(testPeerB)
	require.NoError(t, err)
	h.advance(testSecondRetry)
	require.Equal(t, 3, h.engine.DialCount(testAddrB))

	require.NoError(t, conv.Background())
	assert.False(t, conv.IsForeground())
	require.NoError(t, conv.Foreground())
	assert.True(t, conv.IsForeground())

	h.advance(testResumeDelay - 1)
	assert.Equal(t, 3, h.engine.DialCount(testAddrB))
	h.advance(1)
	assert.Equal(t, 4, h.engine.DialCount(testAddrB), "dial 500ms after resume")

	h.advance(testSecondRetry * 2)
	assert.Equal(t, 4, h.engine.DialCount(testAddrB))

	// foreground while already foregrounded is not a resume
	require.NoError(t, conv.Foreground())
	h.advance(testResumeDelay)
	assert.Equal(t, 4, h.engine.DialCount(testAddrB))
}

func TestResumeBeforeBurstFinishes(t *testing.T) {
	h := newHarness(t)
	h.addContact("Bob", testPeerB, testAddrB)

	conv, err := h.client.OpenConversation(testPeerB)
	require.NoError(t, err)
	require.NoError(t, conv.Background())
	require.NoError(t, conv.Foreground())

	// resume dial at 500ms is independent of the 3000/6000ms retries
	h.advance(testSecondRetry)
	assert.Equal(t, 4, h.engine.DialCount(testAddrB))
}

func TestBackgroundRoutesToInbox(t *testing.T) {
	h := newHarness(t)
	h.addContact("Bob", testPeerB, testAddrB)
	h.addContact("Carol", testPeerC, testAddrC)

	conv, err := h.client.OpenConversation(testPeerB)
	require.NoError(t, err)
	require.NoError(t, conv.Background())

	h.deliver(testPeerB, "while away")

	assert.Empty(t, conv.Messages())
	contacts := h.client.Contacts()
	assert.Equal(t, testPeerB, contacts[0].PeerID)
	require.Len(t, h.notes.all(), 1)
	assert.Equal(t, NotificationMessage, h.notes.all()[0].Kind)

	require.NoError(t, conv.Foreground())
	h.deliver(testPeerB, "back")
	require.Len(t, conv.Messages(), 1)
	assert.Equal(t, "back", conv.Messages()[0].Content)
}

func TestSwitchingConversationsKeepsNewOneActive(t *testing.T) {
	h := newHarness(t)
	h.addContact("Bob", testPeerB, testAddrB)
	h.addContact("Carol", testPeerC, testAddrC)

	bob, err := h.client.OpenConversation(testPeerB)
	require.NoError(t, err)

	// Carol's view comes up before Bob's goes to the background.
	carol, err := h.client.OpenConversation(testPeerC)
	require.NoError(t, err)
	require.NoError(t, bob.Background())

	active, ok := h.client.ActivePeer()
	require.True(t, ok)
	assert.Equal(t, testPeerC, active)

	h.deliver(testPeerC, "to carol")
	h.deliver(testPeerB, "to bob")

	require.Len(t, carol.Messages(), 1)
	assert.Empty(t, bob.Messages())
	require.Len(t, h.notes.all(), 1)
	assert.Equal(t, testPeerB, h.notes.all()[0].PeerID)
}

func TestReopenReturnsOpenConversation(t *testing.T) {
	h := newHarness(t)
	h.addContact("Bob", testPeerB, testAddrB)

	first, err := h.client.OpenConversation(testPeerB)
	require.NoError(t, err)
	require.NoError(t, first.Background())

	second, err := h.client.OpenConversation(testPeerB)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.True(t, second.IsForeground())
	assert.Equal(t, 1, h.engine.DialCount(testAddrB), "no second burst in the same lifecycle")

	require.NoError(t, first.Close())
	third, err := h.client.OpenConversation(testPeerB)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, h.engine.DialCount(testAddrB), "a new lifecycle starts a new burst")
}

func TestConversationOnMessage(t *testing.T) {
	h := newHarness(t)
	h.addContact("Bob", testPeerB, testAddrB)
	conv, err := h.client.OpenConversation(testPeerB)
	require.NoError(t, err)

	var seen []messaging.Direction
	require.NoError(t, conv.OnMessage(func(m messaging.Message) {
		seen = append(seen, m.Direction)
	}))

	h.deliver(testPeerB, "in")
	require.NoError(t, conv.Send("out"))
	require.NoError(t, h.client.Sync())

	assert.Equal(t, []messaging.Direction{messaging.DirectionReceived, messaging.DirectionSent}, seen)
	assert.Equal(t, "Bob", conv.Name())
	assert.Equal(t, testAddrB, conv.Address())
	assert.Equal(t, testPeerB, conv.PeerID())
}

func TestTimelineIsDiscardedOnClose(t *testing.T) {
	h := newHarness(t)
	h.addContact("Bob", testPeerB, testAddrB)

	conv, err := h.client.OpenConversation(testPeerB)
	require.NoError(t, err)
	h.deliver(testPeerB, "one")
	require.NoError(t, conv.Close())

	reopened, err := h.client.OpenConversation(testPeerB)
	require.NoError(t, err)
	assert.Empty(t, reopened.Messages())
}
