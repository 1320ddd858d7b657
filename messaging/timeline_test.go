package messaging

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	m := NewMessage("hi", "12:00", DirectionSent)
	assert.Equal(t, "hi", m.Content)
	assert.Equal(t, "12:00", m.Timestamp)
	assert.Equal(t, DirectionSent, m.Direction)

	id, err := uuid.Parse(m.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	other := NewMessage("hi", "12:00", DirectionSent)
	assert.NotEqual(t, m.ID, other.ID)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "sent", DirectionSent.String())
	assert.Equal(t, "received", DirectionReceived.String())
	assert.Equal(t, "unknown", Direction(9).String())
}

func TestTimelineAppendOrder(t *testing.T) {
	tl := NewTimeline("peer-a")
	assert.Equal(t, "peer-a", tl.PeerID())
	_, ok := tl.Last()
	assert.False(t, ok)

	tl.Append(NewMessage("one", "12:00", DirectionSent))
	tl.Append(NewMessage("two", "12:01", DirectionReceived))
	tl.Append(NewMessage("three", "12:02", DirectionSent))

	var contents []string
	for _, m := range tl.Messages() {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"one", "two", "three"}, contents)
	assert.Equal(t, 3, tl.Len())

	last, ok := tl.Last()
	require.True(t, ok)
	assert.Equal(t, "three", last.Content)
}

func TestTimelineMessagesIsACopy(t *testing.T) {
	tl := NewTimeline("peer-a")
	tl.Append(NewMessage("original", "12:00", DirectionReceived))

	msgs := tl.Messages()
	msgs[0].Content = "changed"

	assert.Equal(t, "original", tl.Messages()[0].Content)
}

func TestTimelineOnAppend(t *testing.T) {
	tl := NewTimeline("peer-a")
	var seen []Message
	tl.OnAppend(func(m Message) { seen = append(seen, m) })

	m := NewMessage("hello", "12:00", DirectionReceived)
	tl.Append(m)

	require.Len(t, seen, 1)
	assert.Equal(t, m, seen[0])
}
