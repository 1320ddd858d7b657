package messaging

// AppendCallback is called after a message is appended to a timeline.
type AppendCallback func(message Message)

// Timeline is the append-only message log of one open conversation.
// It is not synchronized and belongs to the goroutine that owns client
// state.
type Timeline struct {
	peerID   string
	messages []Message

	appendCallback AppendCallback
}

// NewTimeline creates an empty timeline for peerID.
func NewTimeline(peerID string) *Timeline {
	return &Timeline{peerID: peerID}
}

// PeerID returns the remote peer of the conversation.
func (t *Timeline) PeerID() string {
	return t.peerID
}

// OnAppend registers the callback invoked for each appended message.
func (t *Timeline) OnAppend(callback AppendCallback) {
	t.appendCallback = callback
}

// Append adds m to the end of the timeline.
func (t *Timeline) Append(m Message) {
	t.messages = append(t.messages, m)
	if t.appendCallback != nil {
		t.appendCallback(m)
	}
}

// Messages returns the messages in insertion order.
func (t *Timeline) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Timeline) Len() int {
	return len(t.messages)
}

// Last returns the most recent message.
func (t *Timeline) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}
