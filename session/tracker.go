// Package session tracks which conversation is in the foreground.
//
// A Tracker holds at most one peer ID. It is a routing key for inbound
// messages, never a lock. The Tracker is not synchronized: it must only be
// read and written from the goroutine that owns the client state.
package session

// Tracker is a single-slot, last-writer-wins marker of the active
// conversation.
type Tracker struct {
	active string
	set    bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetActive marks peerID as the foregrounded conversation, replacing any
// previous occupant.
func (t *Tracker) SetActive(peerID string) {
	t.active = peerID
	t.set = peerID != ""
}

// ClearActive empties the slot unconditionally.
func (t *Tracker) ClearActive() {
	t.active = ""
	t.set = false
}

// Release empties the slot only if peerID is the current occupant. It
// reports whether the slot was cleared.
func (t *Tracker) Release(peerID string) bool {
	if !t.set || t.active != peerID {
		return false
	}
	t.ClearActive()
	return true
}

// IsActiveFor reports whether peerID is the foregrounded conversation.
func (t *Tracker) IsActiveFor(peerID string) bool {
	return t.set && t.active == peerID
}

// Active returns the current occupant, if any.
func (t *Tracker) Active() (string, bool) {
	return t.active, t.set
}
