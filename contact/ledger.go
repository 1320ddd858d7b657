package contact

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opd-ai/peerlink/kvstore"
	"github.com/opd-ai/peerlink/limits"
	"github.com/sirupsen/logrus"
)

// DefaultLedgerKey is the store key holding the serialized ledger.
const DefaultLedgerKey = "contacts"

// PersistErrorCallback is called when writing the ledger fails.
type PersistErrorCallback func(err error)

// Ledger is the recency-ordered contact collection.
type Ledger struct {
	store    kvstore.Store
	key      string
	contacts []Contact

	persistErrorCallback PersistErrorCallback
}

// NewLedger creates an empty ledger that persists to store under key.
// A nil store keeps the ledger in memory only.
func NewLedger(store kvstore.Store, key string) *Ledger {
	if key == "" {
		key = DefaultLedgerKey
	}
	return &Ledger{store: store, key: key}
}

// Load reads the ledger persisted under key. Missing or undecodable data
// yields an empty ledger.
func Load(store kvstore.Store, key string) *Ledger {
	l := NewLedger(store, key)
	if store == nil {
		return l
	}

	data, err := store.Get(l.key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			logrus.WithFields(logrus.Fields{
				"function": "Load",
				"key":      l.key,
				"error":    err.Error(),
			}).Warn("Failed to read contact ledger, starting empty")
		}
		return l
	}

	contacts, err := Decode(data)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"key":      l.key,
			"size":     len(data),
			"error":    err.Error(),
		}).Warn("Contact ledger is corrupt, starting empty")
		return l
	}

	l.contacts = contacts
	logrus.WithFields(logrus.Fields{
		"function": "Load",
		"key":      l.key,
		"contacts": len(contacts),
	}).Info("Loaded contact ledger")
	return l
}

// Decode parses a persisted ledger blob. Entries without a peer ID and
// repeated peer IDs are dropped, keeping the first occurrence.
func Decode(data []byte) ([]Contact, error) {
	if len(data) > limits.MaxBlobBytes {
		return nil, fmt.Errorf("%w: ledger blob %d bytes", limits.ErrMessageTooLarge, len(data))
	}
	var raw []Contact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}

	seen := make(map[string]bool, len(raw))
	contacts := make([]Contact, 0, len(raw))
	for _, c := range raw {
		if c.PeerID == "" || seen[c.PeerID] {
			continue
		}
		seen[c.PeerID] = true
		contacts = append(contacts, c)
	}
	return contacts, nil
}

// Encode serializes contacts in order.
func Encode(contacts []Contact) ([]byte, error) {
	if contacts == nil {
		contacts = []Contact{}
	}
	return json.Marshal(contacts)
}

// OnPersistError registers a callback for failed writes.
func (l *Ledger) OnPersistError(callback PersistErrorCallback) {
	l.persistErrorCallback = callback
}

// Add inserts c at the front of the ledger.
func (l *Ledger) Add(c Contact) error {
	if c.PeerID == "" {
		return ErrMissingPeerID
	}
	if l.indexOf(c.PeerID) >= 0 {
		return fmt.Errorf("%w: %s", ErrContactExists, ShortID(c.PeerID))
	}

	l.contacts = append([]Contact{c}, l.contacts...)
	l.persist("add")
	return nil
}

// Remove deletes the contact for peerID. It reports whether one existed.
func (l *Ledger) Remove(peerID string) bool {
	i := l.indexOf(peerID)
	if i < 0 {
		return false
	}
	l.contacts = append(l.contacts[:i], l.contacts[i+1:]...)
	l.persist("remove")
	return true
}

// FindByPeerID returns a copy of the contact for peerID.
func (l *Ledger) FindByPeerID(peerID string) (Contact, bool) {
	i := l.indexOf(peerID)
	if i < 0 {
		return Contact{}, false
	}
	return l.contacts[i], true
}

// MoveToFront moves peerID to index 0, preserving the relative order of the
// rest. It is a no-op when the contact is already first or unknown.
func (l *Ledger) MoveToFront(peerID string) bool {
	i := l.indexOf(peerID)
	if i < 0 {
		return false
	}
	if i == 0 {
		return true
	}
	l.moveToFront(i)
	l.persist("move_to_front")
	return true
}

// UpdateSummary sets the preview and time of peerID without reordering.
func (l *Ledger) UpdateSummary(peerID, preview, time string) bool {
	i := l.indexOf(peerID)
	if i < 0 {
		return false
	}
	l.contacts[i].LastMessage = preview
	l.contacts[i].Time = time
	l.persist("update")
	return true
}

// Touch sets the preview and time of peerID and moves it to the front, as
// one persisted mutation.
func (l *Ledger) Touch(peerID, preview, time string) bool {
	i := l.indexOf(peerID)
	if i < 0 {
		return false
	}
	l.contacts[i].LastMessage = preview
	l.contacts[i].Time = time
	l.moveToFront(i)
	l.persist("touch")
	return true
}

// All returns the contacts in ledger order.
func (l *Ledger) All() []Contact {
	out := make([]Contact, len(l.contacts))
	copy(out, l.contacts)
	return out
}

// Len returns the number of contacts.
func (l *Ledger) Len() int {
	return len(l.contacts)
}

func (l *Ledger) indexOf(peerID string) int {
	if peerID == "" {
		return -1
	}
	for i := range l.contacts {
		if l.contacts[i].PeerID == peerID {
			return i
		}
	}
	return -1
}

func (l *Ledger) moveToFront(i int) {
	c := l.contacts[i]
	copy(l.contacts[1:i+1], l.contacts[:i])
	l.contacts[0] = c
}

func (l *Ledger) persist(op string) {
	if l.store == nil {
		return
	}

	data, err := Encode(l.contacts)
	if err == nil {
		err = l.store.Put(l.key, data)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":  "persist",
			"operation": op,
			"key":       l.key,
			"error":     err.Error(),
		}).Warn("Failed to persist contact ledger")
		if l.persistErrorCallback != nil {
			l.persistErrorCallback(err)
		}
		return
	}

	logrus.WithFields(logrus.Fields{
		"function":  "persist",
		"operation": op,
		"contacts":  len(l.contacts),
	}).Debug("Persisted contact ledger")
}
