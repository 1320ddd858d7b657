package real

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/opd-ai/peerlink/kvstore"
	"github.com/sirupsen/logrus"
)

// addressBookKey is the store key of the engine's nickname->address map.
const addressBookKey = "address-book"

// AddressBook is the engine's own record of dial targets, separate from the
// client's contact ledger. It is keyed by nickname.
type AddressBook struct {
	mu      sync.Mutex
	store   kvstore.Store
	entries map[string]string
}

// NewAddressBook loads the book from store. A nil store keeps it in memory.
func NewAddressBook(store kvstore.Store) *AddressBook {
	b := &AddressBook{store: store, entries: make(map[string]string)}
	if store == nil {
		return b
	}

	data, err := store.Get(addressBookKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			logrus.WithFields(logrus.Fields{
				"function": "NewAddressBook",
				"error":    err.Error(),
			}).Warn("Failed to read address book, starting empty")
		}
		return b
	}
	if err := json.Unmarshal(data, &b.entries); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewAddressBook",
			"error":    err.Error(),
		}).Warn("Address book is corrupt, starting empty")
		b.entries = make(map[string]string)
	}
	return b
}

// Save records address under name, replacing any previous entry.
func (b *AddressBook) Save(name, address string) error {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)
	if name == "" || address == "" {
		return fmt.Errorf("address book entry needs a name and an address")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[name] = address
	return b.persistLocked()
}

// Remove deletes name. It reports whether it existed.
func (b *AddressBook) Remove(name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.entries[name]; !ok {
		return false, nil
	}
	delete(b.entries, name)
	return true, b.persistLocked()
}

// Lookup returns the address saved under name.
func (b *AddressBook) Lookup(name string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	addr, ok := b.entries[name]
	return addr, ok
}

// Names returns the saved nicknames in sorted order.
func (b *AddressBook) Names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Addresses returns every saved address, ordered by nickname.
func (b *AddressBook) Addresses() []string {
	names := b.Names()
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, b.entries[name])
	}
	return out
}

func (b *AddressBook) persistLocked() error {
	if b.store == nil {
		return nil
	}
	data, err := json.MarshalIndent(b.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode address book: %w", err)
	}
	return b.store.Put(addressBookKey, data)
}
