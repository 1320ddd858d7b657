package contact

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opd-ai/peerlink/limits"
)

const (
	// DefaultNamePrefix prefixes generated contact names.
	DefaultNamePrefix = "User-"

	// DefaultNameSuffixLength is how many trailing peer ID characters a
	// generated name keeps.
	DefaultNameSuffixLength = 8

	// NewContactPreview is the preview shown for a contact that has not
	// exchanged any message yet.
	NewContactPreview = "Tap to chat"

	// NewContactTime is the time label shown alongside NewContactPreview.
	NewContactTime = "Now"
)

var (
	// ErrMissingPeerID is returned when a contact or card has no peer ID.
	ErrMissingPeerID = errors.New("missing peer ID")

	// ErrMissingName is returned when an explicit add has no display name.
	ErrMissingName = errors.New("missing contact name")

	// ErrNameTooLong is returned when a display name exceeds the limit.
	ErrNameTooLong = errors.New("contact name too long")

	// ErrContactExists is returned when adding a peer that is already known.
	ErrContactExists = errors.New("contact already exists")

	// ErrContactNotFound is returned for operations on unknown peers.
	ErrContactNotFound = errors.New("contact not found")
)

// Contact is one entry of the ledger. The JSON field names are the
// persisted blob format.
type Contact struct {
	Name        string `json:"name"`
	PeerID      string `json:"peerId"`
	Address     string `json:"address"`
	LastMessage string `json:"lastMessage"`
	Time        string `json:"time"`
}

// New validates and builds a contact created by an explicit user action.
// The preview and time start as NewContactPreview and NewContactTime.
func New(name, peerID, address string) (Contact, error) {
	name = strings.TrimSpace(name)
	peerID = strings.TrimSpace(peerID)

	if peerID == "" {
		return Contact{}, ErrMissingPeerID
	}
	if name == "" {
		return Contact{}, ErrMissingName
	}
	if len(name) > limits.MaxDisplayNameLength {
		return Contact{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrNameTooLong, len(name), limits.MaxDisplayNameLength)
	}

	return Contact{
		Name:        name,
		PeerID:      peerID,
		Address:     strings.TrimSpace(address),
		LastMessage: NewContactPreview,
		Time:        NewContactTime,
	}, nil
}

// DefaultName derives a display name from the last DefaultNameSuffixLength
// characters of peerID, e.g. "User-wxyz1234".
func DefaultName(peerID string) string {
	return DefaultNamePrefix + ShortID(peerID)
}

// ShortID returns the trailing DefaultNameSuffixLength characters of
// peerID, or all of it when shorter.
func ShortID(peerID string) string {
	if len(peerID) <= DefaultNameSuffixLength {
		return peerID
	}
	return peerID[len(peerID)-DefaultNameSuffixLength:]
}

// HasAddress reports whether the contact carries a dial address.
func (c Contact) HasAddress() bool {
	return c.Address != ""
}
