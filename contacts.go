package peerlink

import (
	"fmt"
	"strings"

	"github.com/opd-ai/peerlink/contact"
	"github.com/opd-ai/peerlink/metrics"
	"github.com/sirupsen/logrus"
)

// Contacts returns the ledger, most recent first.
func (c *Client) Contacts() []contact.Contact {
	var out []contact.Contact
	_ = c.call(func() {
		out = c.ledger.All()
	})
	return out
}

// FindContact returns the contact for peerID.
func (c *Client) FindContact(peerID string) (contact.Contact, bool) {
	var (
		found contact.Contact
		ok    bool
	)
	_ = c.call(func() {
		found, ok = c.ledger.FindByPeerID(strings.TrimSpace(peerID))
	})
	return found, ok
}

// AddContact adds a contact by hand. Name and peer ID are required. A
// non-empty address is dialed and handed to the engine's address book.
func (c *Client) AddContact(name, peerID, address string) (contact.Contact, error) {
	created, err := contact.New(name, peerID, address)
	if err != nil {
		return contact.Contact{}, err
	}
	if err := c.insertContact(created, metrics.OriginManual); err != nil {
		return contact.Contact{}, err
	}
	return created, nil
}

// ImportCard adds the peer described by card data, as scanned from a QR
// code. An empty name defaults to "User-<last 8>". Data without a peer ID
// is rejected with contact.ErrMissingPeerID.
func (c *Client) ImportCard(data, name string) (contact.Contact, error) {
	card, err := contact.ParseCard(data)
	if err != nil {
		return contact.Contact{}, err
	}
	if strings.TrimSpace(name) == "" {
		name = contact.DefaultName(card.PeerID)
	}
	created, err := contact.New(name, card.PeerID, card.Address)
	if err != nil {
		return contact.Contact{}, err
	}
	if err := c.insertContact(created, metrics.OriginCard); err != nil {
		return contact.Contact{}, err
	}
	return created, nil
}

func (c *Client) insertContact(created contact.Contact, origin string) error {
	var err error
	if callErr := c.call(func() {
		err = c.ledger.Add(created)
	}); callErr != nil {
		return callErr
	}
	if err != nil {
		return err
	}
	c.metrics.ContactCreated(origin)

	if created.HasAddress() {
		c.engine.DialPeer(created.Address)
		c.engine.SaveContact(created.Name, created.Address)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "insertContact",
		"peer_id":     shortID(created.PeerID),
		"origin":      origin,
		"has_address": created.HasAddress(),
	}).Info("Added contact")
	return nil
}

// RemoveContact deletes the contact for peerID. An open conversation with
// the peer is left open.
func (c *Client) RemoveContact(peerID string) error {
	peerID = strings.TrimSpace(peerID)
	var removed bool
	if err := c.call(func() {
		removed = c.ledger.Remove(peerID)
	}); err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s", contact.ErrContactNotFound, shortID(peerID))
	}

	logrus.WithFields(logrus.Fields{
		"function": "RemoveContact",
		"peer_id":  shortID(peerID),
	}).Info("Removed contact")
	return nil
}

// MyCard returns this node's card: its peer ID and relay circuit address.
// It fails with contact.ErrMissingPeerID until the node has an ID.
func (c *Client) MyCard() (contact.Card, error) {
	info := c.PeerInfo()
	if !info.Ready {
		return contact.Card{}, fmt.Errorf("%w: node not ready", contact.ErrMissingPeerID)
	}
	card := contact.Card{PeerID: info.PeerID}
	if info.HasRelay() {
		card.Address = info.RelayAddress
	}
	return card, nil
}
