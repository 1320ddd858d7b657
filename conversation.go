package peerlink

import (
	"fmt"
	"strings"

	"github.com/opd-ai/peerlink/connection"
	"github.com/opd-ai/peerlink/contact"
	"github.com/opd-ai/peerlink/messaging"
	"github.com/sirupsen/logrus"
)

// Conversation is one open chat with a contact. Its timeline and scheduled
// dials live until Close.
type Conversation struct {
	client     *Client
	peerID     string
	name       string
	address    string
	timeline   *messaging.Timeline
	supervisor *connection.Supervisor

	// Owned by the Run goroutine.
	foreground bool
	closed     bool
}

// OpenConversation opens a conversation with a known contact, makes it the
// active one and starts a dial burst towards the contact's address. If a
// conversation with the peer is already open it is brought to the
// foreground and returned.
func (c *Client) OpenConversation(peerID string) (*Conversation, error) {
	peerID = strings.TrimSpace(peerID)
	var (
		conv *Conversation
		err  error
	)
	if callErr := c.call(func() {
		if existing, ok := c.conversations[peerID]; ok {
			existing.activate()
			conv = existing
			return
		}

		found, ok := c.ledger.FindByPeerID(peerID)
		if !ok {
			err = fmt.Errorf("%w: %s", contact.ErrContactNotFound, shortID(peerID))
			return
		}
		conv = &Conversation{
			client:     c,
			peerID:     found.PeerID,
			name:       found.Name,
			address:    found.Address,
			timeline:   messaging.NewTimeline(found.PeerID),
			supervisor: c.newSupervisor(),
		}
		c.conversations[peerID] = conv

		conv.foreground = true
		c.tracker.SetActive(peerID)
		conv.supervisor.EnsureLink(conv.address)

		logrus.WithFields(logrus.Fields{
			"function":    "OpenConversation",
			"peer_id":     shortID(peerID),
			"has_address": found.HasAddress(),
		}).Info("Opened conversation")
	}); callErr != nil {
		return nil, callErr
	}
	return conv, err
}

// Conversation returns the open conversation with peerID, if any.
func (c *Client) Conversation(peerID string) (*Conversation, bool) {
	var (
		conv *Conversation
		ok   bool
	)
	_ = c.call(func() {
		conv, ok = c.conversations[strings.TrimSpace(peerID)]
	})
	return conv, ok
}

// ActivePeer returns the peer whose conversation is in the foreground.
func (c *Client) ActivePeer() (string, bool) {
	var (
		peerID string
		ok     bool
	)
	_ = c.call(func() {
		peerID, ok = c.tracker.Active()
	})
	return peerID, ok
}

// PeerID returns the remote peer.
func (cv *Conversation) PeerID() string {
	return cv.peerID
}

// Name returns the contact name at the time the conversation was opened.
func (cv *Conversation) Name() string {
	return cv.name
}

// Address returns the dial address used by this conversation.
func (cv *Conversation) Address() string {
	return cv.address
}

// Foreground makes the conversation active. Returning to the foreground
// after Background schedules one dial after the resume delay.
func (cv *Conversation) Foreground() error {
	var err error
	if callErr := cv.client.call(func() {
		if cv.closed {
			err = ErrConversationClosed
			return
		}
		cv.activate()
	}); callErr != nil {
		return callErr
	}
	return err
}

func (cv *Conversation) activate() {
	if cv.foreground {
		// another conversation may have taken the slot meanwhile
		cv.client.tracker.SetActive(cv.peerID)
		return
	}
	cv.foreground = true
	cv.client.tracker.SetActive(cv.peerID)
	cv.supervisor.Resume(cv.address)

	logrus.WithFields(logrus.Fields{
		"function": "Foreground",
		"peer_id":  shortID(cv.peerID),
	}).Debug("Conversation foregrounded")
}

// Background marks the conversation inactive. Messages from the peer go to
// the inbox until it is foregrounded again. If another conversation became
// active in the meantime it stays active.
func (cv *Conversation) Background() error {
	return cv.client.call(func() {
		cv.deactivate()
	})
}

func (cv *Conversation) deactivate() {
	if cv.closed || !cv.foreground {
		return
	}
	cv.foreground = false
	cv.client.tracker.Release(cv.peerID)

	logrus.WithFields(logrus.Fields{
		"function": "Background",
		"peer_id":  shortID(cv.peerID),
	}).Debug("Conversation backgrounded")
}

// Close backgrounds the conversation, cancels its scheduled dials and
// discards the timeline. It is safe to call more than once.
func (cv *Conversation) Close() error {
	return cv.client.call(func() {
		if cv.closed {
			return
		}
		cv.deactivate()
		cv.closed = true
		cv.supervisor.Close()
		if cv.client.conversations[cv.peerID] == cv {
			delete(cv.client.conversations, cv.peerID)
		}

		logrus.WithFields(logrus.Fields{
			"function": "Close",
			"peer_id":  shortID(cv.peerID),
			"messages": cv.timeline.Len(),
		}).Info("Closed conversation")
	})
}

// Send sends text to the peer. Blank text does nothing. On failure the error
// wraps ErrSendFailed, nothing is appended and one repair dial is issued.
func (cv *Conversation) Send(text string) error {
	var (
		out *outbound
		err error
	)
	if callErr := cv.client.call(func() {
		if cv.closed {
			err = ErrConversationClosed
			return
		}
		out, err = cv.client.prepareSend(cv.outbound(text))
	}); callErr != nil {
		return callErr
	}
	if err != nil || out == nil {
		return err
	}
	return cv.client.transmit(out)
}

func (cv *Conversation) outbound(text string) *outbound {
	return &outbound{
		peerID:     cv.peerID,
		address:    cv.address,
		text:       text,
		supervisor: cv.supervisor,
		conv:       cv,
	}
}

// Messages returns a copy of the timeline.
func (cv *Conversation) Messages() []messaging.Message {
	var out []messaging.Message
	_ = cv.client.call(func() {
		out = cv.timeline.Messages()
	})
	return out
}

// OnMessage registers a callback for every message appended to the
// timeline, sent or received. It runs on the Run goroutine.
func (cv *Conversation) OnMessage(callback messaging.AppendCallback) error {
	return cv.client.call(func() {
		cv.timeline.OnAppend(callback)
	})
}

// IsForeground reports whether the conversation is in the foreground.
func (cv *Conversation) IsForeground() bool {
	var fg bool
	_ = cv.client.call(func() {
		fg = cv.foreground && !cv.closed
	})
	return fg
}

// DialAttempts returns the number of dials this conversation issued.
func (cv *Conversation) DialAttempts() int {
	return cv.supervisor.Attempts(cv.address)
}

// LinkState returns the dial state of the conversation's address.
func (cv *Conversation) LinkState() connection.State {
	return cv.supervisor.State(cv.address)
}
