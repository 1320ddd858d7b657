package peerlink

import (
	"fmt"
	"strings"

	"github.com/opd-ai/peerlink/clock"
	"github.com/opd-ai/peerlink/connection"
	"github.com/opd-ai/peerlink/contact"
	"github.com/opd-ai/peerlink/limits"
	"github.com/opd-ai/peerlink/messaging"
	"github.com/opd-ai/peerlink/metrics"
	"github.com/sirupsen/logrus"
)

// onEngineMessage is the engine's only message handler. It runs on an
// engine goroutine and only hands the message to the owner queue.
func (c *Client) onEngineMessage(senderID, content string) {
	if !c.post(func() { c.route(senderID, content) }) {
		logrus.WithFields(logrus.Fields{
			"function": "onEngineMessage",
			"peer_id":  shortID(senderID),
		}).Debug("Client stopped, dropping inbound message")
	}
}

// route dispatches one inbound message. Owner goroutine only.
func (c *Client) route(senderID, content string) {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		logrus.WithFields(logrus.Fields{
			"function": "route",
		}).Warn("Dropping inbound message without sender")
		return
	}

	stamp := clock.Stamp(c.timeProvider.Now())
	preview := limits.TruncatePreview(content)

	if c.tracker.IsActiveFor(senderID) {
		if conv, ok := c.conversations[senderID]; ok {
			conv.timeline.Append(messaging.NewMessage(content, stamp, messaging.DirectionReceived))
			c.ledger.UpdateSummary(senderID, preview, stamp)
			c.metrics.Inbound(metrics.RouteTimeline)

			logrus.WithFields(logrus.Fields{
				"function": "route",
				"peer_id":  shortID(senderID),
				"route":    metrics.RouteTimeline,
			}).Debug("Delivered message to open conversation")
			return
		}
	}

	c.deliverToInbox(senderID, preview, stamp)
}

func (c *Client) deliverToInbox(senderID, preview, stamp string) {
	kind := NotificationMessage
	existing, found := c.ledger.FindByPeerID(senderID)
	name := existing.Name

	if found {
		c.ledger.Touch(senderID, preview, stamp)
	} else {
		kind = NotificationNewContact
		name = contact.DefaultName(senderID)
		created := contact.Contact{
			Name:        name,
			PeerID:      senderID,
			LastMessage: preview,
			Time:        stamp,
		}
		if err := c.ledger.Add(created); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "deliverToInbox",
				"peer_id":  shortID(senderID),
				"error":    err.Error(),
			}).Warn("Failed to add contact for inbound message")
			return
		}
		c.metrics.ContactCreated(metrics.OriginInbound)
	}
	c.metrics.Inbound(metrics.RouteInbox)

	logrus.WithFields(logrus.Fields{
		"function": "deliverToInbox",
		"peer_id":  shortID(senderID),
		"new":      !found,
	}).Debug("Delivered message to inbox")

	c.notify(Notification{
		Kind:    kind,
		PeerID:  senderID,
		Name:    name,
		Preview: preview,
		Time:    stamp,
	})
}

// outbound is one send in progress.
type outbound struct {
	peerID     string
	address    string
	text       string
	supervisor *connection.Supervisor
	conv       *Conversation
}

// Send delivers text to peerID. When a conversation with peerID is open the
// send goes through it, exactly like Conversation.Send. Otherwise peerID
// must be a known contact; the message updates the ledger but no timeline.
func (c *Client) Send(peerID, text string) error {
	peerID = strings.TrimSpace(peerID)
	var (
		out *outbound
		err error
	)
	if callErr := c.call(func() {
		if conv, ok := c.conversations[peerID]; ok {
			out, err = c.prepareSend(conv.outbound(text))
			return
		}
		found, ok := c.ledger.FindByPeerID(peerID)
		if !ok {
			err = fmt.Errorf("%w: %s", contact.ErrContactNotFound, shortID(peerID))
			return
		}
		out, err = c.prepareSend(&outbound{
			peerID:     peerID,
			address:    found.Address,
			text:       text,
			supervisor: c.inbox,
		})
	}); callErr != nil {
		return callErr
	}
	if err != nil || out == nil {
		return err
	}
	return c.transmit(out)
}

// prepareSend validates the text and makes sure a dial burst ran. It returns
// nil for blank text. Owner goroutine only.
func (c *Client) prepareSend(out *outbound) (*outbound, error) {
	trimmed := strings.TrimSpace(out.text)
	if trimmed == "" {
		return nil, nil
	}
	if err := limits.ValidateMessage(trimmed); err != nil {
		return nil, err
	}
	out.text = trimmed
	out.supervisor.EnsureLink(out.address)
	return out, nil
}

// transmit calls the engine from the caller's goroutine so the owner queue
// keeps draining while the engine waits for the peer, then records the
// outcome on the owner goroutine.
func (c *Client) transmit(out *outbound) error {
	sendErr := c.engine.SendMessage(out.peerID, out.text)

	var result error
	if err := c.call(func() {
		result = c.completeSend(out, sendErr)
	}); err != nil {
		return err
	}
	return result
}

// completeSend runs on the owner goroutine.
func (c *Client) completeSend(out *outbound, sendErr error) error {
	stamp := clock.Stamp(c.timeProvider.Now())

	if sendErr != nil {
		out.supervisor.Repair(out.address)
		c.metrics.Send(metrics.ResultError)

		err := fmt.Errorf("%w: %v", ErrSendFailed, sendErr)
		logrus.WithFields(logrus.Fields{
			"function": "completeSend",
			"peer_id":  shortID(out.peerID),
			"error":    sendErr.Error(),
		}).Error("Failed to send message")

		name := contact.DefaultName(out.peerID)
		if found, ok := c.ledger.FindByPeerID(out.peerID); ok {
			name = found.Name
		}
		c.notify(Notification{
			Kind:    NotificationError,
			PeerID:  out.peerID,
			Name:    name,
			Preview: "Failed to send message. Retrying connection...",
			Time:    stamp,
			Err:     err,
		})
		return err
	}

	if out.conv != nil {
		out.conv.timeline.Append(messaging.NewMessage(out.text, stamp, messaging.DirectionSent))
	}
	c.ledger.Touch(out.peerID, limits.TruncatePreview(out.text), stamp)
	c.metrics.Send(metrics.ResultOK)

	logrus.WithFields(logrus.Fields{
		"function": "completeSend",
		"peer_id":  shortID(out.peerID),
		"size":     len(out.text),
	}).Debug("Message sent")
	return nil
}
