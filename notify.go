package peerlink

import "github.com/sirupsen/logrus"

// NotificationKind classifies a Notification.
type NotificationKind uint8

const (
	// NotificationNewContact reports a message from a peer that was not in
	// the ledger. The contact has just been created.
	NotificationNewContact NotificationKind = iota
	// NotificationMessage reports a message from a known contact whose
	// conversation is not active.
	NotificationMessage
	// NotificationError reports a failure the user should see, such as a
	// failed send.
	NotificationError
)

// String returns a lowercase label for the kind.
func (k NotificationKind) String() string {
	switch k {
	case NotificationNewContact:
		return "new_contact"
	case NotificationMessage:
		return "message"
	case NotificationError:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is a user-visible, non-blocking notice.
type Notification struct {
	Kind   NotificationKind
	PeerID string
	Name   string
	// Preview is the truncated message content for message kinds, or a
	// human readable description for NotificationError.
	Preview string
	Time    string
	Err     error
}

// Notifier receives notifications on the client's owner goroutine.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// OnNotification registers a callback for notifications. Callbacks run on
// the Run goroutine in registration order.
func (c *Client) OnNotification(callback NotifierFunc) error {
	if callback == nil {
		return nil
	}
	return c.call(func() {
		c.notifiers = append(c.notifiers, callback)
	})
}

// notify runs on the owner goroutine.
func (c *Client) notify(n Notification) {
	c.metrics.Notification()

	logrus.WithFields(logrus.Fields{
		"function": "notify",
		"kind":     n.Kind.String(),
		"peer_id":  shortID(n.PeerID),
	}).Debug("Emitting notification")

	for _, notifier := range c.notifiers {
		notifier.Notify(n)
	}
}
