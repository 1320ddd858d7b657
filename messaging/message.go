package messaging

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Direction tells whether a message was sent or received locally.
type Direction uint8

const (
	// DirectionSent is a message this node sent.
	DirectionSent Direction = iota
	// DirectionReceived is a message delivered by the engine.
	DirectionReceived
)

// String returns a lowercase label for the direction.
func (d Direction) String() string {
	switch d {
	case DirectionSent:
		return "sent"
	case DirectionReceived:
		return "received"
	default:
		return "unknown"
	}
}

// Message is one timeline entry. It is a value type; copies handed out by a
// Timeline cannot change the timeline.
type Message struct {
	ID        string
	Content   string
	Timestamp string
	Direction Direction
}

// NewMessage creates a message with a fresh time-ordered ID.
func NewMessage(content, timestamp string, direction Direction) Message {
	return Message{
		ID:        newMessageID(),
		Content:   content,
		Timestamp: timestamp,
		Direction: direction,
	}
}

func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "newMessageID",
			"error":    err.Error(),
		}).Debug("UUIDv7 generation failed, using random UUID")
		return uuid.NewString()
	}
	return id.String()
}
