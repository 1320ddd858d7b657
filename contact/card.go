package contact

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Card is the shareable identity of a peer, rendered as a QR code by the
// view layer.
type Card struct {
	PeerID  string `json:"peerId"`
	Address string `json:"address,omitempty"`
}

// Encode returns the JSON form of the card.
func (c Card) Encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		// both fields are plain strings
		return ""
	}
	return string(data)
}

// ParseCard decodes scanned or pasted card data. Text that does not look
// like JSON is taken as a bare peer ID with no address. Broken JSON is
// rejected rather than guessed at.
func ParseCard(data string) (Card, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return Card{}, ErrMissingPeerID
	}

	if !strings.HasPrefix(data, "{") {
		return Card{PeerID: data}, nil
	}

	var card Card
	if err := json.Unmarshal([]byte(data), &card); err != nil {
		return Card{}, fmt.Errorf("%w: malformed card: %v", ErrMissingPeerID, err)
	}
	card.PeerID = strings.TrimSpace(card.PeerID)
	card.Address = strings.TrimSpace(card.Address)
	if card.PeerID == "" {
		return Card{}, ErrMissingPeerID
	}
	return card, nil
}
