package real

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/opd-ai/peerlink/limits"
)

// ackText is the payload a receiver answers with after accepting a message.
const ackText = "✓"

// envelope is the JSON body of a chat frame.
type envelope struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// writeFrame writes a 4-byte big-endian length followed by payload.
func writeFrame(w io.Writer, payload []byte) error {
	if err := limits.ValidateFrame(len(payload)); err != nil {
		return err
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}

// readFrame reads one frame written by writeFrame.
func readFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}
	size := int(binary.BigEndian.Uint32(header[:]))
	if err := limits.ValidateFrame(size); err != nil {
		return nil, err
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	return payload, nil
}

func encodeEnvelope(env envelope) ([]byte, error) {
	if err := limits.ValidateMessage(env.Content); err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

func decodeEnvelope(data []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("decode chat message: %w", err)
	}
	if err := limits.ValidateMessage(env.Content); err != nil {
		return envelope{}, err
	}
	return env, nil
}
