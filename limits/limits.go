// Package limits provides centralized message size limits and preview
// truncation for peerlink. This ensures consistent validation across the
// router, the ledger and the network engine.
package limits

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxMessageBytes is the largest chat message accepted for sending or
	// delivery, measured in UTF-8 bytes.
	MaxMessageBytes = 4096

	// MaxFrameBytes bounds a single wire frame, which carries a message plus
	// its JSON envelope.
	MaxFrameBytes = 16384

	// MaxBlobBytes is the maximum size of a persisted ledger blob.
	// This prevents a corrupt store from exhausting memory (4MB limit).
	MaxBlobBytes = 4 * 1024 * 1024

	// PreviewLength is the number of characters kept in a contact preview.
	// Content of exactly this length is stored verbatim.
	PreviewLength = 30

	// PreviewEllipsis marks a truncated preview.
	PreviewEllipsis = "..."

	// MaxDisplayNameLength is the maximum length of a contact name in bytes.
	MaxDisplayNameLength = 128
)

var (
	// ErrMessageEmpty indicates an empty message was provided
	ErrMessageEmpty = errors.New("empty message")

	// ErrMessageTooLarge indicates message exceeds maximum size
	ErrMessageTooLarge = errors.New("message too large")
)

// ValidateMessageSize validates a message against the specified maximum size.
// Returns an error with context including the actual and maximum sizes.
func ValidateMessageSize(message []byte, maxSize int) error {
	if len(message) == 0 {
		return ErrMessageEmpty
	}
	if len(message) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(message), maxSize)
	}
	return nil
}

// ValidateMessage validates chat text against MaxMessageBytes.
func ValidateMessage(text string) error {
	return ValidateMessageSize([]byte(text), MaxMessageBytes)
}

// ValidateFrame validates a wire frame length read from the network before
// the frame body is allocated.
func ValidateFrame(size int) error {
	if size <= 0 {
		return ErrMessageEmpty
	}
	if size > MaxFrameBytes {
		return fmt.Errorf("%w: frame size %d exceeds limit %d", ErrMessageTooLarge, size, MaxFrameBytes)
	}
	return nil
}

// TruncatePreview shortens content for display in the contact list.
// Content longer than PreviewLength characters is cut to its first
// PreviewLength characters followed by PreviewEllipsis. Each run of invalid
// UTF-8 becomes a single U+FFFD, so a preview never grows past its input
// by more than the ellipsis.
func TruncatePreview(content string) string {
	content = strings.ToValidUTF8(content, string(utf8.RuneError))
	if utf8.RuneCountInString(content) <= PreviewLength {
		return content
	}
	n := 0
	for i := range content {
		if n == PreviewLength {
			return content[:i] + PreviewEllipsis
		}
		n++
	}
	return content
}
