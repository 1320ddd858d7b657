package limits

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncatePreview(t *testing.T) {
	thirty := strings.Repeat("a", 30)
	thirtyOne := strings.Repeat("b", 31)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty", "", ""},
		{"short", "hello", "hello"},
		{"exactly thirty is verbatim", thirty, thirty},
		{"thirty one is cut", thirtyOne, strings.Repeat("b", 30) + PreviewEllipsis},
		{
			"long sentence",
			"hello there, this is a longer than expected test",
			"hello there, this is a longer " + PreviewEllipsis,
		},
		{"multibyte kept whole", strings.Repeat("ü", 30), strings.Repeat("ü", 30)},
		{"multibyte cut on rune boundary", strings.Repeat("友", 31), strings.Repeat("友", 30) + PreviewEllipsis},
		{"invalid run collapses", strings.Repeat("\xff", 31), "\uFFFD"},
		{"invalid bytes between text", "ok\xff\xfeok", "ok\uFFFDok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncatePreview(tt.content))
		})
	}
}

func TestTruncatePreviewBoundsInvalidInput(t *testing.T) {
	for _, n := range []int{31, 64, 4096} {
		raw := strings.Repeat("a\xff", n)
		preview := TruncatePreview(raw)
		assert.True(t, utf8.ValidString(preview))
		assert.LessOrEqual(t, len(preview), len(raw)+len(PreviewEllipsis), "input of %d bytes", len(raw))
		assert.Equal(t, PreviewLength, utf8.RuneCountInString(strings.TrimSuffix(preview, PreviewEllipsis)))
	}
}

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"empty", "", ErrMessageEmpty},
		{"normal", "hi", nil},
		{"at limit", strings.Repeat("x", MaxMessageBytes), nil},
		{"over limit", strings.Repeat("x", MaxMessageBytes+1), ErrMessageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage(tt.text)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestValidateMessageSize(t *testing.T) {
	assert.ErrorIs(t, ValidateMessageSize(nil, 10), ErrMessageEmpty)
	assert.NoError(t, ValidateMessageSize([]byte("0123456789"), 10))

	err := ValidateMessageSize([]byte("0123456789a"), 10)
	assert.ErrorIs(t, err, ErrMessageTooLarge)
	assert.Contains(t, err.Error(), "size 11 exceeds limit 10")
}

func TestValidateFrame(t *testing.T) {
	assert.ErrorIs(t, ValidateFrame(0), ErrMessageEmpty)
	assert.ErrorIs(t, ValidateFrame(-1), ErrMessageEmpty)
	assert.NoError(t, ValidateFrame(MaxFrameBytes))
	assert.ErrorIs(t, ValidateFrame(MaxFrameBytes+1), ErrMessageTooLarge)
}

func TestSizeHierarchy(t *testing.T) {
	assert.Less(t, MaxMessageBytes, MaxFrameBytes)
	assert.Less(t, MaxFrameBytes, MaxBlobBytes)
}
