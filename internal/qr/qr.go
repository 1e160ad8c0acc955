// Package qr encodes text as PNG QR codes.
package qr

import (
	"encoding/base64"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/skip2/go-qrcode"

	"scango/app/internal/apperr"
)

// DefaultSize is the rendered width and height in pixels.
const DefaultSize = 300

const maxSize = 1024

var (
	// ErrInvalidInput is returned for empty or whitespace-only text.
	ErrInvalidInput = apperr.Validation("Invalid input: text is required for QR code generation.")
	// ErrGenerationFailed is returned when the encoder rejects the content.
	ErrGenerationFailed = eris.New("failed to generate QR code")
)

// PNG encodes text with high error correction. A size of zero uses DefaultSize.
func PNG(text string, size int) ([]byte, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	if size <= 0 {
		size = DefaultSize
	}
	if size > maxSize {
		return nil, apperr.Validation("QR size must be at most %d pixels.", maxSize)
	}

	png, err := qrcode.Encode(trimmed, qrcode.Highest, size)
	if err != nil {
		return nil, eris.Wrap(ErrGenerationFailed, err.Error())
	}
	return png, nil
}

// DataURL encodes text as a base64 PNG data URL suitable for <img src>.
func DataURL(text string) (string, error) {
	png, err := PNG(text, DefaultSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
