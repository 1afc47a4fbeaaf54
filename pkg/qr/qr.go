package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Fixed render dimensions for every ticket image.
const imageSize = 500

// Renderer produces scannable image bytes for a ticket code. The bytes are
// opaque to callers and stored alongside the ticket.
type Renderer interface {
	Render(code string) ([]byte, error)
}

type pngRenderer struct{}

// NewRenderer returns a QR renderer emitting 500x500 PNGs with quartile
// error correction.
func NewRenderer() Renderer {
	return pngRenderer{}
}

func (pngRenderer) Render(code string) ([]byte, error) {
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}
	png, err := qrcode.Encode(code, qrcode.High, imageSize)
	if err != nil {
		return nil, fmt.Errorf("encoding qr code: %w", err)
	}
	return png, nil
}
