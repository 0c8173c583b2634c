package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DataURL renders the payload as a PNG QR code and returns it as a
// base64 data URL suitable for direct embedding in an <img> tag.
func DataURL(payload string, size int) (string, error) {
	if size <= 0 {
		size = 260
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR payload: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
