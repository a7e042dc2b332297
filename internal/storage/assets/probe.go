package assets

import (
	"bytes"
	"image"

	// Registered for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// probeDimensions reads image dimensions from uploaded bytes. Non-image or
// unreadable data yields zero dimensions; a probe failure never aborts an
// upload.
func probeDimensions(data []byte) (width, height int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
