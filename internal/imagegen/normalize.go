package imagegen

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"

	"github.com/marketforge/marketforge/pkg/models"
)

// Normalize decodes a raw provider artifact, scales it to the canonical
// square dimensions, and re-encodes it as base64 PNG. Every artifact the
// chain returns passes through here, so downstream consumers never need to
// care which provider produced it.
func Normalize(raw []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to decode artifact: %w", err)
	}

	size := models.CanonicalImageSize
	bounds := img.Bounds()
	if bounds.Dx() != size || bounds.Dy() != size {
		scaled := image.NewRGBA(image.Rect(0, 0, size, size))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, xdraw.Over, nil)
		img = scaled
	}

	return encodePNGBase64(img)
}

func encodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode artifact: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeArtifact is the inverse of Normalize for consumers and tests that
// need the pixel data back
func DecodeArtifact(b64 string) (image.Image, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 artifact: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode artifact image: %w", err)
	}
	return img, nil
}
