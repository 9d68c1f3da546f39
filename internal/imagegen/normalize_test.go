package imagegen

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	"github.com/marketforge/marketforge/pkg/models"
)

func TestNormalizeScalesToCanonicalSize(t *testing.T) {
	for _, size := range []int{100, 1080, 3000} {
		b64, err := Normalize(pngArtifact(t, size))
		if err != nil {
			t.Fatalf("size %d: Normalize: %v", size, err)
		}
		img, err := DecodeArtifact(b64)
		if err != nil {
			t.Fatalf("size %d: DecodeArtifact: %v", size, err)
		}
		b := img.Bounds()
		if b.Dx() != models.CanonicalImageSize || b.Dy() != models.CanonicalImageSize {
			t.Errorf("size %d: got %dx%d", size, b.Dx(), b.Dy())
		}
	}
}

func TestNormalizeAcceptsJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 300))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, nil); err != nil {
		t.Fatalf("encoding jpeg: %v", err)
	}

	b64, err := Normalize(buf.Bytes())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if _, err := DecodeArtifact(b64); err != nil {
		t.Fatalf("DecodeArtifact: %v", err)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := Normalize([]byte("definitely not pixels")); err == nil {
		t.Error("Normalize accepted undecodable bytes")
	}
}
