package media

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const (
	jpegQuality = 85
	webpQuality = 85
)

// OptimiseImage downscales and re-encodes an image in place. Formats
// are dispatched on the file extension; animated files and unknown
// formats are left exactly as downloaded.
func OptimiseImage(path string, maxWidth int) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gif":
		// Re-encoding would flatten the animation.
		return nil
	case ".jpg", ".jpeg":
		return optimiseJPEG(path, maxWidth)
	case ".png":
		return optimisePNG(path, maxWidth)
	case ".webp":
		return optimiseWebP(path, maxWidth)
	default:
		return nil
	}
}

func optimiseJPEG(path string, maxWidth int) error {
	img, err := imaging.Open(path)
	if err != nil {
		return err
	}
	img = downscale(img, maxWidth)
	return imaging.Save(img, path, imaging.JPEGQuality(jpegQuality))
}

func optimisePNG(path string, maxWidth int) error {
	img, err := imaging.Open(path)
	if err != nil {
		return err
	}
	img = downscale(img, maxWidth)
	return imaging.Save(img, path, imaging.PNGCompressionLevel(png.BestCompression))
}

func optimiseWebP(path string, maxWidth int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if isAnimatedWebP(data) {
		return nil
	}

	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	img = downscale(img, maxWidth)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: webpQuality}); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// downscale bounds the image width, preserving aspect ratio with a
// Lanczos filter. Non-positive maxWidth disables downscaling.
func downscale(img image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
}

// isAnimatedWebP sniffs the RIFF container for an animation chunk.
func isAnimatedWebP(data []byte) bool {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return false
	}
	return bytes.Contains(data, []byte("ANIM"))
}
