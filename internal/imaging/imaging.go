// Package imaging normalises scanned signed forms: images are bounded in
// size and re-encoded as JPEG.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
)

// MaxDimension bounds the width and height of stored scans (A4 at 300 dpi).
const MaxDimension = 2480

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// MIME is the type of every normalised scan.
const MIME = "image/jpeg"

// Supported reports whether a sniffed MIME type is an accepted scan format.
func Supported(mime string) bool {
	return mime == "image/jpeg" || mime == "image/png"
}

// Normalize sniffs data, downscales it to MaxDimension and re-encodes it as
// JPEG.
func Normalize(data []byte) ([]byte, error) {
	detected := mimetype.Detect(data).String()
	if !Supported(detected) {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// downscale resizes img so neither dimension exceeds maxDim, keeping the
// aspect ratio. Images within bounds are returned as is.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
