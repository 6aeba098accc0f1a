// internal/imaging/imaging.go

// Package imaging prepares listing photos for storage: the format is
// sniffed from the bytes, large photos are shrunk and everything is
// re-encoded as JPEG.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/javajoker/campus-market/internal/apperr"
)

const (
	MaxDimension = 1024
	JPEGQuality  = 85
	OutputMIME   = "image/jpeg"
	OutputExt    = ".jpg"
)

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a processed listing photo ready for upload.
type Photo struct {
	Data   []byte
	Width  int
	Height int
}

// Prepare validates data as a JPEG or PNG photo and returns it re-encoded
// as JPEG no larger than MaxDimension on either side.
func Prepare(data []byte) (*Photo, error) {
	if len(data) == 0 {
		return nil, apperr.Validation("the photo is empty", nil)
	}

	detected := http.DetectContentType(data)
	if !accepted[detected] {
		return nil, apperr.Validation(
			fmt.Sprintf("unsupported photo format %s, use JPEG or PNG", detected),
			map[string]string{"content_type": detected},
		)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "the photo could not be decoded", err)
	}

	img = fit(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &Photo{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// fit scales img down, keeping its aspect ratio, until both sides are at
// most maxDim. Smaller images are returned untouched.
func fit(img image.Image, maxDim int) image.Image {
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
