// internal/placeholder/placeholder.go

// Package placeholder picks and draws the gradient shown for listings
// without an image.
package placeholder

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/zeebo/blake3"
)

// Gradient is a pair of colors in #rrggbb form.
type Gradient struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Palettes is fixed; reordering it changes every listing's placeholder.
var Palettes = []Gradient{
	{From: "#f97316", To: "#ec4899"},
	{From: "#6366f1", To: "#8b5cf6"},
	{From: "#14b8a6", To: "#0ea5e9"},
	{From: "#22c55e", To: "#84cc16"},
	{From: "#f43f5e", To: "#f59e0b"},
	{From: "#0f172a", To: "#334155"},
	{From: "#a855f7", To: "#06b6d4"},
	{From: "#eab308", To: "#ef4444"},
}

// Index maps (title, category, id) to a palette index. It depends on
// nothing but its arguments.
func Index(title, category, id string) int {
	sum := blake3.Sum256([]byte(title + "\x00" + category + "\x00" + id))
	return int(binary.BigEndian.Uint32(sum[:4]) % uint32(len(Palettes)))
}

// For returns the gradient for a listing.
func For(title, category, id string) Gradient {
	return Palettes[Index(title, category, id)]
}

// Render writes a diagonal gradient PNG of the given size.
func Render(w io.Writer, g Gradient, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid placeholder size %dx%d", width, height)
	}
	from, err := parseHex(g.From)
	if err != nil {
		return err
	}
	to, err := parseHex(g.To)
	if err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	span := float64(width + height - 2)
	if span == 0 {
		span = 1
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			t := float64(x+y) / span
			img.SetRGBA(x, y, color.RGBA{
				R: mix(from.R, to.R, t),
				G: mix(from.G, to.G, t),
				B: mix(from.B, to.B, t),
				A: 0xff,
			})
		}
	}
	return png.Encode(w, img)
}

func mix(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

func parseHex(s string) (color.RGBA, error) {
	var c color.RGBA
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("invalid color %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("invalid color %q: %w", s, err)
	}
	c.A = 0xff
	return c, nil
}
