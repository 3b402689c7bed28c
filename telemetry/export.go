package telemetry

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/peterberweiler/ITA-Project-sub000/field"
)

// normalize maps channel 0 of s onto [0,1] using its own min and max.
func normalize(s field.Snapshot, fn func(x, y int, t float64)) {
	lo, hi := float32(0), float32(0)
	for i := 0; i < len(s.Data); i += s.Shape.Channels {
		v := s.Data[i]
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}
	span := float64(hi - lo)
	for y := 0; y < s.Shape.H; y++ {
		for x := 0; x < s.Shape.W; x++ {
			t := 0.0
			if span > 0 {
				t = float64(s.At(x, y, 0)-lo) / span
			}
			fn(x, y, t)
		}
	}
}

// ExportPNG16 writes channel 0 of s as a 16-bit grayscale heightmap.
func ExportPNG16(s field.Snapshot, path string) error {
	img := image.NewGray16(image.Rect(0, 0, s.Shape.W, s.Shape.H))
	normalize(s, func(x, y int, t float64) {
		img.SetGray16(x, y, color.Gray16{Y: uint16(t*65535 + 0.5)})
	})
	return writePNG(img, path)
}

// ExportPNG8 writes channel 0 of s as an 8-bit grayscale heightmap.
func ExportPNG8(s field.Snapshot, path string) error {
	img := image.NewGray(image.Rect(0, 0, s.Shape.W, s.Shape.H))
	normalize(s, func(x, y int, t float64) {
		img.SetGray(x, y, color.Gray{Y: uint8(t*255 + 0.5)})
	})
	return writePNG(img, path)
}

func writePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
