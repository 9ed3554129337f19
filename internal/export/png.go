package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	PixelScale    = 20
	FallbackColor = "#FFFFFF"
)

var ErrNoPixelData = errors.New("no pixel data to export")

// FileName is the download name for an n×n drawing.
func FileName(size int) string {
	return fmt.Sprintf("pixel-art-%dx%d.png", size, size)
}

// PNG writes pixels as an image where each cell is a scale×scale square. Unparseable
// colours are drawn as FallbackColor.
func PNG(w io.Writer, pixels [][]string, scale int) error {
	img, err := Render(pixels, scale)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func Render(pixels [][]string, scale int) (*image.RGBA, error) {
	n := len(pixels)
	if n == 0 {
		return nil, ErrNoPixelData
	}
	if scale <= 0 {
		scale = PixelScale
	}
	cols := 0
	for _, row := range pixels {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return nil, ErrNoPixelData
	}
	img := image.NewRGBA(image.Rect(0, 0, cols*scale, n*scale))
	fallback := parse(FallbackColor, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	for r := 0; r < n; r++ {
		for c := 0; c < cols; c++ {
			fill := fallback
			if c < len(pixels[r]) {
				fill = parse(pixels[r][c], fallback)
			}
			for y := r * scale; y < (r+1)*scale; y++ {
				for x := c * scale; x < (c+1)*scale; x++ {
					img.SetRGBA(x, y, fill)
				}
			}
		}
	}
	return img, nil
}

func parse(hex string, fallback color.RGBA) color.RGBA {
	col, err := colorful.Hex(hex)
	if err != nil {
		return fallback
	}
	r, g, b := col.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
