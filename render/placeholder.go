package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Placeholder draws a blank chart-sized PNG with a centered message.
func Placeholder(size Size, message string) ([]byte, error) {
	size = size.orDefault()
	img := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	dr := &font.Drawer{Dst: img, Src: image.NewUniform(color.RGBA{R: 100, G: 116, B: 139, A: 255}), Face: face}
	width := dr.MeasureString(message).Ceil()
	x := max(0, (size.Width-width)/2)
	y := size.Height/2 + face.Metrics().Ascent.Ceil()/2
	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	dr.DrawString(message)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}
