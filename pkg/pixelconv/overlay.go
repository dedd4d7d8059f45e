package pixelconv

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	minChartCell   = 24
	chartSummaryH  = 40
	chartGridAlpha = 180
)

// RenderKernelChart draws k as a heat map: one cell of cell x cell pixels per
// weight, positive weights in red, negative in blue, each labelled with its
// coefficient. A summary line with the size and the weight sum sits below.
func RenderKernelChart(k *Kernel, cell int) (*image.RGBA, error) {
	if err := k.Validate(); err != nil {
		return nil, fmt.Errorf("kernel chart: %w", err)
	}
	cell = max(cell, minChartCell)

	gridW := k.size * cell
	imgW := max(gridW, 220)
	totalH := gridW + chartSummaryH
	img := image.NewRGBA(image.Rect(0, 0, imgW, totalH))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)

	var peak float32
	for _, w := range k.weights {
		peak = max(peak, float32(math.Abs(float64(w))))
	}

	face := basicfont.Face7x13
	textColor := color.RGBA{255, 255, 255, 255}
	for j, w := range k.weights {
		col, row := j%k.size, j/k.size
		r := image.Rect(col*cell, row*cell, (col+1)*cell, (row+1)*cell)
		draw.Draw(img, r, image.NewUniform(weightColor(w, peak)), image.Point{}, draw.Src)

		cx := (r.Min.X + r.Max.X) / 2
		cy := (r.Min.Y+r.Max.Y)/2 + face.Ascent/2
		drawCenteredText(img, face, formatWeight(w), cx, cy, textColor)
	}

	// Grid lines (white, 1px)
	gridColor := color.RGBA{255, 255, 255, chartGridAlpha}
	for i := 0; i <= k.size; i++ {
		p := min(i*cell, gridW-1)
		for t := 0; t < gridW; t++ {
			img.Set(p, t, gridColor)
			img.Set(t, p, gridColor)
		}
	}

	summary := fmt.Sprintf("%dx%d  anchor=%d  sum=%.4g", k.size, k.size, k.Anchor(), k.Sum())
	drawText(img, face, summary, 10, gridW+25, color.RGBA{220, 220, 220, 255})

	return img, nil
}

// RenderKernelChartPNG is RenderKernelChart encoded as PNG bytes.
func RenderKernelChartPNG(k *Kernel, cell int) ([]byte, error) {
	img, err := RenderKernelChart(k, cell)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// weightColor maps w to a red (positive) or blue (negative) intensity
// relative to the largest absolute weight. Zero is dark gray.
func weightColor(w, peak float32) color.RGBA {
	if w == 0 || peak == 0 {
		return color.RGBA{40, 40, 40, 255}
	}
	t := float64(w) / float64(peak)
	if t > 0 {
		return color.RGBA{uint8(60 + t*195), uint8(40 * (1 - t)), 20, 255}
	}
	t = -t
	return color.RGBA{20, uint8(40 * (1 - t)), uint8(60 + t*195), 255}
}

func formatWeight(w float32) string {
	s := fmt.Sprintf("%.3g", w)
	if len(s) > 6 {
		s = fmt.Sprintf("%.1e", w)
	}
	return s
}

// drawText draws a string with its baseline at (x, y).
func drawText(img *image.RGBA, face font.Face, s string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawCenteredText draws a string horizontally centered on cx.
func drawCenteredText(img *image.RGBA, face font.Face, s string, cx, y int, c color.RGBA) {
	advance := font.MeasureString(face, s)
	drawText(img, face, s, cx-advance.Round()/2, y, c)
}
