package pixelconv

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Resize rescales img to width x height with Catmull-Rom interpolation.
// The channel layout is kept.
func Resize(img *PixelBuffer, width, height int) (*PixelBuffer, error) {
	if img == nil {
		return nil, &StateError{Op: "resize", Want: "buffer", Got: "<nil>"}
	}
	if width < 1 || height < 1 {
		return nil, &ConfigError{Op: "resize", Msg: fmt.Sprintf("target size %dx%d must be positive", width, height)}
	}
	if width == img.width && height == img.height {
		return img.Clone(), nil
	}

	rect := image.Rect(0, 0, width, height)
	var dst draw.Image
	if img.layout == Gray {
		dst = image.NewGray(rect)
	} else {
		dst = image.NewRGBA(rect)
	}
	src := img.Image()
	draw.CatmullRom.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)

	// Interpolated alpha can land a step below opaque.
	if rgba, ok := dst.(*image.RGBA); ok {
		for i := 3; i < len(rgba.Pix); i += 4 {
			rgba.Pix[i] = 0xff
		}
	}
	return FromImage(dst)
}
