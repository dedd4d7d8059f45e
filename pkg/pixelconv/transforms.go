package pixelconv

import "context"

// mapRows runs fn over row bands of an image with the given height.
func mapRows(height int, fn func(y0, y1 int)) {
	// Background context never cancels, so forEachBand cannot fail here.
	_ = forEachBand(context.Background(), height, 0, fn)
}

func requireColor(op, name string, img *PixelBuffer) error {
	if img == nil {
		return &StateError{Op: op, Buffer: name, Want: "Color buffer", Got: "<nil>"}
	}
	if img.layout != Color {
		return &StateError{Op: op, Buffer: name, Want: "Color buffer", Got: shapeString(img)}
	}
	return nil
}

// ToGray averages R, G and B into a single-channel buffer. The average is
// truncated, not rounded: (r+g+b)/3 in integer arithmetic. Converting a
// buffer that is already Gray is an error.
func ToGray(img *PixelBuffer) (*PixelBuffer, error) {
	if err := requireColor("to gray", "", img); err != nil {
		return nil, err
	}
	dst := newBuffer(img.width, img.height, Gray)
	mapRows(img.height, func(y0, y1 int) {
		for i := y0 * img.width; i < y1*img.width; i++ {
			px := img.data[i*3 : i*3+3]
			dst.data[i] = byte((uint16(px[0]) + uint16(px[1]) + uint16(px[2])) / 3)
		}
	})
	return dst, nil
}

// ToGrayRGB is ToGray but keeps the Color layout, writing the gray value to
// all three channels.
func ToGrayRGB(img *PixelBuffer) (*PixelBuffer, error) {
	if err := requireColor("to gray rgb", "", img); err != nil {
		return nil, err
	}
	dst := newBuffer(img.width, img.height, Color)
	mapRows(img.height, func(y0, y1 int) {
		for i := y0 * img.width * 3; i < y1*img.width*3; i += 3 {
			px := img.data[i : i+3]
			g := byte((uint16(px[0]) + uint16(px[1]) + uint16(px[2])) / 3)
			dst.data[i], dst.data[i+1], dst.data[i+2] = g, g, g
		}
	})
	return dst, nil
}

// ExtractChannel copies one channel out of a Color buffer. With inColor the
// result stays Color and the other two channels are zero; otherwise it is a
// Gray buffer holding the channel's bytes.
func ExtractChannel(img *PixelBuffer, ch Channel, inColor bool) (*PixelBuffer, error) {
	if err := requireColor("extract channel", "", img); err != nil {
		return nil, err
	}
	idx, ok := ch.Index()
	if !ok {
		return nil, &StateError{Op: "extract channel", Want: "Red, Green or Blue", Got: ch.String()}
	}

	layout := Gray
	if inColor {
		layout = Color
	}
	dst := newBuffer(img.width, img.height, layout)
	mapRows(img.height, func(y0, y1 int) {
		for i := y0 * img.width; i < y1*img.width; i++ {
			v := img.data[i*3+idx]
			if inColor {
				dst.data[i*3+idx] = v
			} else {
				dst.data[i] = v
			}
		}
	})
	return dst, nil
}

// MergeChannels interleaves three Gray buffers of equal shape into one Color
// buffer in R, G, B order.
func MergeChannels(red, green, blue *PixelBuffer) (*PixelBuffer, error) {
	named := []struct {
		name string
		buf  *PixelBuffer
	}{{"red", red}, {"green", green}, {"blue", blue}}

	for _, n := range named {
		if n.buf == nil || n.buf.layout != Gray {
			return nil, &StateError{Op: "merge channels", Buffer: n.name, Want: "Gray buffer", Got: shapeString(n.buf)}
		}
	}
	for _, n := range named[1:] {
		if !n.buf.SameShape(red) {
			return nil, &StateError{Op: "merge channels", Buffer: n.name, Want: shapeString(red), Got: shapeString(n.buf)}
		}
	}

	dst := newBuffer(red.width, red.height, Color)
	mapRows(red.height, func(y0, y1 int) {
		for i := y0 * red.width; i < y1*red.width; i++ {
			dst.data[i*3] = red.data[i]
			dst.data[i*3+1] = green.data[i]
			dst.data[i*3+2] = blue.data[i]
		}
	})
	return dst, nil
}

// Binarize maps every byte to 255 when it is >= threshold and to 0
// otherwise. Color input is converted with ToGray first, so the result is
// always Gray.
func Binarize(img *PixelBuffer, threshold uint8) (*PixelBuffer, error) {
	if img == nil {
		return nil, &StateError{Op: "binarize", Want: "buffer", Got: "<nil>"}
	}
	src := img
	if img.layout != Gray {
		var err error
		if src, err = ToGray(img); err != nil {
			return nil, err
		}
	}
	dst := newBuffer(src.width, src.height, Gray)
	mapRows(src.height, func(y0, y1 int) {
		for i := y0 * src.width; i < y1*src.width; i++ {
			if src.data[i] >= threshold {
				dst.data[i] = 255
			}
		}
	})
	return dst, nil
}

// Invert returns 255 - v for every byte, keeping the layout.
func Invert(img *PixelBuffer) (*PixelBuffer, error) {
	if img == nil {
		return nil, &StateError{Op: "invert", Want: "buffer", Got: "<nil>"}
	}
	dst := newBuffer(img.width, img.height, img.layout)
	stride := img.width * img.Channels()
	mapRows(img.height, func(y0, y1 int) {
		for i := y0 * stride; i < y1*stride; i++ {
			dst.data[i] = 255 - img.data[i]
		}
	})
	return dst, nil
}
