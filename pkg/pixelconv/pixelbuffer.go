package pixelconv

import (
	"bytes"
	"fmt"
	"math"
)

// PixelBuffer is an 8-bit raster stored as one contiguous, row-major byte
// slice. Pixel (x, y) occupies data[(y*width+x)*channels : +channels].
//
// A PixelBuffer is never modified after construction; every transform in
// this package allocates a new one.
type PixelBuffer struct {
	width  int
	height int
	layout ChannelLayout
	data   []byte
}

// NewPixelBuffer wraps data as a width x height raster. The buffer takes
// ownership of data.
func NewPixelBuffer(width, height int, layout ChannelLayout, data []byte) (*PixelBuffer, error) {
	if err := checkShape("new pixel buffer", width, height, layout); err != nil {
		return nil, err
	}
	want := width * height * layout.Channels()
	if len(data) != want {
		return nil, &ConfigError{
			Op:  "new pixel buffer",
			Msg: fmt.Sprintf("data length %d does not match %dx%d %s (want %d)", len(data), width, height, layout, want),
		}
	}
	return &PixelBuffer{width: width, height: height, layout: layout, data: data}, nil
}

// NewBlankPixelBuffer allocates a zeroed raster.
func NewBlankPixelBuffer(width, height int, layout ChannelLayout) (*PixelBuffer, error) {
	if err := checkShape("new blank pixel buffer", width, height, layout); err != nil {
		return nil, err
	}
	return newBuffer(width, height, layout), nil
}

// newBuffer skips validation; callers pass a shape taken from a valid buffer.
func newBuffer(width, height int, layout ChannelLayout) *PixelBuffer {
	return &PixelBuffer{
		width:  width,
		height: height,
		layout: layout,
		data:   make([]byte, width*height*layout.Channels()),
	}
}

// checkShape rejects shapes whose byte length would not fit in an int.
// Each dimension is also limited to the range of a uint32.
func checkShape(op string, width, height int, layout ChannelLayout) error {
	channels := layout.Channels()
	if channels == 0 {
		return &ConfigError{Op: op, Msg: fmt.Sprintf("unknown channel layout %d", int(layout))}
	}
	if width < 1 || height < 1 {
		return &ConfigError{Op: op, Msg: fmt.Sprintf("dimensions must be positive, got %dx%d", width, height)}
	}
	if uint64(width) > math.MaxUint32 || uint64(height) > math.MaxUint32 {
		return &ConfigError{Op: op, Msg: fmt.Sprintf("dimensions %dx%d exceed %d", width, height, uint32(math.MaxUint32))}
	}
	if width > math.MaxInt/height/channels {
		return &ConfigError{Op: op, Msg: fmt.Sprintf("%dx%d %s is too large to address", width, height, layout)}
	}
	return nil
}

func (b *PixelBuffer) Width() int            { return b.width }
func (b *PixelBuffer) Height() int           { return b.height }
func (b *PixelBuffer) Layout() ChannelLayout { return b.layout }
func (b *PixelBuffer) Shape() (int, int)     { return b.width, b.height }
func (b *PixelBuffer) Len() int              { return len(b.data) }

// Channels returns the pixel stride in bytes.
func (b *PixelBuffer) Channels() int { return b.layout.Channels() }

// Data returns the backing slice. It must be treated as read-only.
func (b *PixelBuffer) Data() []byte { return b.data }

// Bytes returns a copy of the pixel data.
func (b *PixelBuffer) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// SameShape reports whether both buffers have equal width, height and layout.
func (b *PixelBuffer) SameShape(other *PixelBuffer) bool {
	return other != nil && b.width == other.width && b.height == other.height && b.layout == other.layout
}

// Offset returns the index of the first byte of pixel (x, y).
func (b *PixelBuffer) Offset(x, y int) (int, error) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return 0, &ConfigError{
			Op:  "offset",
			Msg: fmt.Sprintf("pixel (%d, %d) outside %dx%d", x, y, b.width, b.height),
		}
	}
	return (y*b.width + x) * b.layout.Channels(), nil
}

// Pixel returns a copy of the channel group at (x, y).
func (b *PixelBuffer) Pixel(x, y int) ([]byte, error) {
	off, err := b.Offset(x, y)
	if err != nil {
		return nil, err
	}
	px := make([]byte, b.layout.Channels())
	copy(px, b.data[off:])
	return px, nil
}

// Row returns the read-only bytes of row y, or nil when y is out of range.
func (b *PixelBuffer) Row(y int) []byte {
	if y < 0 || y >= b.height {
		return nil
	}
	stride := b.width * b.layout.Channels()
	return b.data[y*stride : (y+1)*stride]
}

// Clone creates a deep copy of the buffer.
func (b *PixelBuffer) Clone() *PixelBuffer {
	return &PixelBuffer{width: b.width, height: b.height, layout: b.layout, data: b.Bytes()}
}

// Equal reports whether both buffers have the same shape and bytes.
func (b *PixelBuffer) Equal(other *PixelBuffer) bool {
	return b.SameShape(other) && bytes.Equal(b.data, other.data)
}

func (b *PixelBuffer) String() string {
	return fmt.Sprintf("PixelBuffer{%s}", shapeString(b))
}
