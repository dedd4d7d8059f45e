package pixelconv

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Format selects an encoder for Encode.
type Format int

const (
	FormatPNG Format = iota
	FormatJPEG
	FormatBMP
	FormatTIFF
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	default:
		return "unknown"
	}
}

// FormatFromPath picks the encoder from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	}
	return 0, &UnsupportedFormatError{Format: filepath.Ext(path), Detail: "no encoder for this extension"}
}

// FromImage copies a decoded image into a PixelBuffer. Only 8-bit models
// are accepted: *image.Gray becomes Gray, opaque RGBA, NRGBA, YCbCr and
// Paletted images become Color. Anything else, including translucent
// images, is rejected with UnsupportedFormatError.
func FromImage(img image.Image) (*PixelBuffer, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 1 || h < 1 {
		return nil, &UnsupportedFormatError{Format: "image", Detail: fmt.Sprintf("empty bounds %v", b)}
	}

	switch src := img.(type) {
	case *image.Gray:
		buf := newBuffer(w, h, Gray)
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(buf.data[y*w:(y+1)*w], src.Pix[off:off+w])
		}
		return buf, nil

	case *image.RGBA, *image.NRGBA, *image.YCbCr, *image.Paletted:
		if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
			return nil, &UnsupportedFormatError{Format: modelName(img), Detail: "alpha channel is not supported"}
		}
		buf := newBuffer(w, h, Color)
		if rgba, ok := src.(*image.RGBA); ok {
			for y := 0; y < h; y++ {
				off := rgba.PixOffset(b.Min.X, b.Min.Y+y)
				row := rgba.Pix[off : off+4*w]
				for x := 0; x < w; x++ {
					copy(buf.data[(y*w+x)*3:], row[x*4:x*4+3])
				}
			}
			return buf, nil
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
				i := (y*w + x) * 3
				buf.data[i], buf.data[i+1], buf.data[i+2] = c.R, c.G, c.B
			}
		}
		return buf, nil
	}

	return nil, &UnsupportedFormatError{Format: modelName(img), Detail: "only 8-bit gray or RGB rasters are supported"}
}

func modelName(img image.Image) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", img), "*image.")
}

// Image returns the buffer as *image.Gray (Gray) or an opaque *image.RGBA (Color).
func (b *PixelBuffer) Image() image.Image {
	r := image.Rect(0, 0, b.width, b.height)
	if b.layout == Gray {
		g := image.NewGray(r)
		copy(g.Pix, b.data)
		return g
	}
	rgba := image.NewRGBA(r)
	for i := 0; i < b.width*b.height; i++ {
		copy(rgba.Pix[i*4:i*4+3], b.data[i*3:i*3+3])
		rgba.Pix[i*4+3] = 0xff
	}
	return rgba
}

// Decode reads any registered format (png, jpeg, gif, bmp, tiff, webp) and
// returns the buffer with the format name.
func Decode(r io.Reader) (*PixelBuffer, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	buf, err := FromImage(img)
	if err != nil {
		return nil, format, err
	}
	return buf, format, nil
}

// Encode writes the buffer; grayscale vs colour encoding follows the layout.
func Encode(w io.Writer, buf *PixelBuffer, format Format) error {
	img := buf.Image()
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return &UnsupportedFormatError{Format: format.String(), Detail: "no encoder"}
}

// Load reads a raster from disk. FITS (.fits, .fit) and snapshot (.pxz)
// files are recognised by extension; everything else goes through Decode.
func Load(path string) (*PixelBuffer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fits", ".fit":
		fits, err := ReadFits(path)
		if err != nil {
			return nil, err
		}
		return fits.Buffer, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), SnapshotExt) {
		return ReadSnapshot(bufio.NewReader(f))
	}
	buf, _, err := Decode(bufio.NewReader(f))
	return buf, err
}

// Save writes buf to path, choosing the encoder from the extension
// (.pxz and .fits included).
func Save(path string, buf *PixelBuffer) error {
	var write func(w io.Writer) error
	switch strings.ToLower(filepath.Ext(path)) {
	case SnapshotExt:
		write = func(w io.Writer) error { return WriteSnapshot(w, buf) }
	case ".fits", ".fit":
		write = func(w io.Writer) error { return WriteFits(w, buf) }
	default:
		format, err := FormatFromPath(path)
		if err != nil {
			return err
		}
		write = func(w io.Writer) error { return Encode(w, buf, format) }
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
