package pixelconv

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	fitsCardSize  = 80
	fitsBlockSize = 2880
)

// FitsMetadata holds parsed FITS header key-value pairs.
type FitsMetadata struct {
	Headers map[string]string
}

// NewFitsMetadata creates an empty FitsMetadata.
func NewFitsMetadata() *FitsMetadata {
	return &FitsMetadata{Headers: make(map[string]string)}
}

func (m *FitsMetadata) GetString(key string) string {
	return m.Headers[strings.ToUpper(key)]
}

func (m *FitsMetadata) GetInt(key string) (int, bool) {
	v, ok := m.Headers[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return i, true
}

func (m *FitsMetadata) ObjectName() string { return m.GetString("OBJECT") }

// FitsImage is a decoded 8-bit FITS primary HDU.
type FitsImage struct {
	Buffer   *PixelBuffer
	Metadata *FitsMetadata
}

// ReadFits reads an 8-bit FITS file. Two axes give a Gray buffer; three axes
// with NAXIS3 = 3 are read as R, G and B planes and interleaved.
func ReadFits(filePath string) (*FitsImage, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	return readFitsFromReader(f)
}

// ReadFitsFromBytes is ReadFits for in-memory data.
func ReadFitsFromBytes(data []byte) (*FitsImage, error) {
	return readFitsFromReader(bytes.NewReader(data))
}

func readFitsFromReader(r io.Reader) (*FitsImage, error) {
	var bitpix, naxis, width, height int
	planes := 1
	bzero := 0.0
	bscale := 1.0
	headerDone := false
	metadata := NewFitsMetadata()

	recordBuf := make([]byte, fitsCardSize)

	for !headerDone {
		for i := 0; i < fitsBlockSize/fitsCardSize; i++ {
			if _, err := io.ReadFull(r, recordBuf); err != nil {
				return nil, fmt.Errorf("reading FITS header record: %w", err)
			}
			record := string(recordBuf)
			keyword := strings.TrimSpace(record[:8])

			if keyword == "END" {
				headerDone = true
				if remaining := fitsBlockSize/fitsCardSize - 1 - i; remaining > 0 {
					if _, err := io.CopyN(io.Discard, r, int64(remaining*fitsCardSize)); err != nil {
						return nil, fmt.Errorf("skipping FITS header padding: %w", err)
					}
				}
				break
			}

			if record[8] != '=' || record[9] != ' ' {
				continue
			}
			rawValue := strings.TrimSpace(strings.SplitN(record[10:], "/", 2)[0])
			if parsed := parseFitsValue(rawValue); keyword != "" && parsed != "" {
				metadata.Headers[strings.ToUpper(keyword)] = parsed
			}

			switch keyword {
			case "BITPIX":
				bitpix, _ = strconv.Atoi(rawValue)
			case "NAXIS":
				naxis, _ = strconv.Atoi(rawValue)
			case "NAXIS1":
				width, _ = strconv.Atoi(rawValue)
			case "NAXIS2":
				height, _ = strconv.Atoi(rawValue)
			case "NAXIS3":
				planes, _ = strconv.Atoi(rawValue)
			case "BZERO":
				bzero, _ = strconv.ParseFloat(rawValue, 64)
			case "BSCALE":
				bscale, _ = strconv.ParseFloat(rawValue, 64)
			}
		}
	}

	if bitpix != 8 {
		return nil, &UnsupportedFormatError{Format: "FITS", Detail: fmt.Sprintf("BITPIX=%d, only 8-bit data is supported", bitpix)}
	}
	switch {
	case naxis == 2:
		planes = 1
	case naxis == 3 && planes == 3:
	default:
		return nil, &UnsupportedFormatError{Format: "FITS", Detail: fmt.Sprintf("NAXIS=%d NAXIS3=%d, want a 2-D image or 3 colour planes", naxis, planes)}
	}
	layout := Gray
	if planes == 3 {
		layout = Color
	}
	if err := checkShape("read FITS", width, height, layout); err != nil {
		return nil, &UnsupportedFormatError{Format: "FITS", Detail: fmt.Sprintf("NAXIS1=%d NAXIS2=%d: %v", width, height, err)}
	}

	// Planes are read incrementally so a header that overstates the data
	// fails on the short read instead of on one huge allocation.
	numPixels := width * height
	channels := make([]*PixelBuffer, planes)
	for p := range channels {
		raw, err := io.ReadAll(io.LimitReader(r, int64(numPixels)))
		if err != nil {
			return nil, fmt.Errorf("reading 8-bit pixel data: %w", err)
		}
		if len(raw) != numPixels {
			return nil, fmt.Errorf("reading 8-bit pixel data: %w", io.ErrUnexpectedEOF)
		}
		if bscale != 1 || bzero != 0 {
			for i, v := range raw {
				raw[i] = byte(clampFloat64(math.Round(float64(v)*bscale+bzero), 0, 255))
			}
		}
		buf, err := NewPixelBuffer(width, height, Gray, raw)
		if err != nil {
			return nil, err
		}
		channels[p] = buf
	}

	img := &FitsImage{Buffer: channels[0], Metadata: metadata}
	if planes == 3 {
		merged, err := MergeChannels(channels[0], channels[1], channels[2])
		if err != nil {
			return nil, err
		}
		img.Buffer = merged
	}
	return img, nil
}

// WriteFits writes buf as an 8-bit FITS primary HDU. Color buffers are
// split into three planes.
func WriteFits(w io.Writer, buf *PixelBuffer) error {
	cards := []string{
		fitsCard("SIMPLE", "T"),
		fitsCard("BITPIX", "8"),
	}
	if buf.layout == Color {
		cards = append(cards,
			fitsCard("NAXIS", "3"),
			fitsCard("NAXIS1", strconv.Itoa(buf.width)),
			fitsCard("NAXIS2", strconv.Itoa(buf.height)),
			fitsCard("NAXIS3", "3"))
	} else {
		cards = append(cards,
			fitsCard("NAXIS", "2"),
			fitsCard("NAXIS1", strconv.Itoa(buf.width)),
			fitsCard("NAXIS2", strconv.Itoa(buf.height)))
	}
	cards = append(cards, fmt.Sprintf("%-80s", "END"))

	var out bytes.Buffer
	for _, c := range cards {
		out.WriteString(c)
	}
	padTo(&out, fitsBlockSize, ' ')

	if buf.layout == Color {
		for _, ch := range []Channel{Red, Green, Blue} {
			plane, err := ExtractChannel(buf, ch, false)
			if err != nil {
				return err
			}
			out.Write(plane.data)
		}
	} else {
		out.Write(buf.data)
	}
	padTo(&out, fitsBlockSize, 0)

	_, err := w.Write(out.Bytes())
	return err
}

func fitsCard(keyword, value string) string {
	return fmt.Sprintf("%-8s= %20s%50s", keyword, value, "")
}

func padTo(b *bytes.Buffer, block int, fill byte) {
	if rem := b.Len() % block; rem != 0 {
		b.Write(bytes.Repeat([]byte{fill}, block-rem))
	}
}

func clampFloat64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func parseFitsValue(rawValue string) string {
	if rawValue == "" {
		return ""
	}
	if rawValue == "T" {
		return "True"
	}
	if rawValue == "F" {
		return "False"
	}
	if strings.HasPrefix(rawValue, "'") {
		endQuote := strings.LastIndex(rawValue, "'")
		if endQuote > 0 {
			return strings.TrimRight(rawValue[1:endQuote], " ")
		}
		return strings.TrimLeft(strings.TrimRight(rawValue, " "), "'")
	}
	return rawValue
}
