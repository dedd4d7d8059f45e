package pixelconv

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// buildFits assembles a primary HDU from header cards and raw data.
func buildFits(cards []string, data []byte) []byte {
	var b bytes.Buffer
	for _, c := range cards {
		b.WriteString(c)
	}
	b.WriteString(fmt.Sprintf("%-80s", "END"))
	padTo(&b, fitsBlockSize, ' ')
	b.Write(data)
	padTo(&b, fitsBlockSize, 0)
	return b.Bytes()
}

func TestWriteReadFits(t *testing.T) {
	for _, layout := range []ChannelLayout{Gray, Color} {
		img := randomBuffer(t, 21, 13, layout, 4)
		var buf bytes.Buffer
		if err := WriteFits(&buf, img); err != nil {
			t.Fatal(err)
		}
		if buf.Len()%fitsBlockSize != 0 {
			t.Errorf("%v: FITS length %d is not a multiple of %d", layout, buf.Len(), fitsBlockSize)
		}
		fits, err := ReadFitsFromBytes(buf.Bytes())
		if err != nil {
			t.Fatal(err)
		}
		if !fits.Buffer.Equal(img) {
			t.Errorf("%v: round trip changed the image: got %s", layout, fits.Buffer)
		}
		if w, ok := fits.Metadata.GetInt("naxis1"); !ok || w != 21 {
			t.Errorf("%v: NAXIS1 = %d, %v", layout, w, ok)
		}
	}
}

func TestReadFitsPlanes(t *testing.T) {
	data := []byte{
		1, 2, // red
		3, 4, // green
		5, 6, // blue
	}
	raw := buildFits([]string{
		fitsCard("SIMPLE", "T"),
		fitsCard("BITPIX", "8"),
		fitsCard("NAXIS", "3"),
		fitsCard("NAXIS1", "2"),
		fitsCard("NAXIS2", "1"),
		fitsCard("NAXIS3", "3"),
		fitsCard("OBJECT", "'M31     '"),
	}, data)

	fits, err := ReadFitsFromBytes(raw)
	if err != nil {
		t.Fatal(err)
	}
	if fits.Buffer.Layout() != Color {
		t.Fatalf("layout = %v, want Color", fits.Buffer.Layout())
	}
	if diff := cmp.Diff([]byte{1, 3, 5, 2, 4, 6}, fits.Buffer.Data()); diff != "" {
		t.Errorf("interleaving mismatch (-want +got):\n%s", diff)
	}
	if got := fits.Metadata.ObjectName(); got != "M31" {
		t.Errorf("ObjectName() = %q, want M31", got)
	}
}

func TestReadFitsScaling(t *testing.T) {
	raw := buildFits([]string{
		fitsCard("SIMPLE", "T"),
		fitsCard("BITPIX", "8"),
		fitsCard("NAXIS", "2"),
		fitsCard("NAXIS1", "3"),
		fitsCard("NAXIS2", "1"),
		fitsCard("BZERO", "5.0"),
		fitsCard("BSCALE", "2.0"),
	}, []byte{10, 0, 200})

	fits, err := ReadFitsFromBytes(raw)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{25, 5, 255}, fits.Buffer.Data()); diff != "" {
		t.Errorf("scaled pixels mismatch (-want +got):\n%s", diff)
	}
}

func TestReadFitsUnsupported(t *testing.T) {
	tests := []struct {
		name  string
		cards []string
	}{
		{"16-bit", []string{
			fitsCard("SIMPLE", "T"), fitsCard("BITPIX", "16"), fitsCard("NAXIS", "2"),
			fitsCard("NAXIS1", "2"), fitsCard("NAXIS2", "2"),
		}},
		{"float", []string{
			fitsCard("SIMPLE", "T"), fitsCard("BITPIX", "-32"), fitsCard("NAXIS", "2"),
			fitsCard("NAXIS1", "2"), fitsCard("NAXIS2", "2"),
		}},
		{"two planes", []string{
			fitsCard("SIMPLE", "T"), fitsCard("BITPIX", "8"), fitsCard("NAXIS", "3"),
			fitsCard("NAXIS1", "2"), fitsCard("NAXIS2", "2"), fitsCard("NAXIS3", "2"),
		}},
		{"one axis", []string{
			fitsCard("SIMPLE", "T"), fitsCard("BITPIX", "8"), fitsCard("NAXIS", "1"),
			fitsCard("NAXIS1", "4"),
		}},
		{"zero width", []string{
			fitsCard("SIMPLE", "T"), fitsCard("BITPIX", "8"), fitsCard("NAXIS", "2"),
			fitsCard("NAXIS1", "0"), fitsCard("NAXIS2", "4"),
		}},
		{"width beyond uint32", []string{
			fitsCard("SIMPLE", "T"), fitsCard("BITPIX", "8"), fitsCard("NAXIS", "2"),
			fitsCard("NAXIS1", "4294967296"), fitsCard("NAXIS2", "4294967296"),
		}},
		{"pixel count overflows", []string{
			fitsCard("SIMPLE", "T"), fitsCard("BITPIX", "8"), fitsCard("NAXIS", "2"),
			fitsCard("NAXIS1", "3037000500"), fitsCard("NAXIS2", "3037000500"),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFitsFromBytes(buildFits(tt.cards, make([]byte, 16)))
			if !IsUnsupportedFormat(err) {
				t.Errorf("error = %v, want UnsupportedFormatError", err)
			}
		})
	}
}

func TestReadFitsTruncated(t *testing.T) {
	raw := buildFits([]string{
		fitsCard("SIMPLE", "T"), fitsCard("BITPIX", "8"), fitsCard("NAXIS", "2"),
		fitsCard("NAXIS1", "100"), fitsCard("NAXIS2", "100"),
	}, nil)
	if _, err := ReadFitsFromBytes(raw); err == nil {
		t.Error("ReadFitsFromBytes succeeded on missing pixel data")
	}
	huge := buildFits([]string{
		fitsCard("SIMPLE", "T"), fitsCard("BITPIX", "8"), fitsCard("NAXIS", "2"),
		fitsCard("NAXIS1", "1000000"), fitsCard("NAXIS2", "1000000"),
	}, nil)
	if _, err := ReadFitsFromBytes(huge); err == nil {
		t.Error("ReadFitsFromBytes succeeded on a header-only 1000000x1000000 image")
	}
	if _, err := ReadFitsFromBytes(raw[:100]); err == nil {
		t.Error("ReadFitsFromBytes succeeded on a truncated header")
	}
}

func TestParseFitsValue(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"T":            "True",
		"F":            "False",
		"'NGC 7000  '": "NGC 7000",
		"42":           "42",
	}
	for in, want := range tests {
		if got := parseFitsValue(in); got != want {
			t.Errorf("parseFitsValue(%q) = %q, want %q", in, got, want)
		}
	}
}
