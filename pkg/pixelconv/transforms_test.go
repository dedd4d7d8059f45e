package pixelconv

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToGray(t *testing.T) {
	img := mustBuffer(t, 4, 1, Color, []byte{
		10, 20, 31,
		255, 255, 255,
		1, 1, 2,
		0, 0, 0,
	})
	got, err := ToGray(img)
	if err != nil {
		t.Fatal(err)
	}
	if got.Layout() != Gray {
		t.Errorf("layout = %v, want Gray", got.Layout())
	}
	// Truncating average: 61/3 = 20, 4/3 = 1.
	if diff := cmp.Diff([]byte{20, 255, 1, 0}, got.Data()); diff != "" {
		t.Errorf("ToGray mismatch (-want +got):\n%s", diff)
	}
}

func TestToGrayTwiceFails(t *testing.T) {
	img := randomBuffer(t, 5, 5, Color, 9)
	gray, err := ToGray(img)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ToGray(gray)
	if !IsStateError(err) {
		t.Errorf("second ToGray error = %v, want StateError", err)
	}
	if _, err := ToGrayRGB(gray); !IsStateError(err) {
		t.Errorf("ToGrayRGB(gray) error = %v, want StateError", err)
	}
}

func TestToGrayRGB(t *testing.T) {
	img := mustBuffer(t, 2, 1, Color, []byte{10, 20, 31, 90, 0, 0})
	got, err := ToGrayRGB(img)
	if err != nil {
		t.Fatal(err)
	}
	if got.Layout() != Color {
		t.Errorf("layout = %v, want Color", got.Layout())
	}
	if diff := cmp.Diff([]byte{20, 20, 20, 30, 30, 30}, got.Data()); diff != "" {
		t.Errorf("ToGrayRGB mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractChannel(t *testing.T) {
	img := mustBuffer(t, 2, 1, Color, []byte{1, 2, 3, 4, 5, 6})
	tests := []struct {
		ch      Channel
		inColor bool
		layout  ChannelLayout
		want    []byte
	}{
		{Red, false, Gray, []byte{1, 4}},
		{Green, false, Gray, []byte{2, 5}},
		{Blue, false, Gray, []byte{3, 6}},
		{Red, true, Color, []byte{1, 0, 0, 4, 0, 0}},
		{Green, true, Color, []byte{0, 2, 0, 0, 5, 0}},
		{Blue, true, Color, []byte{0, 0, 3, 0, 0, 6}},
	}
	for _, tt := range tests {
		got, err := ExtractChannel(img, tt.ch, tt.inColor)
		if err != nil {
			t.Fatalf("ExtractChannel(%v, %v): %v", tt.ch, tt.inColor, err)
		}
		if got.Layout() != tt.layout {
			t.Errorf("ExtractChannel(%v, %v) layout = %v, want %v", tt.ch, tt.inColor, got.Layout(), tt.layout)
		}
		if diff := cmp.Diff(tt.want, got.Data()); diff != "" {
			t.Errorf("ExtractChannel(%v, %v) mismatch (-want +got):\n%s", tt.ch, tt.inColor, diff)
		}
	}
}

func TestExtractChannelErrors(t *testing.T) {
	color := randomBuffer(t, 3, 3, Color, 1)
	gray := randomBuffer(t, 3, 3, Gray, 1)
	if _, err := ExtractChannel(color, GrayChannel, false); !IsStateError(err) {
		t.Errorf("GrayChannel error = %v, want StateError", err)
	}
	if _, err := ExtractChannel(gray, Red, false); !IsStateError(err) {
		t.Errorf("gray input error = %v, want StateError", err)
	}
	if _, err := ExtractChannel(nil, Red, false); !IsStateError(err) {
		t.Errorf("nil input error = %v, want StateError", err)
	}
}

func TestChannelRoundTrip(t *testing.T) {
	img := randomBuffer(t, 19, 7, Color, 11)
	var planes [3]*PixelBuffer
	for i, ch := range []Channel{Red, Green, Blue} {
		p, err := ExtractChannel(img, ch, false)
		if err != nil {
			t.Fatal(err)
		}
		planes[i] = p
	}
	merged, err := MergeChannels(planes[0], planes[1], planes[2])
	if err != nil {
		t.Fatal(err)
	}
	if !merged.Equal(img) {
		t.Error("merge(extract(r, g, b)) differs from the input")
	}
}

func TestMergeChannelsErrors(t *testing.T) {
	r := randomBuffer(t, 4, 4, Gray, 1)
	g := randomBuffer(t, 4, 4, Gray, 2)
	b := randomBuffer(t, 4, 4, Gray, 3)
	small := randomBuffer(t, 4, 3, Gray, 4)
	color := randomBuffer(t, 4, 4, Color, 5)

	tests := []struct {
		name       string
		r, g, b    *PixelBuffer
		wantBuffer string
	}{
		{"green shape", r, small, b, "green"},
		{"blue shape", r, g, small, "blue"},
		{"red layout", color, g, b, "red"},
		{"blue nil", r, g, nil, "blue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MergeChannels(tt.r, tt.g, tt.b)
			se, ok := err.(*StateError)
			if !ok {
				t.Fatalf("error = %v, want *StateError", err)
			}
			if se.Buffer != tt.wantBuffer {
				t.Errorf("Buffer = %q, want %q", se.Buffer, tt.wantBuffer)
			}
		})
	}
}

func TestBinarizeBoundary(t *testing.T) {
	img := mustBuffer(t, 5, 1, Gray, []byte{0, 99, 100, 101, 255})
	got, err := Binarize(img, 100)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{0, 0, 255, 255, 255}, got.Data()); diff != "" {
		t.Errorf("Binarize mismatch (-want +got):\n%s", diff)
	}
}

func TestBinarizeColorConvertsToGray(t *testing.T) {
	img := mustBuffer(t, 2, 1, Color, []byte{
		100, 100, 102, // 100
		100, 100, 96, // 98
	})
	got, err := Binarize(img, 100)
	if err != nil {
		t.Fatal(err)
	}
	if got.Layout() != Gray {
		t.Errorf("layout = %v, want Gray", got.Layout())
	}
	if diff := cmp.Diff([]byte{255, 0}, got.Data()); diff != "" {
		t.Errorf("Binarize mismatch (-want +got):\n%s", diff)
	}

	zero, err := Binarize(img, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{255, 255}, zero.Data()); diff != "" {
		t.Errorf("threshold 0 mismatch:\n%s", diff)
	}
}

func TestInvert(t *testing.T) {
	img := mustBuffer(t, 1, 1, Color, []byte{0, 128, 255})
	got, err := Invert(img)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{255, 127, 0}, got.Data()); diff != "" {
		t.Errorf("Invert mismatch (-want +got):\n%s", diff)
	}
	twice, err := Invert(got)
	if err != nil {
		t.Fatal(err)
	}
	if !twice.Equal(img) {
		t.Error("double inversion changed the image")
	}
}

func TestParseChannel(t *testing.T) {
	tests := map[string]Channel{"r": Red, "Green": Green, "B": Blue, "gray": GrayChannel}
	for in, want := range tests {
		got, err := ParseChannel(in)
		if err != nil || got != want {
			t.Errorf("ParseChannel(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseChannel("alpha"); !IsConfigError(err) {
		t.Errorf("ParseChannel(alpha) error = %v, want ConfigError", err)
	}
}
