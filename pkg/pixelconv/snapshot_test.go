package pixelconv

import (
	"bytes"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	for _, layout := range []ChannelLayout{Gray, Color} {
		img := randomBuffer(t, 31, 17, layout, 12)
		var buf bytes.Buffer
		if err := WriteSnapshot(&buf, img); err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte(snapshotMagic)) {
			t.Errorf("%v: snapshot does not start with %q", layout, snapshotMagic)
		}
		got, err := ReadSnapshot(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(img) {
			t.Errorf("%v: round trip changed the image: got %s", layout, got)
		}
	}
}

func TestSnapshotCompresses(t *testing.T) {
	img, err := NewBlankPixelBuffer(256, 256, Color)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, img); err != nil {
		t.Fatal(err)
	}
	if buf.Len() >= img.Len()/10 {
		t.Errorf("blank snapshot is %d bytes for %d pixels bytes", buf.Len(), img.Len())
	}
}

func TestReadSnapshotErrors(t *testing.T) {
	var valid bytes.Buffer
	if err := WriteSnapshot(&valid, randomBuffer(t, 4, 4, Gray, 1)); err != nil {
		t.Fatal(err)
	}
	good := valid.Bytes()

	badMagic := append([]byte("PNG1"), good[4:]...)

	badChannels := append([]byte(nil), good...)
	badChannels[12] = 4

	zeroWidth := append([]byte(nil), good...)
	copy(zeroWidth[4:8], []byte{0, 0, 0, 0})

	// A header claiming more rows than the payload holds.
	wrongSize := append([]byte(nil), good...)
	wrongSize[11] = 5

	tests := []struct {
		name            string
		data            []byte
		wantUnsupported bool
		wantConfig      bool
	}{
		{"short header", good[:8], false, false},
		{"bad magic", badMagic, true, false},
		{"bad channels", badChannels, true, false},
		{"zero width", zeroWidth, false, true},
		{"size mismatch", wrongSize, false, true},
		{"truncated payload", good[:len(good)-4], false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSnapshot(bytes.NewReader(tt.data))
			if err == nil {
				t.Fatal("ReadSnapshot succeeded")
			}
			if tt.wantUnsupported && !IsUnsupportedFormat(err) {
				t.Errorf("error = %v, want UnsupportedFormatError", err)
			}
			if tt.wantConfig && !IsConfigError(err) {
				t.Errorf("error = %v, want ConfigError", err)
			}
		})
	}
}
