package pixelconv

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Snapshot layout: magic "PXZ1", big-endian uint32 width and height, one
// byte of channel count, then a zstd frame holding the raw pixel bytes.
const (
	snapshotMagic = "PXZ1"
	SnapshotExt   = ".pxz"
)

// WriteSnapshot stores buf losslessly, including its layout.
func WriteSnapshot(w io.Writer, buf *PixelBuffer) error {
	header := make([]byte, 0, len(snapshotMagic)+9)
	header = append(header, snapshotMagic...)
	header = binary.BigEndian.AppendUint32(header, uint32(buf.width))
	header = binary.BigEndian.AppendUint32(header, uint32(buf.height))
	header = append(header, byte(buf.Channels()))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing snapshot header: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := enc.Write(buf.data); err != nil {
		enc.Close()
		return fmt.Errorf("compressing snapshot: %w", err)
	}
	return enc.Close()
}

// ReadSnapshot decodes data written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*PixelBuffer, error) {
	header := make([]byte, len(snapshotMagic)+9)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("reading snapshot header: %w", err)
	}
	if string(header[:4]) != snapshotMagic {
		return nil, &UnsupportedFormatError{Format: "snapshot", Detail: fmt.Sprintf("bad magic %q", header[:4])}
	}
	width := int(binary.BigEndian.Uint32(header[4:]))
	height := int(binary.BigEndian.Uint32(header[8:]))

	var layout ChannelLayout
	switch header[12] {
	case 1:
		layout = Gray
	case 3:
		layout = Color
	default:
		return nil, &UnsupportedFormatError{Format: "snapshot", Detail: fmt.Sprintf("%d channels", header[12])}
	}
	if err := checkShape("read snapshot", width, height, layout); err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decompressing snapshot: %w", err)
	}
	return NewPixelBuffer(width, height, layout, data)
}
