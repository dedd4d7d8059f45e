//go:build !purego && !js

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"

	pc "pixelconv/pkg/pixelconv"
)

// usesBuiltinCodec reports formats OpenCV does not handle here.
func usesBuiltinCodec(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fits", ".fit", pc.SnapshotExt:
		return true
	}
	return false
}

func loadImage(path string) (*pc.PixelBuffer, error) {
	if usesBuiltinCodec(path) {
		return pc.Load(path)
	}

	src := gocv.IMRead(path, gocv.IMReadUnchanged)
	if src.Empty() {
		return nil, fmt.Errorf("could not load image: %s", path)
	}
	defer src.Close()

	w, h := src.Cols(), src.Rows()
	switch src.Type() {
	case gocv.MatTypeCV8UC1:
		return pc.NewPixelBuffer(w, h, pc.Gray, src.ToBytes())
	case gocv.MatTypeCV8UC3:
		// OpenCV stores BGR
		rgb := gocv.NewMat()
		defer rgb.Close()
		gocv.CvtColor(src, &rgb, gocv.ColorBGRToRGB)
		return pc.NewPixelBuffer(w, h, pc.Color, rgb.ToBytes())
	}
	return nil, &pc.UnsupportedFormatError{
		Format: strings.TrimPrefix(filepath.Ext(path), "."),
		Detail: fmt.Sprintf("%d channels of type %v, want 8-bit gray or RGB", src.Channels(), src.Type()),
	}
}

func saveImage(path string, buf *pc.PixelBuffer) error {
	if usesBuiltinCodec(path) {
		return pc.Save(path, buf)
	}

	matType := gocv.MatTypeCV8UC1
	if buf.Layout() == pc.Color {
		matType = gocv.MatTypeCV8UC3
	}
	m, err := gocv.NewMatFromBytes(buf.Height(), buf.Width(), matType, buf.Bytes())
	if err != nil {
		return fmt.Errorf("wrapping pixels: %w", err)
	}
	defer m.Close()

	out := m
	if buf.Layout() == pc.Color {
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(m, &bgr, gocv.ColorRGBToBGR)
		out = bgr
	}
	if !gocv.IMWrite(path, out) {
		return fmt.Errorf("could not write image: %s", path)
	}
	return nil
}
