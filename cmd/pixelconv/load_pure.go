//go:build purego || js

package main

import (
	pc "pixelconv/pkg/pixelconv"
)

func loadImage(path string) (*pc.PixelBuffer, error) {
	return pc.Load(path)
}

func saveImage(path string, buf *pc.PixelBuffer) error {
	return pc.Save(path, buf)
}
