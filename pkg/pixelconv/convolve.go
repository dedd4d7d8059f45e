package pixelconv

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Apply convolves img with k using GOMAXPROCS workers and returns a new
// buffer of the same shape. img is never written.
//
// Kernel cells that land outside the image are skipped rather than clamped,
// wrapped or zero-padded, so border pixels see only the in-bounds part of
// the kernel. Sums are accumulated in float32, clamped to [0, 255] and
// truncated to uint8 once per channel.
func Apply(img *PixelBuffer, k *Kernel) (*PixelBuffer, error) {
	return ApplyContext(context.Background(), img, k, 0)
}

// ApplyWorkers is Apply with an explicit worker count. workers <= 0 means
// GOMAXPROCS. The result does not depend on the worker count.
func ApplyWorkers(img *PixelBuffer, k *Kernel, workers int) (*PixelBuffer, error) {
	return ApplyContext(context.Background(), img, k, workers)
}

// ApplyContext is ApplyWorkers with cancellation. A cancelled context stops
// scheduling further row bands and returns ctx.Err() without a result.
func ApplyContext(ctx context.Context, img *PixelBuffer, k *Kernel, workers int) (*PixelBuffer, error) {
	if err := checkConvolveArgs(img, k); err != nil {
		return nil, err
	}
	dst := newBuffer(img.width, img.height, img.layout)
	channels := img.Channels()

	err := forEachBand(ctx, img.height, workers, func(y0, y1 int) {
		acc := make([]float32, channels)
		for y := y0; y < y1; y++ {
			for x := 0; x < img.width; x++ {
				accumulate(img, k, x, y, acc)
				off := (y*img.width + x) * channels
				for c, v := range acc {
					dst.data[off+c] = clampToByte(v)
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// ApplyRaw returns the unclamped per-channel sums, laid out like the pixel
// data (width*height*channels values).
func ApplyRaw(img *PixelBuffer, k *Kernel) ([]float32, error) {
	if err := checkConvolveArgs(img, k); err != nil {
		return nil, err
	}
	channels := img.Channels()
	out := make([]float32, len(img.data))

	err := forEachBand(context.Background(), img.height, 0, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < img.width; x++ {
				off := (y*img.width + x) * channels
				accumulate(img, k, x, y, out[off:off+channels])
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func checkConvolveArgs(img *PixelBuffer, k *Kernel) error {
	if img == nil {
		return &ConfigError{Op: "convolve", Msg: "nil image"}
	}
	if err := k.Validate(); err != nil {
		return fmt.Errorf("convolve: %w", err)
	}
	return nil
}

// accumulate overwrites acc with the weighted neighbourhood sum around (x, y).
// Cells are visited row by row so the float32 summation order is fixed.
func accumulate(img *PixelBuffer, k *Kernel, x, y int, acc []float32) {
	for c := range acc {
		acc[c] = 0
	}
	anchor := k.size / 2
	channels := len(acc)
	for j, w := range k.weights {
		sx := x + j%k.size - anchor
		sy := y + j/k.size - anchor
		if sx < 0 || sx >= img.width || sy < 0 || sy >= img.height {
			continue
		}
		off := (sy*img.width + sx) * channels
		for c := 0; c < channels; c++ {
			// The explicit conversion keeps the product from fusing into an FMA.
			acc[c] += float32(w * float32(img.data[off+c]))
		}
	}
}

func clampToByte(v float32) byte {
	switch {
	case math.IsNaN(float64(v)) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v)
	}
}

// forEachBand splits rows [0, n) into contiguous bands, one per worker, and
// runs fn on each band. Bands never overlap, so fn may write its rows of a
// shared destination without locking.
func forEachBand(ctx context.Context, n, workers int, fn func(y0, y1 int)) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, n)
	if workers <= 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(0, n)
		return nil
	}

	bandSize := (n + workers - 1) / workers
	Logger().Debug("convolve bands", "rows", n, "workers", workers, "bandRows", bandSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < n; start += bandSize {
		if gctx.Err() != nil {
			break
		}
		y0, y1 := start, min(start+bandSize, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(y0, y1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
