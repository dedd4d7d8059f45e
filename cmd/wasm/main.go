//go:build js && wasm

package main

import (
	"bytes"
	"context"
	"syscall/js"

	pc "pixelconv/pkg/pixelconv"
)

var lastSteps []pc.Step

func main() {
	js.Global().Set("applySteps", js.FuncOf(applySteps))
	js.Global().Set("renderKernelChart", js.FuncOf(renderKernelChart))
	select {} // block forever
}

// applySteps(fileBytes, steps, options) runs a pipeline over an encoded
// image (PNG, JPEG, GIF, BMP, TIFF, WebP, FITS or .pxz snapshot) and returns
// the result as PNG bytes with per-channel statistics.
func applySteps(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("usage: applySteps(fileBytes, steps, options)")
	}

	jsBytes := args[0]
	fileBytes := make([]byte, jsBytes.Get("length").Int())
	js.CopyBytesToGo(fileBytes, jsBytes)

	steps, err := pc.ParseSteps(args[1].String())
	if err != nil {
		return errorResult("steps: " + err.Error())
	}

	params := pc.NewPipelineParams()
	if len(args) >= 3 && args[2].Type() == js.TypeObject {
		if w := args[2].Get("workers"); w.Type() == js.TypeNumber {
			params.Workers = w.Int()
		}
	}

	src, err := decodeBytes(fileBytes)
	if err != nil {
		return errorResult("decode error: " + err.Error())
	}
	result, err := pc.NewPipeline(steps, params).Run(context.Background(), src)
	if err != nil {
		return errorResult("pipeline error: " + err.Error())
	}
	lastSteps = steps

	var out bytes.Buffer
	if err := pc.Encode(&out, result, pc.FormatPNG); err != nil {
		return errorResult("encode error: " + err.Error())
	}
	pngArray := js.Global().Get("Uint8Array").New(out.Len())
	js.CopyBytesToJS(pngArray, out.Bytes())

	stats, err := pc.Stats(result)
	if err != nil {
		return errorResult("stats error: " + err.Error())
	}
	jsStats := make([]interface{}, len(stats))
	for i, s := range stats {
		jsStats[i] = map[string]interface{}{
			"channel": s.Channel.String(),
			"min":     int(s.Min),
			"max":     int(s.Max),
			"mean":    s.Mean,
			"median":  s.Median,
			"stddev":  s.StdDev,
		}
	}

	return js.ValueOf(map[string]interface{}{
		"width":  result.Width(),
		"height": result.Height(),
		"layout": result.Layout().String(),
		"png":    pngArray,
		"stats":  jsStats,
	})
}

// renderKernelChart(preset?) charts a preset by name, or the last
// convolution kernel used by applySteps when called without arguments.
func renderKernelChart(this js.Value, args []js.Value) interface{} {
	var k *pc.Kernel
	if len(args) >= 1 && args[0].Type() == js.TypeString {
		preset, err := pc.ParsePreset(args[0].String())
		if err != nil {
			return js.Null()
		}
		k = preset.Kernel(1)
	} else {
		for i := len(lastSteps) - 1; i >= 0 && k == nil; i-- {
			k = lastSteps[i].Kernel
		}
	}
	if k == nil {
		return js.Null()
	}

	pngBytes, err := pc.RenderKernelChartPNG(k, 48)
	if err != nil {
		return js.Null()
	}
	uint8Array := js.Global().Get("Uint8Array").New(len(pngBytes))
	js.CopyBytesToJS(uint8Array, pngBytes)
	return uint8Array
}

func decodeBytes(data []byte) (*pc.PixelBuffer, error) {
	switch {
	case bytes.HasPrefix(data, []byte("SIMPLE")):
		fits, err := pc.ReadFitsFromBytes(data)
		if err != nil {
			return nil, err
		}
		return fits.Buffer, nil
	case bytes.HasPrefix(data, []byte("PXZ1")):
		return pc.ReadSnapshot(bytes.NewReader(data))
	}
	buf, _, err := pc.Decode(bytes.NewReader(data))
	return buf, err
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}
