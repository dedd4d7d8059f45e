package pixelconv

import (
	"fmt"
	"strings"
)

// ChannelLayout describes how many bytes make up one pixel and what they mean.
type ChannelLayout int

const (
	Gray ChannelLayout = iota + 1
	Color
)

// Channels returns the pixel stride in bytes, or 0 for an unknown layout.
func (l ChannelLayout) Channels() int {
	switch l {
	case Gray:
		return 1
	case Color:
		return 3
	default:
		return 0
	}
}

func (l ChannelLayout) String() string {
	switch l {
	case Gray:
		return "Gray"
	case Color:
		return "Color"
	default:
		return "Unknown"
	}
}

// Channel selects one byte within a pixel's channel group.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
	GrayChannel
)

// Index returns the byte offset of the channel inside a Color pixel.
// GrayChannel has no position in a Color pixel and reports false.
func (c Channel) Index() (int, bool) {
	switch c {
	case Red:
		return 0, true
	case Green:
		return 1, true
	case Blue:
		return 2, true
	default:
		return 0, false
	}
}

func (c Channel) String() string {
	switch c {
	case Red:
		return "Red"
	case Green:
		return "Green"
	case Blue:
		return "Blue"
	case GrayChannel:
		return "Gray"
	default:
		return "Unknown"
	}
}

// ParseChannel accepts r/g/b/gray and their long forms, case-insensitively.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "red":
		return Red, nil
	case "g", "green":
		return Green, nil
	case "b", "blue":
		return Blue, nil
	case "gray", "grey", "y":
		return GrayChannel, nil
	}
	return 0, &ConfigError{Op: "parse channel", Msg: fmt.Sprintf("unknown channel %q", s)}
}

// Preset identifies one of the built-in kernels.
type Preset int

const (
	PresetGaussian5 Preset = iota
	PresetOutline
	PresetSobelRight
	PresetSobelBottom
	PresetSharpen
)

var presetNames = map[Preset]string{
	PresetGaussian5:   "gaussian",
	PresetOutline:     "outline",
	PresetSobelRight:  "sobel-right",
	PresetSobelBottom: "sobel-bottom",
	PresetSharpen:     "sharpen",
}

// Presets lists every built-in kernel in a stable order.
var Presets = []Preset{PresetGaussian5, PresetOutline, PresetSobelRight, PresetSobelBottom, PresetSharpen}

func (p Preset) String() string {
	if name, ok := presetNames[p]; ok {
		return name
	}
	return "Unknown"
}

// ParsePreset maps a preset name (as printed by String) back to a Preset.
func ParsePreset(name string) (Preset, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range Presets {
		if presetNames[p] == name {
			return p, nil
		}
	}
	return 0, &ConfigError{Op: "parse preset", Msg: fmt.Sprintf("unknown kernel preset %q", name)}
}

// Kernel builds the preset. strength is only used by PresetSharpen.
func (p Preset) Kernel(strength float32) *Kernel {
	switch p {
	case PresetGaussian5:
		return GaussianKernel5()
	case PresetOutline:
		return OutlineKernel()
	case PresetSobelRight:
		return SobelRightKernel()
	case PresetSobelBottom:
		return SobelBottomKernel()
	case PresetSharpen:
		return SharpenKernel(strength)
	default:
		return nil
	}
}
