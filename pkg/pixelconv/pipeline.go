package pixelconv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// StepKind identifies what a pipeline Step does.
type StepKind int

const (
	StepGray StepKind = iota
	StepGrayRGB
	StepBinarize
	StepChannel
	StepInvert
	StepResize
	StepConvolve
)

// Step is one parsed pipeline stage. Only the fields relevant to Kind are set.
type Step struct {
	Kind      StepKind
	Name      string
	Threshold uint8
	Channel   Channel
	InColor   bool
	Width     int
	Height    int
	Kernel    *Kernel
}

func (s Step) String() string { return s.Name }

// Apply runs the step on buf. workers is only used by convolution steps.
func (s Step) Apply(ctx context.Context, buf *PixelBuffer, workers int) (*PixelBuffer, error) {
	switch s.Kind {
	case StepGray:
		return ToGray(buf)
	case StepGrayRGB:
		return ToGrayRGB(buf)
	case StepBinarize:
		return Binarize(buf, s.Threshold)
	case StepChannel:
		return ExtractChannel(buf, s.Channel, s.InColor)
	case StepInvert:
		return Invert(buf)
	case StepResize:
		return Resize(buf, s.Width, s.Height)
	case StepConvolve:
		return ApplyContext(ctx, buf, s.Kernel, workers)
	}
	return nil, &ConfigError{Op: "pipeline", Msg: fmt.Sprintf("unknown step kind %d", s.Kind)}
}

// ParseSteps parses a comma-separated step list such as
// "gray,gaussian,sharpen:1.5,binarize:128". A custom kernel is written as
// "kernel:N:w1,w2,..." and consumes the N*N comma-separated weights after it.
func ParseSteps(spec string) ([]Step, error) {
	tokens := strings.Split(spec, ",")
	steps := make([]Step, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := strings.TrimSpace(tokens[i])
		if tok == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(tok), "kernel:") {
			step, used, err := parseKernelStep(tok, tokens[i+1:])
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)
			i += used
			continue
		}
		step, err := ParseStep(tok)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	if len(steps) == 0 {
		return nil, &ConfigError{Op: "parse steps", Msg: "no steps given"}
	}
	return steps, nil
}

// ParseStep parses a single step token (anything but a custom kernel).
func ParseStep(tok string) (Step, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(tok), ":")
	name = strings.ToLower(name)
	step := Step{Name: strings.TrimSpace(tok)}
	noArg := func() error {
		if hasArg {
			return stepError(tok, "takes no argument")
		}
		return nil
	}

	switch name {
	case "gray", "grey":
		step.Kind = StepGray
		return step, noArg()
	case "grayrgb", "greyrgb":
		step.Kind = StepGrayRGB
		return step, noArg()
	case "invert":
		step.Kind = StepInvert
		return step, noArg()

	case "binarize", "threshold":
		if !hasArg {
			return step, stepError(tok, "missing threshold")
		}
		t, err := strconv.ParseUint(arg, 10, 8)
		if err != nil {
			return step, stepError(tok, "threshold must be 0..255")
		}
		step.Kind = StepBinarize
		step.Threshold = uint8(t)
		return step, nil

	case "channel":
		chName, mode, _ := strings.Cut(arg, ":")
		ch, err := ParseChannel(chName)
		if err != nil || ch == GrayChannel {
			return step, stepError(tok, "channel must be r, g or b")
		}
		switch strings.ToLower(mode) {
		case "":
		case "color", "colour":
			step.InColor = true
		default:
			return step, stepError(tok, fmt.Sprintf("unknown channel mode %q", mode))
		}
		step.Kind = StepChannel
		step.Channel = ch
		return step, nil

	case "resize":
		ws, hs, ok := strings.Cut(strings.ToLower(arg), "x")
		w, errW := strconv.Atoi(ws)
		h, errH := strconv.Atoi(hs)
		if !ok || errW != nil || errH != nil || w < 1 || h < 1 {
			return step, stepError(tok, "size must be WxH")
		}
		step.Kind = StepResize
		step.Width, step.Height = w, h
		return step, nil
	}

	preset, err := ParsePreset(name)
	if err != nil {
		return step, stepError(tok, "unknown step")
	}
	strength := float32(1)
	if hasArg {
		if preset != PresetSharpen {
			return step, stepError(tok, "only sharpen takes a strength")
		}
		f, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return step, stepError(tok, "strength must be a number")
		}
		strength = float32(f)
	}
	step.Kind = StepConvolve
	step.Kernel = preset.Kernel(strength)
	return step, nil
}

// parseKernelStep parses "kernel:N:w1" followed by the remaining N*N-1
// weights from rest. It reports how many tokens of rest it consumed.
func parseKernelStep(tok string, rest []string) (Step, int, error) {
	parts := strings.SplitN(tok, ":", 3)
	if len(parts) != 3 {
		return Step{}, 0, stepError(tok, "want kernel:N:w1,w2,...")
	}
	size, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || size < 1 || size%2 == 0 {
		return Step{}, 0, stepError(tok, "kernel size must be a positive odd integer")
	}
	if size > len(rest)+1 {
		return Step{}, 0, stepError(tok, fmt.Sprintf("want %dx%d weights, got %d", size, size, len(rest)+1))
	}
	n := size * size
	if len(rest) < n-1 {
		return Step{}, 0, stepError(tok, fmt.Sprintf("want %d weights, got %d", n, len(rest)+1))
	}

	raw := append([]string{parts[2]}, rest[:n-1]...)
	weights := make([]float32, n)
	for i, s := range raw {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
		if err != nil {
			return Step{}, 0, stepError(tok, fmt.Sprintf("weight %d: %q is not a number", i, s))
		}
		weights[i] = float32(f)
	}
	k, err := NewKernel(size, weights)
	if err != nil {
		return Step{}, 0, err
	}
	return Step{Kind: StepConvolve, Name: fmt.Sprintf("kernel%dx%d", size, size), Kernel: k}, n - 1, nil
}

func stepError(tok, msg string) error {
	return &ConfigError{Op: "parse steps", Msg: fmt.Sprintf("%q: %s", tok, msg)}
}

// PipelineParams configures Pipeline.Run.
type PipelineParams struct {
	// Workers bounds convolution parallelism; <= 0 means GOMAXPROCS.
	Workers int
	// SaveIntermediatePath, when it names an existing directory, receives a
	// snapshot of the buffer after every step.
	SaveIntermediatePath string
}

// NewPipelineParams creates a PipelineParams with default values.
func NewPipelineParams() *PipelineParams {
	return &PipelineParams{
		Workers: 0,
	}
}

// Pipeline applies Steps in order. Each step reads the previous output and
// produces a new buffer; the input buffer is never modified.
type Pipeline struct {
	Steps  []Step
	Params *PipelineParams
}

// NewPipeline builds a Pipeline; nil params means NewPipelineParams().
func NewPipeline(steps []Step, p *PipelineParams) *Pipeline {
	if p == nil {
		p = NewPipelineParams()
	}
	return &Pipeline{Steps: steps, Params: p}
}

// Run applies every step to buf and returns the final buffer. The first
// failing step aborts the run; no partial result is returned.
func (p *Pipeline) Run(ctx context.Context, buf *PixelBuffer) (*PixelBuffer, error) {
	if buf == nil {
		return nil, &StateError{Op: "pipeline", Want: "buffer", Got: "<nil>"}
	}
	log := Logger()
	maybeSaveSnapshot(buf, p.Params.SaveIntermediatePath, "00-source")

	cur := buf
	for i, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := step.Apply(ctx, cur, p.Params.Workers)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step, err)
		}
		log.Info("pipeline step", "index", i+1, "step", step.Name,
			"in", shapeString(cur), "out", shapeString(next), "elapsed", time.Since(start))
		cur = next
		maybeSaveSnapshot(cur, p.Params.SaveIntermediatePath, fmt.Sprintf("%02d-%s", i+1, fileSafe(step.Name)))
	}
	return cur, nil
}

func maybeSaveSnapshot(buf *PixelBuffer, savePath, name string) {
	if savePath == "" {
		return
	}
	if _, err := os.Stat(savePath); os.IsNotExist(err) {
		return
	}
	path := filepath.Join(savePath, name+SnapshotExt)
	if err := Save(path, buf); err != nil {
		Logger().Warn("saving intermediate snapshot", "path", path, "err", err)
	}
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, s)
}
