package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sys/cpu"

	pc "pixelconv/pkg/pixelconv"
)

const usage = `usage: pixelconv [flags] <input-file>
       pixelconv -tasks <file.json|-> [flags]
       pixelconv -print-kernel <preset>

Steps are comma separated and applied in order:
  gray | grayrgb | invert | binarize:T | channel:r|g|b[:color] | resize:WxH
  gaussian | outline | sobel-right | sobel-bottom | sharpen[:strength]
  kernel:N:w1,w2,...,wN*N

Flags:
`

// imageTask is one line of a -tasks file.
type imageTask struct {
	InPath  string   `json:"inPath"`
	OutPath string   `json:"outPath"`
	Steps   []string `json:"steps"`
}

type options struct {
	output      string
	steps       string
	workers     int
	saveDir     string
	chartPath   string
	chartCell   int
	printKernel string
	tasksPath   string
	stats       bool
	verbose     bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts := options{}
	fs := flag.NewFlagSet("pixelconv", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.output, "o", "", "output file (format from extension; default <input>-out.png)")
	fs.StringVar(&opts.steps, "steps", "gaussian", "comma separated pipeline steps")
	fs.IntVar(&opts.workers, "workers", 0, "convolution workers (0 = GOMAXPROCS)")
	fs.StringVar(&opts.saveDir, "save-intermediate", "", "existing directory for per-step .pxz snapshots")
	fs.StringVar(&opts.chartPath, "kernel-chart", "", "write a PNG chart of the last convolution kernel")
	fs.IntVar(&opts.chartCell, "chart-cell", 48, "kernel chart cell size in pixels")
	fs.StringVar(&opts.printKernel, "print-kernel", "", "print a preset kernel and exit")
	fs.StringVar(&opts.tasksPath, "tasks", "", "JSON task stream ({inPath,outPath,steps} per object), - for stdin")
	fs.BoolVar(&opts.stats, "stats", true, "print per-channel statistics of the result")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	pc.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	logCPUFeatures()

	switch {
	case opts.printKernel != "":
		return printKernel(os.Stdout, opts.printKernel)
	case opts.tasksPath != "":
		return runTasks(opts)
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one input file, got %d", fs.NArg())
	}
	inputFilePath := fs.Arg(0)
	outputFilePath := opts.output
	if outputFilePath == "" {
		outputFilePath = defaultOutputPath(inputFilePath)
	}
	steps, err := pc.ParseSteps(opts.steps)
	if err != nil {
		return err
	}
	return processImage(opts, inputFilePath, outputFilePath, steps)
}

func processImage(opts options, inputFilePath, outputFilePath string, steps []pc.Step) error {
	fmt.Printf("Loading: %s\n", inputFilePath)
	src, err := loadImage(inputFilePath)
	if err != nil {
		return err
	}

	params := pc.NewPipelineParams()
	params.Workers = opts.workers
	params.SaveIntermediatePath = opts.saveDir

	startTime := time.Now()
	result, err := pc.NewPipeline(steps, params).Run(context.Background(), src)
	if err != nil {
		return err
	}
	elapsed := time.Since(startTime)

	if err := saveImage(outputFilePath, result); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("=== Pipeline Results (%.3fs) ===\n", elapsed.Seconds())
	fmt.Printf("  Input:   %s\n", src)
	fmt.Printf("  Steps:   %s\n", joinSteps(steps))
	fmt.Printf("  Output:  %s -> %s\n", result, outputFilePath)
	if opts.stats {
		stats, err := pc.Stats(result)
		if err != nil {
			return err
		}
		for _, s := range stats {
			fmt.Printf("  %-6s min=%3d max=%3d mean=%7.2f median=%3.0f stddev=%6.2f\n",
				s.Channel, s.Min, s.Max, s.Mean, s.Median, s.StdDev)
		}
	}
	fmt.Println("==============================")

	if opts.chartPath != "" {
		k := lastKernel(steps)
		if k == nil {
			return fmt.Errorf("-kernel-chart: no convolution step in %q", joinSteps(steps))
		}
		png, err := pc.RenderKernelChartPNG(k, opts.chartCell)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.chartPath, png, 0644); err != nil {
			return fmt.Errorf("writing kernel chart: %w", err)
		}
		fmt.Printf("Kernel chart: %s\n", opts.chartPath)
	}
	return nil
}

// runTasks processes a stream of JSON task objects, one pipeline per task.
func runTasks(opts options) error {
	var r io.Reader = os.Stdin
	if opts.tasksPath != "-" {
		f, err := os.Open(opts.tasksPath)
		if err != nil {
			return fmt.Errorf("opening tasks: %w", err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	for n := 1; ; n++ {
		var t imageTask
		if err := dec.Decode(&t); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("task %d: %w", n, err)
		}
		if t.InPath == "" {
			return fmt.Errorf("task %d: missing inPath", n)
		}
		if t.OutPath == "" {
			t.OutPath = defaultOutputPath(t.InPath)
		}
		steps, err := pc.ParseSteps(strings.Join(t.Steps, ","))
		if err != nil {
			return fmt.Errorf("task %d: %w", n, err)
		}
		if err := processImage(opts, t.InPath, t.OutPath, steps); err != nil {
			return fmt.Errorf("task %d (%s): %w", n, t.InPath, err)
		}
	}
}

func printKernel(w io.Writer, name string) error {
	preset, err := pc.ParsePreset(name)
	if err != nil {
		return err
	}
	k := preset.Kernel(1)
	fmt.Fprintf(w, "%s (%dx%d, sum %.4g)\n", preset, k.Size(), k.Size(), k.Sum())
	if err := k.Format(w); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

func logCPUFeatures() {
	log := pc.Logger()
	switch runtime.GOARCH {
	case "amd64", "386":
		log.Debug("cpu features", "arch", runtime.GOARCH, "procs", runtime.GOMAXPROCS(0),
			"sse41", cpu.X86.HasSSE41, "avx2", cpu.X86.HasAVX2, "fma", cpu.X86.HasFMA, "avx512f", cpu.X86.HasAVX512F)
	case "arm64":
		log.Debug("cpu features", "arch", runtime.GOARCH, "procs", runtime.GOMAXPROCS(0),
			"asimd", cpu.ARM64.HasASIMD, "sve", cpu.ARM64.HasSVE)
	default:
		log.Debug("cpu features", "arch", runtime.GOARCH, "procs", runtime.GOMAXPROCS(0))
	}
}

func defaultOutputPath(in string) string {
	base := in
	if i := strings.LastIndexByte(in, '.'); i > strings.LastIndexAny(in, `/\`) {
		base = in[:i]
	}
	return base + "-out.png"
}

func lastKernel(steps []pc.Step) *pc.Kernel {
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].Kind == pc.StepConvolve {
			return steps[i].Kernel
		}
	}
	return nil
}

func joinSteps(steps []pc.Step) string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return strings.Join(names, ",")
}
