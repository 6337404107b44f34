// Command bake-wav renders spline playback into WAV control signals.
//
// Each job file describes a set of curves (keyframes, fitting method, output
// range, looping) and a tick rate. Every curve becomes one channel of the
// output WAV, with one sample per tick, scaled from its output range to full
// scale PCM.
//
// Usage:
//
//	bake-wav job.yaml out.wav
//	bake-wav -bits 24 -mode scalar job.json out.wav
//	bake-wav -jobs 4 a.yaml a.wav b.yaml b.wav c.yaml c.wav
//
// Job files are YAML; JSON job files are accepted as well.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"

	"golang.org/x/sync/errgroup"

	bulkspline "github.com/tphakala/go-bulk-spline"
)

const (
	// Frames rendered per evaluator batch before they are written out
	framesPerChunk = 4096

	// Sample format constants
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	// Full scale values for each sample format
	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	// WAV audio format tag for integer PCM
	wavFormatPCM = 1

	// Progress reporting
	progressInterval = 10 // Print progress every N%
	percentScale     = 100

	// CLI
	argsPerJob = 2
)

// ErrUsage indicates malformed command-line arguments.
var ErrUsage = errors.New("usage error")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// options holds the parsed command line.
type options struct {
	bitDepth     int
	optimization bulkspline.Optimization
	verify       bool
	jobs         int
	verbose      bool
	cpuprofile   string
	pairs        []jobPaths
}

type jobPaths struct {
	input  string
	output string
}

func parseOptions(args []string) (*options, error) {
	fs := flag.NewFlagSet("bake-wav", flag.ContinueOnError)
	bits := fs.Int("bits", bitsPerSample16, "Output bit depth: 16, 24 or 32")
	mode := fs.String("mode", "auto", "Evaluator optimization: auto, scalar, vector")
	verify := fs.Bool("verify", false, "Cross-check scalar and vector paths every frame (slow)")
	jobs := fs.Int("jobs", runtime.GOMAXPROCS(0), "Maximum number of jobs baked concurrently")
	verbose := fs.Bool("v", false, "Verbose output")
	cpuprofile := fs.String("cpuprofile", "", "Write CPU profile to file")
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: bake-wav [options] job.yaml output.wav [job2.yaml output2.wav ...]\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  bake-wav job.yaml out.wav                # 16-bit, auto mode\n")
		fmt.Fprintf(out, "  bake-wav -bits 24 -verify job.yaml out.wav\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	rest := fs.Args()
	if len(rest) == 0 || len(rest)%argsPerJob != 0 {
		fs.Usage()
		return nil, fmt.Errorf("%w: expected job/output pairs, got %d arguments", ErrUsage, len(rest))
	}

	switch *bits {
	case bitsPerSample16, bitsPerSample24, bitsPerSample32:
	default:
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrUsage, *bits)
	}

	optimization, err := bulkspline.ParseOptimization(*mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	if *jobs < 1 {
		return nil, fmt.Errorf("%w: -jobs must be at least 1", ErrUsage)
	}

	opts := &options{
		bitDepth:     *bits,
		optimization: optimization,
		verify:       *verify,
		jobs:         *jobs,
		verbose:      *verbose,
		cpuprofile:   *cpuprofile,
	}
	for i := 0; i < len(rest); i += argsPerJob {
		opts.pairs = append(opts.pairs, jobPaths{input: rest[i], output: rest[i+1]})
	}
	return opts, nil
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	if opts.cpuprofile != "" {
		f, err := os.Create(opts.cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	if opts.verbose {
		log.Printf("Jobs: %d (max %d concurrent)", len(opts.pairs), opts.jobs)
		log.Printf("Bit depth: %d", opts.bitDepth)
		log.Printf("Optimization: %s", opts.optimization)
		if opts.verify {
			log.Printf("Verify: enabled (scalar and vector paths cross-checked)")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	stats, err := bakeAll(ctx, opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	for i, s := range stats {
		p := opts.pairs[i]
		fmt.Fprintf(stdout, "Baked %s -> %s\n", filepath.Base(p.input), filepath.Base(p.output))
		fmt.Fprintf(stdout, "  %d curves, %d frames at %d Hz (%d-bit, %s)\n",
			s.channels, s.frames, s.sampleRate, s.bitDepth, s.optimization)

		if opts.verbose {
			w, err := readWAV(p.output)
			if err != nil {
				return err
			}
			log.Printf("%s: %d Hz, %d channels, %d-bit, %d samples",
				p.output, w.sampleRate, w.channels, w.bitDepth, len(w.data))
		}
	}
	fmt.Fprintf(stdout, "Total: %.2fs\n", elapsed.Seconds())

	return nil
}

// bakeAll bakes every job pair, at most opts.jobs at a time. Each job owns
// its own evaluator. The first failure cancels the jobs still running.
func bakeAll(ctx context.Context, opts *options) ([]*bakeStats, error) {
	stats := make([]*bakeStats, len(opts.pairs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs)
	for i, p := range opts.pairs {
		g.Go(func() error {
			s, err := bakeJob(ctx, p.input, p.output, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", p.input, err)
			}
			stats[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
