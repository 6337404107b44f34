package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gopkg.in/yaml.v3"

	bulkspline "github.com/tphakala/go-bulk-spline"
)

// ErrInvalidJob indicates a job file that cannot be baked.
var ErrInvalidJob = errors.New("invalid job")

// jobFile is the on-disk job description.
type jobFile struct {
	// TickRate is the number of frames per unit of curve input, and the
	// sample rate of the output WAV.
	TickRate int `yaml:"tick_rate"`

	// Duration is the length of the output in curve input units.
	Duration float64 `yaml:"duration"`

	Curves []curveSpec `yaml:"curves"`
}

type curveSpec struct {
	Name      string     `yaml:"name"`
	Keyframes keyframes  `yaml:"keyframes"`
	Fit       string     `yaml:"fit"`
	Range     [2]float64 `yaml:"range"`
	Modular   bool       `yaml:"modular"`
	Repeat    bool       `yaml:"repeat"`
	StartX    float64    `yaml:"start_x"`
}

type keyframes struct {
	X []float64 `yaml:"x"`
	Y []float64 `yaml:"y"`
}

// loadJob reads and validates a job file.
func loadJob(path string) (*jobFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	var job jobFile
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	if err := job.validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

func (j *jobFile) validate() error {
	if j.TickRate <= 0 {
		return fmt.Errorf("%w: tick_rate must be positive", ErrInvalidJob)
	}
	if !(j.Duration > 0) || math.IsInf(j.Duration, 0) {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidJob)
	}
	if len(j.Curves) == 0 {
		return fmt.Errorf("%w: no curves", ErrInvalidJob)
	}
	for i, c := range j.Curves {
		lo, hi := c.Range[0], c.Range[1]
		if !(lo < hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return fmt.Errorf("%w: curve %d (%s): range must be finite with low < high", ErrInvalidJob, i, c.Name)
		}
	}
	return nil
}

// frames returns the number of output frames.
func (j *jobFile) frames() int {
	return int(math.Round(j.Duration * float64(j.TickRate)))
}

// assignments builds one evaluator assignment per curve.
func (j *jobFile) assignments() ([]bulkspline.Assignment, error) {
	out := make([]bulkspline.Assignment, len(j.Curves))
	for i, c := range j.Curves {
		fit, err := bulkspline.ParseFit(c.Fit)
		if err != nil {
			return nil, fmt.Errorf("%w: curve %d (%s): %w", ErrInvalidJob, i, c.Name, err)
		}

		s, err := bulkspline.FromKeyframes(c.Keyframes.X, c.Keyframes.Y, fit)
		if err != nil {
			return nil, fmt.Errorf("%w: curve %d (%s): %w", ErrInvalidJob, i, c.Name, err)
		}

		out[i] = bulkspline.Assignment{
			Playback: bulkspline.Playback{Spline: s, StartX: c.StartX, Repeat: c.Repeat},
			YRange:   bulkspline.NewRange(c.Range[0], c.Range[1]),
			Modular:  c.Modular,
		}
	}
	return out, nil
}

// bakeStats summarizes one baked job.
type bakeStats struct {
	sampleRate   int
	channels     int
	bitDepth     int
	frames       int
	optimization string
}

// bakeJob renders one job file into a WAV file, one channel per curve.
func bakeJob(ctx context.Context, inputPath, outputPath string, opts *options) (stats *bakeStats, err error) {
	job, err := loadJob(inputPath)
	if err != nil {
		return nil, err
	}

	assignments, err := job.assignments()
	if err != nil {
		return nil, err
	}

	e, err := bulkspline.New(&bulkspline.Config{
		Optimization: opts.optimization,
		Verify:       opts.verify,
	})
	if err != nil {
		return nil, err
	}
	for i, a := range assignments {
		if _, err := e.Append(a); err != nil {
			return nil, fmt.Errorf("curve %d: %w", i, err)
		}
	}

	output, err := createWAVOutput(outputPath, job.TickRate, opts.bitDepth, len(assignments))
	if err != nil {
		return nil, err
	}
	// Close output, capturing close errors on success path (the WAV header is written on close)
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	frames := job.frames()
	deltaX := 1.0 / float64(job.TickRate)
	q := newQuantizer(assignments, opts.bitDepth)
	progress := newProgressTracker(int64(frames), opts.verbose)
	chunk := make([]int, 0, framesPerChunk*len(assignments))

	for done := 0; done < frames; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := min(framesPerChunk, frames-done)
		chunk = chunk[:0]
		for range n {
			e.AdvanceFrame(deltaX)
			chunk = q.appendFrame(chunk, e.Ys())
		}

		if err := output.WriteSamples(chunk); err != nil {
			return nil, fmt.Errorf("failed to write samples: %w", err)
		}
		done += n
		progress.reportIfNeeded(int64(done))
	}

	if opts.verbose {
		info := e.Info()
		isa := info.ISA
		if info.ISAOverridden {
			isa += " (BULKSPLINE_ISA)"
		}
		log.Printf("%s: %d slots, kernels %s, ISA %s, CPU %s",
			inputPath, info.NumIndices, info.Kernels, isa, info.SIMDType)
	}

	return &bakeStats{
		sampleRate:   job.TickRate,
		channels:     len(assignments),
		bitDepth:     opts.bitDepth,
		frames:       frames,
		optimization: e.Optimization().String(),
	}, nil
}

// quantizer maps samples from each slot's output range to PCM integers.
type quantizer struct {
	ranges []bulkspline.Range
	maxVal float64
}

func newQuantizer(assignments []bulkspline.Assignment, bitDepth int) *quantizer {
	ranges := make([]bulkspline.Range, len(assignments))
	for i, a := range assignments {
		ranges[i] = a.YRange
	}
	return &quantizer{ranges: ranges, maxVal: getMaxValue(bitDepth)}
}

// appendFrame appends one interleaved frame: the low end of each range
// maps to -full scale and the high end to +full scale.
func (q *quantizer) appendFrame(dst []int, ys []float64) []int {
	for i, y := range ys {
		dst = append(dst, quantize(y, q.ranges[i], q.maxVal))
	}
	return dst
}

func quantize(y float64, r bulkspline.Range, maxVal float64) int {
	v := r.Percent(y)*2 - 1
	v = max(-1, min(1, v))
	return int(math.Round(v * maxVal))
}

// getMaxValue returns the maximum sample value for the given bit depth.
func getMaxValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return maxInt16
	}
}

// wavOutputWriter wraps the output file and its encoder.
type wavOutputWriter struct {
	file    *os.File
	encoder *wav.Encoder
	format  *audio.Format
	bits    int
}

// createWAVOutput creates the output file and an encoder for it.
func createWAVOutput(path string, sampleRate, bitDepth, channels int) (*wavOutputWriter, error) {
	outputFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &wavOutputWriter{
		file:    outputFile,
		encoder: wav.NewEncoder(outputFile, sampleRate, bitDepth, channels, wavFormatPCM),
		format:  &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		bits:    bitDepth,
	}, nil
}

// WriteSamples writes interleaved samples to the output file.
func (w *wavOutputWriter) WriteSamples(samples []int) error {
	return w.encoder.Write(&audio.IntBuffer{
		Format:         w.format,
		Data:           samples,
		SourceBitDepth: w.bits,
	})
}

// Close finalizes the WAV header and closes the file.
func (w *wavOutputWriter) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// wavInfo describes a baked WAV file.
type wavInfo struct {
	sampleRate int
	channels   int
	bitDepth   int
	data       []int
}

// readWAV decodes a whole WAV file.
func readWAV(path string) (*wavInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}
	defer func() { _ = f.Close() }()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV file: %w", err)
	}

	return &wavInfo{
		sampleRate: int(decoder.SampleRate),
		channels:   int(decoder.NumChans),
		bitDepth:   int(decoder.BitDepth),
		data:       buf.Data,
	}, nil
}

// progressTracker handles progress reporting.
type progressTracker struct {
	totalFrames  int64
	lastProgress int
	verbose      bool
}

// newProgressTracker creates a new progress tracker.
func newProgressTracker(totalFrames int64, verbose bool) *progressTracker {
	return &progressTracker{
		totalFrames: totalFrames,
		verbose:     verbose,
	}
}

// reportIfNeeded reports progress if threshold crossed.
func (p *progressTracker) reportIfNeeded(currentFrames int64) {
	if !p.verbose || p.totalFrames == 0 {
		return
	}

	progress := int(float64(currentFrames) / float64(p.totalFrames) * percentScale)
	if progress >= p.lastProgress+progressInterval {
		log.Printf("Progress: %d%%", progress)
		p.lastProgress = progress
	}
}
