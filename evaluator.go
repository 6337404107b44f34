package bulkspline

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/tphakala/go-bulk-spline/internal/engine"
	"github.com/tphakala/go-bulk-spline/internal/kernels"
	"github.com/tphakala/go-bulk-spline/internal/spline"
)

// Config holds evaluator configuration.
type Config struct {
	// NumIndices is the initial number of slots. Slots can be added later
	// with Append or SetNumIndices.
	NumIndices int

	// Optimization selects the hot-loop implementation.
	// OptimizationAuto picks the vector path when the CPU has SIMD support.
	Optimization Optimization

	// Verify runs the scalar and vector implementations side by side on
	// every frame and panics if they disagree in any bit.
	// For development and testing only: it roughly triples the cost of a frame.
	Verify bool

	// Logger receives debug records about mode selection and an error
	// record before a verification failure. Nil disables logging.
	Logger *slog.Logger
}

// Assignment is everything an owner sets when it starts a curve on a slot.
type Assignment struct {
	// Playback selects the curve, where to start and whether to loop.
	Playback

	// YRange is the interval samples are projected into.
	YRange Range

	// Modular makes YRange wrap (angles, phases) instead of clamping.
	Modular bool
}

// Common errors returned by the evaluator.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid evaluator configuration")

	// ErrIndexOutOfRange indicates a slot index outside [0, NumIndices).
	ErrIndexOutOfRange = errors.New("slot index out of range")

	// ErrInvalidRange indicates an output range that cannot be clamped
	// to or wrapped around.
	ErrInvalidRange = errors.New("invalid output range")

	// ErrInvalidPlayback indicates a playback start position that is not a number.
	ErrInvalidPlayback = errors.New("invalid playback")

	// ErrNilSpline indicates an assignment without a curve.
	ErrNilSpline = errors.New("spline is nil")
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.NumIndices < 0 {
		return fmt.Errorf("%w: num indices must not be negative", ErrInvalidConfig)
	}

	if c.NumIndices > maxIndices {
		return fmt.Errorf("%w: too many indices (max %d)", ErrInvalidConfig, maxIndices)
	}

	switch c.Optimization {
	case OptimizationAuto, OptimizationScalar, OptimizationVector:
	default:
		return fmt.Errorf("%w: unknown optimization %v", ErrInvalidConfig, c.Optimization)
	}

	return nil
}

// Evaluator is a BulkEvaluator with checked slot management on top.
// All of the engine's operations (AdvanceFrame, SetSpline, Y, X, ...) are
// available directly; Assign, Append and Remove validate their input and
// return errors instead of relying on the caller.
//
// An Evaluator is not safe for concurrent use.
type Evaluator struct {
	*engine.BulkEvaluator
}

// New creates an evaluator with config.NumIndices empty slots.
func New(config *Config) (*Evaluator, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := engine.NewBulkEvaluator(engine.Options{
		Optimization: config.Optimization,
		Verify:       config.Verify,
		Logger:       config.Logger,
	})
	e.SetNumIndices(config.NumIndices)

	return &Evaluator{BulkEvaluator: e}, nil
}

// Assign sets the output range of a slot and starts playback on it.
// The range is applied first so the initial sample is already in range.
func (e *Evaluator) Assign(index int, a Assignment) error {
	if index < 0 || index >= e.NumIndices() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, e.NumIndices())
	}

	if err := checkAssignment(a); err != nil {
		return err
	}

	e.SetYRange(index, a.YRange, a.Modular)
	e.SetSpline(index, a.Playback)
	return nil
}

// Append adds a slot at the end, assigns it and returns its index.
func (e *Evaluator) Append(a Assignment) (int, error) {
	if err := checkAssignment(a); err != nil {
		return -1, err
	}

	index := e.NumIndices()
	if index >= maxIndices {
		return -1, fmt.Errorf("%w: evaluator is full (max %d)", ErrIndexOutOfRange, maxIndices)
	}

	e.SetNumIndices(index + 1)
	e.SetYRange(index, a.YRange, a.Modular)
	e.SetSpline(index, a.Playback)
	return index, nil
}

// Remove deletes a slot and keeps the remaining slots dense by moving the
// last slot into the hole. It returns the old index of the slot that now
// lives at index, or -1 when index was the last slot and nothing moved.
// Owners holding slot indices must update the moved one.
func (e *Evaluator) Remove(index int) (moved int, err error) {
	n := e.NumIndices()
	if index < 0 || index >= n {
		return -1, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, n)
	}

	last := n - 1
	moved = -1
	if index != last {
		e.MoveIndex(last, index)
		moved = last
	}
	e.SetNumIndices(last)
	return moved, nil
}

func checkAssignment(a Assignment) error {
	if a.Spline == nil {
		return ErrNilSpline
	}
	if s, ok := a.Spline.(*spline.Spline); ok && s == nil {
		return ErrNilSpline
	}

	if math.IsNaN(a.StartX) {
		return fmt.Errorf("%w: start x is NaN", ErrInvalidPlayback)
	}

	if !a.YRange.Valid() {
		return fmt.Errorf("%w: %v has start after end", ErrInvalidRange, a.YRange)
	}

	if a.Modular {
		length := a.YRange.Length()
		if length <= 0 || math.IsInf(length, 0) {
			return fmt.Errorf("%w: modular range %v must have a finite positive length", ErrInvalidRange, a.YRange)
		}
	}

	return nil
}

// Info describes the evaluator configuration in use.
type Info struct {
	// Optimization is the resolved hot-loop mode.
	Optimization string

	// Kernels names the kernel table that runs the hot loops.
	Kernels string

	// ISA is the instruction set the kernels were selected for.
	ISA string

	// ISAOverridden indicates BULKSPLINE_ISA chose the ISA.
	ISAOverridden bool

	// NumIndices is the number of slots.
	NumIndices int

	// Active is the number of slots playing a curve.
	Active int

	// MemoryUsage is the approximate size of the slot arrays in bytes.
	MemoryUsage int64

	// SIMDEnabled indicates the vector path is in use.
	SIMDEnabled bool

	// SIMDType describes the SIMD features of the CPU.
	SIMDType string

	// Verify indicates cross-checking is enabled.
	Verify bool
}

// Info returns information about the evaluator.
func (e *Evaluator) Info() Info {
	n := e.NumIndices()
	active := 0
	for i := range n {
		if e.Valid(i) {
			active++
		}
	}

	mode := e.Optimization()
	isa := kernels.Generic
	if mode == OptimizationVector {
		isa = kernels.Detected()
	}

	return Info{
		Optimization:  mode.String(),
		Kernels:       e.KernelName(),
		ISA:           isa.String(),
		ISAOverridden: kernels.Overridden(),
		NumIndices:    n,
		Active:        active,
		MemoryUsage:   int64(n) * bytesPerSlot,
		SIMDEnabled:   mode == OptimizationVector,
		SIMDType:      kernels.SIMDInfo(),
		Verify:        e.Verifying(),
	}
}
