// Package anydata provides non-owning views of datasets
// stored in flat, contiguous buffers.
//
// A dataset of N examples stores its inputs as a single
// slice of N*InputSize values, and its supervision either
// as N integer labels or as N*OutputSize target values.
// Views never copy these buffers; callers must not mutate
// them while a pass is running.
package anydata

import (
	"errors"
	"fmt"
)

// ErrBadRange is returned when a batch window does not
// fit within its dataset.
var ErrBadRange = errors.New("batch range out of bounds")

// A Batch is a window [Start, Start+Size) into a dataset.
//
// Exactly one of Labels and Expected is set, depending on
// whether the batch came from a Labeled or a Targeted
// dataset.
type Batch struct {
	Start int
	Size  int

	// Inputs holds Size*inputSize values.
	Inputs []float64

	// Labels holds Size class indices, or nil.
	Labels []int

	// Expected holds Size*outputSize target values, or nil.
	Expected []float64
}

// Labeled is a dataset supervised by class indices.
type Labeled struct {
	InputSize int
	Inputs    []float64
	Labels    []int
}

// Len returns the number of examples.
func (l *Labeled) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Labels)
}

// Validate checks that the buffers agree with each other
// and, if inputSize is non-zero, with the model's input
// size.
func (l *Labeled) Validate(inputSize int) error {
	if l == nil {
		return errors.New("validate labeled data: nil dataset")
	}
	if l.InputSize <= 0 {
		return fmt.Errorf("validate labeled data: input size must be > 0 (got %d)",
			l.InputSize)
	}
	if inputSize != 0 && inputSize != l.InputSize {
		return fmt.Errorf("validate labeled data: input size %d does not match model (%d)",
			l.InputSize, inputSize)
	}
	if len(l.Inputs) != len(l.Labels)*l.InputSize {
		return fmt.Errorf("validate labeled data: %d inputs for %d labels of size %d",
			len(l.Inputs), len(l.Labels), l.InputSize)
	}
	return nil
}

// Slice returns the batch for examples [start, end).
func (l *Labeled) Slice(start, end int) (*Batch, error) {
	if start < 0 || end < start || end > l.Len() {
		return nil, ErrBadRange
	}
	return &Batch{
		Start:  start,
		Size:   end - start,
		Inputs: l.Inputs[start*l.InputSize : end*l.InputSize],
		Labels: l.Labels[start:end],
	}, nil
}

// Targeted is a dataset supervised by continuous target
// vectors.
type Targeted struct {
	InputSize  int
	OutputSize int
	Inputs     []float64
	Expected   []float64
}

// Len returns the number of examples.
func (t *Targeted) Len() int {
	if t == nil || t.InputSize <= 0 {
		return 0
	}
	return len(t.Inputs) / t.InputSize
}

// Validate checks that the buffers agree with each other
// and, if the sizes are non-zero, with the model.
func (t *Targeted) Validate(inputSize, outputSize int) error {
	if t == nil {
		return errors.New("validate targeted data: nil dataset")
	}
	if t.InputSize <= 0 || t.OutputSize <= 0 {
		return fmt.Errorf("validate targeted data: sizes must be > 0 (got %d, %d)",
			t.InputSize, t.OutputSize)
	}
	if inputSize != 0 && inputSize != t.InputSize {
		return fmt.Errorf("validate targeted data: input size %d does not match model (%d)",
			t.InputSize, inputSize)
	}
	if outputSize != 0 && outputSize != t.OutputSize {
		return fmt.Errorf("validate targeted data: output size %d does not match model (%d)",
			t.OutputSize, outputSize)
	}
	if len(t.Inputs)%t.InputSize != 0 {
		return fmt.Errorf("validate targeted data: %d inputs is not a multiple of %d",
			len(t.Inputs), t.InputSize)
	}
	if len(t.Expected) != t.Len()*t.OutputSize {
		return fmt.Errorf("validate targeted data: %d targets for %d examples of size %d",
			len(t.Expected), t.Len(), t.OutputSize)
	}
	return nil
}

// Slice returns the batch for examples [start, end).
func (t *Targeted) Slice(start, end int) (*Batch, error) {
	if start < 0 || end < start || end > t.Len() {
		return nil, ErrBadRange
	}
	return &Batch{
		Start:    start,
		Size:     end - start,
		Inputs:   t.Inputs[start*t.InputSize : end*t.InputSize],
		Expected: t.Expected[start*t.OutputSize : end*t.OutputSize],
	}, nil
}

// NumBatches returns ceil(n / batchSize).
func NumBatches(n, batchSize int) int {
	return (n + batchSize - 1) / batchSize
}
