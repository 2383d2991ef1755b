// Package anybatch drives layered numeric models through
// repeated batched passes over a dataset.
//
// A BatchLearner runs a single pass, one batch at a time,
// applying a NetAction to each batch and accumulating loss
// and accuracy.
// A NetLearner runs a multi-epoch schedule on top of a
// BatchLearner, evaluating on a test set after every
// epoch.
//
// The engine knows nothing about layers or parameters; it
// drives anything implementing Trainable.
package anybatch

import "github.com/unixpickle/anybatch/anydata"

// A Trainable is a model that can be driven by the engine.
//
// Every call receives the batch it applies to, so the
// batch size is always the size of that batch.
// Loss and accuracy queries refer to the activations left
// by the most recent forward pass, which must have been
// run on the same batch.
type Trainable interface {
	// InputSize returns the number of values per example
	// input.
	InputSize() int

	// OutputSize returns the number of values per example
	// output.
	OutputSize() int

	// Propagate runs a forward pass.
	// The training flag selects training or inference
	// behavior for layers that distinguish the two.
	Propagate(b *anydata.Batch, training bool) error

	// BackpropFromLabels runs a backward pass and applies a
	// parameter update, assuming Propagate was already
	// called for b.
	BackpropFromLabels(rate float64, b *anydata.Batch) error

	// LearnFromLabels runs a forward pass, a backward pass,
	// and a parameter update for a labeled batch.
	LearnFromLabels(rate float64, b *anydata.Batch) error

	// LearnFromExpected is like LearnFromLabels, but uses
	// the batch's continuous targets.
	LearnFromExpected(rate float64, b *anydata.Batch) error

	// LossFromLabels returns the total loss of the batch.
	LossFromLabels(b *anydata.Batch) (float64, error)

	// LossFromExpected returns the total loss of the batch
	// against its continuous targets.
	LossFromExpected(b *anydata.Batch) (float64, error)

	// NumRight returns the number of correctly classified
	// examples in the batch.
	NumRight(b *anydata.Batch) (int, error)
}

// An EpochResult is the aggregate of one pass.
type EpochResult struct {
	Loss     float64
	NumRight int
}
