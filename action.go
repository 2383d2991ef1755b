package anybatch

import (
	"fmt"

	"github.com/unixpickle/anybatch/anydata"
)

// ActionKind identifies the computation a NetAction runs
// on each batch.
type ActionKind int

// These are the supported per-batch computations.
const (
	// Propagate runs a forward pass only.
	Propagate ActionKind = iota

	// BackpropFromLabels runs a backward pass using labels.
	// A forward pass for the same batch must have populated
	// the model's activations beforehand.
	BackpropFromLabels

	// LearnFromLabels runs a forward pass, a backward pass,
	// and a parameter update in one step.
	LearnFromLabels
)

// String returns a human-readable name for the kind.
func (a ActionKind) String() string {
	switch a {
	case Propagate:
		return "propagate"
	case BackpropFromLabels:
		return "backprop"
	case LearnFromLabels:
		return "learn"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(a))
	}
}

// A NetAction is the unit of work applied to each batch of
// a pass.
// LearningRate is ignored by Propagate.
type NetAction struct {
	Kind         ActionKind
	LearningRate float64
}

// PropagateAction creates a forward-only action.
func PropagateAction() NetAction {
	return NetAction{Kind: Propagate}
}

// BackpropAction creates a backprop-from-labels action.
func BackpropAction(rate float64) NetAction {
	return NetAction{Kind: BackpropFromLabels, LearningRate: rate}
}

// LearnAction creates a learn-from-labels action.
func LearnAction(rate float64) NetAction {
	return NetAction{Kind: LearnFromLabels, LearningRate: rate}
}

// Run applies the action to a batch.
// The training flag is only used by forward-only actions.
func (n NetAction) Run(m Trainable, b *anydata.Batch, training bool) error {
	switch n.Kind {
	case Propagate:
		return m.Propagate(b, training)
	case BackpropFromLabels:
		return m.BackpropFromLabels(n.LearningRate, b)
	case LearnFromLabels:
		return m.LearnFromLabels(n.LearningRate, b)
	default:
		panic(fmt.Sprintf("unknown action kind: %d", n.Kind))
	}
}

// String returns a description of the action.
func (n NetAction) String() string {
	if n.Kind == Propagate {
		return n.Kind.String()
	}
	return fmt.Sprintf("%s(rate=%g)", n.Kind, n.LearningRate)
}
