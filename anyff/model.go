// Package anyff adapts feed-forward anynet networks to the
// anybatch.Trainable interface.
package anyff

import (
	"errors"
	"fmt"

	"github.com/unixpickle/anybatch/anydata"
	"github.com/unixpickle/anybatch/anytimer"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/anyvec"
)

// ErrNoForward is returned when a backward pass or a loss
// query has no matching forward pass.
var ErrNoForward = errors.New("no forward pass for batch")

// A Model is a feed-forward network with a cost function.
//
// Labels are turned into one-hot target vectors, so the
// network should produce one output per class; with
// anynet.DotCost, the last layer should be a LogSoftmax.
type Model struct {
	Creator anyvec.Creator
	Net     anynet.Layer
	Cost    anynet.Cost
	Params  []*anydiff.Var

	InSize  int
	OutSize int

	// Transformer, if non-nil, transforms each gradient
	// before the step.
	Transformer anysgd.Transformer

	// Timings, if non-nil, records the time spent in
	// forward and backward passes.
	Timings *anytimer.StatefulTimer

	lastOut    anydiff.Res
	lastStart  int
	lastSize   int
	lastInputs *float64
}

// NewModel creates a Model.
// If net is an anynet.Parameterizer, its parameters are
// trained.
func NewModel(c anyvec.Creator, net anynet.Layer, cost anynet.Cost,
	inSize, outSize int) *Model {
	res := &Model{
		Creator: c,
		Net:     net,
		Cost:    cost,
		InSize:  inSize,
		OutSize: outSize,
	}
	if p, ok := net.(anynet.Parameterizer); ok {
		res.Params = p.Parameters()
	}
	return res
}

// InputSize returns m.InSize.
func (m *Model) InputSize() int {
	return m.InSize
}

// OutputSize returns m.OutSize.
func (m *Model) OutputSize() int {
	return m.OutSize
}

// Propagate applies the network to the batch.
//
// In training mode, dropout layers are enabled.
func (m *Model) Propagate(b *anydata.Batch, training bool) error {
	if len(b.Inputs) != b.Size*m.InSize {
		return fmt.Errorf("propagate: expected %d inputs but got %d", b.Size*m.InSize,
			len(b.Inputs))
	}
	if m.Timings != nil {
		defer m.Timings.Time("anyff.propagate")()
	}
	m.setTraining(training)
	m.lastOut = nil
	if b.Size == 0 {
		return nil
	}
	in := anydiff.NewConst(m.vector(b.Inputs))
	out := m.Net.Apply(in, b.Size)
	if out.Output().Len() != b.Size*m.OutSize {
		return fmt.Errorf("propagate: expected %d outputs but got %d", b.Size*m.OutSize,
			out.Output().Len())
	}
	m.lastOut = out
	m.lastStart = b.Start
	m.lastSize = b.Size
	m.lastInputs = firstInput(b)
	return nil
}

// BackpropFromLabels updates the parameters using the
// output of the last forward pass, which must have been
// for b.
func (m *Model) BackpropFromLabels(rate float64, b *anydata.Batch) error {
	desired, err := m.oneHot(b)
	if err != nil {
		return err
	}
	return m.step(rate, b, desired)
}

// LearnFromLabels runs a training-mode forward pass and
// then a backward pass with an update.
func (m *Model) LearnFromLabels(rate float64, b *anydata.Batch) error {
	if err := m.Propagate(b, true); err != nil {
		return err
	}
	return m.BackpropFromLabels(rate, b)
}

// LearnFromExpected is like LearnFromLabels, but uses the
// batch's target vectors.
func (m *Model) LearnFromExpected(rate float64, b *anydata.Batch) error {
	if err := m.Propagate(b, true); err != nil {
		return err
	}
	desired, err := m.targets(b)
	if err != nil {
		return err
	}
	return m.step(rate, b, desired)
}

// LossFromLabels computes the total cost of the last
// forward pass against the batch's labels.
func (m *Model) LossFromLabels(b *anydata.Batch) (float64, error) {
	desired, err := m.oneHot(b)
	if err != nil {
		return 0, err
	}
	return m.loss(b, desired)
}

// LossFromExpected computes the total cost of the last
// forward pass against the batch's targets.
func (m *Model) LossFromExpected(b *anydata.Batch) (float64, error) {
	desired, err := m.targets(b)
	if err != nil {
		return 0, err
	}
	return m.loss(b, desired)
}

// NumRight counts the examples whose largest output
// matches the label.
func (m *Model) NumRight(b *anydata.Batch) (int, error) {
	if b.Size == 0 {
		return 0, nil
	}
	if !m.hasForward(b) {
		return 0, ErrNoForward
	}
	outs := m.lastOut.Output()
	var numRight int
	for i, label := range b.Labels {
		if anyvec.MaxIndex(outs.Slice(i*m.OutSize, (i+1)*m.OutSize)) == label {
			numRight++
		}
	}
	return numRight, nil
}

func (m *Model) step(rate float64, b *anydata.Batch, desired anydiff.Res) error {
	if b.Size == 0 {
		return nil
	}
	if !m.hasForward(b) {
		return ErrNoForward
	}
	if m.Timings != nil {
		defer m.Timings.Time("anyff.backprop")()
	}
	cost := anydiff.Sum(m.Cost.Cost(desired, m.lastOut, b.Size))

	// Average the cost so the step size does not depend
	// on the batch size.
	upstream := m.vector([]float64{1 / float64(b.Size)})
	grad := anydiff.NewGrad(m.Params...)
	cost.Propagate(upstream, grad)

	if m.Transformer != nil {
		grad = m.Transformer.Transform(grad)
	}
	grad.Scale(m.Creator.MakeNumeric(-rate))
	grad.AddToVars()
	return nil
}

func (m *Model) loss(b *anydata.Batch, desired anydiff.Res) (float64, error) {
	if b.Size == 0 {
		return 0, nil
	}
	if !m.hasForward(b) {
		return 0, ErrNoForward
	}
	cost := m.Cost.Cost(desired, m.lastOut, b.Size)
	var sum float64
	for _, x := range floatData(cost.Output()) {
		sum += x
	}
	return sum, nil
}

func (m *Model) oneHot(b *anydata.Batch) (anydiff.Res, error) {
	if len(b.Labels) != b.Size {
		return nil, fmt.Errorf("expected %d labels but got %d", b.Size, len(b.Labels))
	}
	data := make([]float64, b.Size*m.OutSize)
	for i, label := range b.Labels {
		if label < 0 || label >= m.OutSize {
			return nil, fmt.Errorf("label %d out of range [0, %d)", label, m.OutSize)
		}
		data[i*m.OutSize+label] = 1
	}
	return anydiff.NewConst(m.vector(data)), nil
}

func (m *Model) targets(b *anydata.Batch) (anydiff.Res, error) {
	if len(b.Expected) != b.Size*m.OutSize {
		return nil, fmt.Errorf("expected %d targets but got %d", b.Size*m.OutSize,
			len(b.Expected))
	}
	return anydiff.NewConst(m.vector(b.Expected)), nil
}

// hasForward checks that the last forward pass saw the
// same window of the same input buffer.
func (m *Model) hasForward(b *anydata.Batch) bool {
	return m.lastOut != nil && m.lastStart == b.Start && m.lastSize == b.Size &&
		m.lastInputs == firstInput(b)
}

func (m *Model) vector(data []float64) anyvec.Vector {
	return m.Creator.MakeVectorData(m.Creator.MakeNumericList(data))
}

func (m *Model) setTraining(training bool) {
	if net, ok := m.Net.(anynet.Net); ok {
		for _, layer := range net {
			if d, ok := layer.(*anynet.Dropout); ok {
				d.Enabled = training
			}
		}
	}
}

func floatData(v anyvec.Vector) []float64 {
	switch data := v.Data().(type) {
	case []float32:
		res := make([]float64, len(data))
		for i, x := range data {
			res[i] = float64(x)
		}
		return res
	case []float64:
		return data
	default:
		panic(fmt.Sprintf("unsupported numeric type: %T", data))
	}
}

func firstInput(b *anydata.Batch) *float64 {
	if len(b.Inputs) == 0 {
		return nil
	}
	return &b.Inputs[0]
}
