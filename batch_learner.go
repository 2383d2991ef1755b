package anybatch

import (
	"errors"
	"fmt"

	"github.com/unixpickle/anybatch/anydata"
	"github.com/unixpickle/essentials"
)

// ErrBadBatchSize is returned when a pass is requested
// with a non-positive batch size.
var ErrBadBatchSize = errors.New("batch size must be > 0")

// A BatchLearner runs passes over a dataset, one batch at
// a time, and accumulates statistics.
//
// The same BatchLearner can be used for evaluation and for
// training; the NetAction decides what happens to each
// batch.
// A BatchLearner is not safe for concurrent use, and the
// model must not be used elsewhere during a pass.
type BatchLearner struct {
	Model Trainable

	postBatch observerList[PostBatchFunc]
}

// NewBatchLearner creates a BatchLearner for the model.
func NewBatchLearner(m Trainable) *BatchLearner {
	return &BatchLearner{Model: m}
}

// AddPostBatchAction registers an observer which is called
// after every batch, in registration order.
func (b *BatchLearner) AddPostBatchAction(f PostBatchFunc) ObserverID {
	return b.postBatch.add(f)
}

// RemovePostBatchAction unregisters an observer.
// It reports whether the observer was found.
func (b *BatchLearner) RemovePostBatchAction(id ObserverID) bool {
	return b.postBatch.remove(id)
}

// Test runs a forward-only pass in inference mode and
// returns the number of correct examples.
// Model parameters are not updated.
func (b *BatchLearner) Test(batchSize int, data *anydata.Labeled) (int, error) {
	res, err := b.runLabeled(0, batchSize, data, PropagateAction(), false)
	if err != nil {
		return 0, essentials.AddCtx("test", err)
	}
	return res.NumRight, nil
}

// PropagateForTrain runs a forward-only pass in training
// mode and returns the number of correct examples.
func (b *BatchLearner) PropagateForTrain(batchSize int, data *anydata.Labeled) (int, error) {
	res, err := b.runLabeled(0, batchSize, data, PropagateAction(), true)
	if err != nil {
		return 0, essentials.AddCtx("propagate for train", err)
	}
	return res.NumRight, nil
}

// Backprop runs a backprop-from-labels pass.
//
// Each batch's backward pass relies on activations from a
// preceding forward pass on that same batch, which is the
// model's responsibility to have.
func (b *BatchLearner) Backprop(rate float64, batchSize int,
	data *anydata.Labeled) (EpochResult, error) {
	res, err := b.runLabeled(0, batchSize, data, BackpropAction(rate), true)
	if err != nil {
		return EpochResult{}, essentials.AddCtx("backprop", err)
	}
	return res, nil
}

// RunEpochFromLabels runs a full training pass, doing a
// forward pass, backward pass, and update for each batch.
func (b *BatchLearner) RunEpochFromLabels(rate float64, batchSize int,
	data *anydata.Labeled) (EpochResult, error) {
	res, err := b.runLabeled(0, batchSize, data, LearnAction(rate), true)
	if err != nil {
		return EpochResult{}, essentials.AddCtx("run epoch", err)
	}
	return res, nil
}

// RunEpochFromExpected runs a full training pass against
// continuous targets and returns the total loss.
//
// Post-batch observers are not called, since BatchEvent
// describes labeled passes.
func (b *BatchLearner) RunEpochFromExpected(rate float64, batchSize int,
	data *anydata.Targeted) (float64, error) {
	loss, err := b.runExpected(batchSize, data, rate)
	if err != nil {
		return 0, essentials.AddCtx("run epoch from expected", err)
	}
	return loss, nil
}

func (b *BatchLearner) runExpected(batchSize int, data *anydata.Targeted,
	rate float64) (float64, error) {
	if batchSize <= 0 {
		return 0, ErrBadBatchSize
	}
	if err := data.Validate(b.Model.InputSize(), b.Model.OutputSize()); err != nil {
		return 0, err
	}
	var loss float64
	n := data.Len()
	numBatches := anydata.NumBatches(n, batchSize)
	for batch := 0; batch < numBatches; batch++ {
		batchStart := batch * batchSize
		batchEnd := batchStart + batchSize
		if batch == numBatches-1 {
			batchEnd = n
		}
		slice, err := data.Slice(batchStart, batchEnd)
		if err != nil {
			return 0, err
		}
		if err := b.Model.LearnFromExpected(rate, slice); err != nil {
			return 0, essentials.AddCtx(fmt.Sprintf("batch %d", batch), err)
		}
		batchLoss, err := b.Model.LossFromExpected(slice)
		if err != nil {
			return 0, essentials.AddCtx(fmt.Sprintf("batch %d", batch), err)
		}
		loss += batchLoss
	}
	return loss, nil
}

// runLabeled runs one pass of action over data.
//
// The epoch is only used to label batch events.
func (b *BatchLearner) runLabeled(epoch, batchSize int, data *anydata.Labeled,
	action NetAction, training bool) (EpochResult, error) {
	if batchSize <= 0 {
		return EpochResult{}, ErrBadBatchSize
	}
	if err := data.Validate(b.Model.InputSize()); err != nil {
		return EpochResult{}, err
	}
	observers := b.postBatch.funcs()

	var res EpochResult
	n := data.Len()
	numBatches := anydata.NumBatches(n, batchSize)
	for batch := 0; batch < numBatches; batch++ {
		batchStart := batch * batchSize
		batchEnd := batchStart + batchSize
		if batch == numBatches-1 {
			batchEnd = n
		}
		slice, err := data.Slice(batchStart, batchEnd)
		if err != nil {
			return EpochResult{}, err
		}
		if err := action.Run(b.Model, slice, training); err != nil {
			return EpochResult{}, essentials.AddCtx(fmt.Sprintf("batch %d", batch), err)
		}
		loss, err := b.Model.LossFromLabels(slice)
		if err != nil {
			return EpochResult{}, essentials.AddCtx(fmt.Sprintf("batch %d", batch), err)
		}
		numRight, err := b.Model.NumRight(slice)
		if err != nil {
			return EpochResult{}, essentials.AddCtx(fmt.Sprintf("batch %d", batch), err)
		}
		res.Loss += loss
		res.NumRight += numRight

		event := BatchEvent{
			Epoch:     epoch,
			Action:    action.Kind,
			Batch:     batch,
			BatchSize: slice.Size,
			Loss:      res.Loss,
			NumRight:  res.NumRight,
		}
		if err := notifyBatch(observers, event); err != nil {
			return EpochResult{}, err
		}
	}
	return res, nil
}

func notifyBatch(observers []PostBatchFunc, e BatchEvent) error {
	for _, f := range observers {
		if err := f(e); err != nil {
			return essentials.AddCtx(fmt.Sprintf("post-batch observer (batch %d)", e.Batch), err)
		}
	}
	return nil
}
