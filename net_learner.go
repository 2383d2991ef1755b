package anybatch

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/unixpickle/anybatch/anydata"
	"github.com/unixpickle/anybatch/anytimer"
	"github.com/unixpickle/essentials"
)

// Defaults used by NewNetLearner.
const (
	DefaultBatchSize  = 128
	DefaultNumEpochs  = 12
	DefaultStartEpoch = 1
)

// A NetLearner trains a model for a schedule of epochs,
// testing it after each one.
//
// Configuration must not change while Learn is running.
type NetLearner struct {
	Model Trainable

	// Training and Testing are the datasets.
	// They are views; the caller keeps ownership.
	Training *anydata.Labeled
	Testing  *anydata.Labeled

	BatchSize int

	// The schedule covers the epochs from StartEpoch to
	// NumEpochs, inclusive.
	NumEpochs  int
	StartEpoch int

	// DumpTimings enables a timing report after every
	// training pass.
	DumpTimings bool

	// Timings is the timer dumped when DumpTimings is set.
	// Models may record into it during passes.
	// If nil, nothing is dumped.
	Timings *anytimer.StatefulTimer

	// Logger receives per-epoch reports.
	// If nil, the standard logger is used.
	Logger *log.Logger

	postBatch observerList[PostBatchFunc]
	postEpoch observerList[PostEpochFunc]
}

// NewNetLearner creates a NetLearner with the default
// schedule.
func NewNetLearner(m Trainable) *NetLearner {
	return &NetLearner{
		Model:      m,
		BatchSize:  DefaultBatchSize,
		NumEpochs:  DefaultNumEpochs,
		StartEpoch: DefaultStartEpoch,
		Timings:    &anytimer.StatefulTimer{},
	}
}

// SetTrainingData sets the training dataset.
func (n *NetLearner) SetTrainingData(d *anydata.Labeled) {
	n.Training = d
}

// SetTestingData sets the testing dataset.
func (n *NetLearner) SetTestingData(d *anydata.Labeled) {
	n.Testing = d
}

// SetSchedule runs epochs 1 through numEpochs.
func (n *NetLearner) SetSchedule(numEpochs int) {
	n.SetScheduleFrom(numEpochs, 1)
}

// SetScheduleFrom runs epochs startEpoch through
// numEpochs, which is useful when resuming from a
// checkpoint.
func (n *NetLearner) SetScheduleFrom(numEpochs, startEpoch int) {
	n.NumEpochs = numEpochs
	n.StartEpoch = startEpoch
}

// SetBatchSize sets the batch size.
func (n *NetLearner) SetBatchSize(batchSize int) {
	n.BatchSize = batchSize
}

// SetDumpTimings enables or disables timing reports.
func (n *NetLearner) SetDumpTimings(dump bool) {
	n.DumpTimings = dump
}

// AddPostBatchAction registers an observer for every batch
// of every pass, training and testing alike.
// Events carry the epoch and the action of the pass.
func (n *NetLearner) AddPostBatchAction(f PostBatchFunc) ObserverID {
	return n.postBatch.add(f)
}

// RemovePostBatchAction unregisters a batch observer.
func (n *NetLearner) RemovePostBatchAction(id ObserverID) bool {
	return n.postBatch.remove(id)
}

// AddPostEpochAction registers an observer which is called
// after each epoch's test pass.
func (n *NetLearner) AddPostEpochAction(f PostEpochFunc) ObserverID {
	return n.postEpoch.add(f)
}

// RemovePostEpochAction unregisters an epoch observer.
func (n *NetLearner) RemovePostEpochAction(id ObserverID) bool {
	return n.postEpoch.remove(id)
}

// Learn runs the schedule with a constant learning rate.
func (n *NetLearner) Learn(rate float64) ([]EpochEvent, error) {
	return n.LearnAnneal(rate, 1)
}

// LearnAnneal runs the schedule, using the learning rate
// rate*anneal^epoch for each epoch.
func (n *NetLearner) LearnAnneal(rate, anneal float64) ([]EpochEvent, error) {
	return n.LearnRater(AnnealRater{Base: rate, Anneal: anneal})
}

// LearnRater runs the schedule, asking r for the learning
// rate of each epoch.
//
// It returns an event for every epoch that completed,
// even if a later epoch failed.
func (n *NetLearner) LearnRater(r Rater) ([]EpochEvent, error) {
	if err := n.validate(); err != nil {
		return nil, essentials.AddCtx("learn", err)
	}

	learner := NewBatchLearner(n.Model)
	for _, f := range n.postBatch.funcs() {
		learner.AddPostBatchAction(f)
	}
	epochObservers := n.postEpoch.funcs()

	timer := anytimer.NewTimer()
	timer.Logger = n.Logger

	var events []EpochEvent
	for epoch := n.StartEpoch; epoch <= n.NumEpochs; epoch++ {
		event, err := n.runEpoch(learner, timer, epoch, r.Rate(epoch))
		if err != nil {
			return events, essentials.AddCtx("learn", err)
		}
		for _, f := range epochObservers {
			if err := f(event); err != nil {
				ctx := fmt.Sprintf("learn: post-epoch observer (epoch %d)", epoch)
				return events, essentials.AddCtx(ctx, err)
			}
		}
		events = append(events, event)
	}
	return events, nil
}

func (n *NetLearner) runEpoch(learner *BatchLearner, timer *anytimer.Timer, epoch int,
	rate float64) (EpochEvent, error) {
	start := time.Now()
	trainRes, err := learner.runLabeled(epoch, n.BatchSize, n.Training, LearnAction(rate), true)
	if err != nil {
		return EpochEvent{}, essentials.AddCtx(fmt.Sprintf("epoch %d: train", epoch), err)
	}
	if n.DumpTimings && n.Timings != nil {
		if err := n.Timings.Dump(n.logWriter(), true); err != nil {
			return EpochEvent{}, err
		}
	}
	timer.TimeCheck(fmt.Sprintf("after epoch %d", epoch))

	numTrain := n.Training.Len()
	n.logf("annealed learning rate: %g training loss: %g", rate, trainRes.Loss)
	n.logf(" train accuracy: %d/%d %.4g%%", trainRes.NumRight, numTrain,
		percent(trainRes.NumRight, numTrain))

	testRes, err := learner.runLabeled(epoch, n.BatchSize, n.Testing, PropagateAction(), false)
	if err != nil {
		return EpochEvent{}, essentials.AddCtx(fmt.Sprintf("epoch %d: test", epoch), err)
	}
	numTest := n.Testing.Len()
	n.logf("test accuracy: %d/%d %.4g%%", testRes.NumRight, numTest,
		percent(testRes.NumRight, numTest))
	timer.TimeCheck("after tests")

	return EpochEvent{
		Epoch:        epoch,
		LearningRate: rate,
		Train:        trainRes,
		NumTrain:     numTrain,
		TestNumRight: testRes.NumRight,
		NumTest:      numTest,
		Elapsed:      time.Since(start),
	}, nil
}

func (n *NetLearner) validate() error {
	if n.Model == nil {
		return errors.New("no model")
	}
	if n.BatchSize <= 0 {
		return ErrBadBatchSize
	}
	if n.StartEpoch < 1 {
		return fmt.Errorf("start epoch must be >= 1 (got %d)", n.StartEpoch)
	}
	if err := n.Training.Validate(n.Model.InputSize()); err != nil {
		return essentials.AddCtx("training data", err)
	}
	if err := n.Testing.Validate(n.Model.InputSize()); err != nil {
		return essentials.AddCtx("testing data", err)
	}
	return nil
}

func (n *NetLearner) logf(format string, args ...interface{}) {
	logf(n.Logger, format, args...)
}

func (n *NetLearner) logWriter() io.Writer {
	if n.Logger == nil {
		return log.Writer()
	}
	return n.Logger.Writer()
}
