package anybatch

import (
	"log"
	"time"
)

// A BatchEvent is delivered to post-batch observers after
// each batch of a pass.
//
// Loss and NumRight are running totals for the pass so
// far, not per-batch values.
type BatchEvent struct {
	// Epoch is the epoch being run, or 0 when the pass was
	// started directly on a BatchLearner.
	Epoch int

	// Action is the kind of pass.
	Action ActionKind

	// Batch is the index of the batch within the pass.
	Batch int

	// BatchSize is the number of examples in this batch.
	BatchSize int

	Loss     float64
	NumRight int
}

// An EpochEvent is delivered to post-epoch observers once
// an epoch's test pass has finished.
type EpochEvent struct {
	Epoch        int
	LearningRate float64

	Train    EpochResult
	NumTrain int

	TestNumRight int
	NumTest      int

	// Elapsed is the wall-clock time for the epoch,
	// including the test pass.
	Elapsed time.Duration
}

// TrainAccuracy returns the training accuracy in percent.
func (e EpochEvent) TrainAccuracy() float64 {
	return percent(e.Train.NumRight, e.NumTrain)
}

// TestAccuracy returns the test accuracy in percent.
func (e EpochEvent) TestAccuracy() float64 {
	return percent(e.TestNumRight, e.NumTest)
}

// A PostBatchFunc observes batch events.
// Returning an error aborts the pass.
type PostBatchFunc func(e BatchEvent) error

// A PostEpochFunc observes epoch events.
// Returning an error aborts the schedule.
type PostEpochFunc func(e EpochEvent) error

// An ObserverID identifies a registered observer so it can
// be removed later.
type ObserverID int

// observerList keeps observers in registration order.
//
// The list never takes ownership of whatever an observer
// captures; callers manage that state themselves.
type observerList[F any] struct {
	nextID  ObserverID
	entries []observerEntry[F]
}

type observerEntry[F any] struct {
	id ObserverID
	f  F
}

func (o *observerList[F]) add(f F) ObserverID {
	o.nextID++
	o.entries = append(o.entries, observerEntry[F]{id: o.nextID, f: f})
	return o.nextID
}

func (o *observerList[F]) remove(id ObserverID) bool {
	for i, e := range o.entries {
		if e.id == id {
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (o *observerList[F]) funcs() []F {
	res := make([]F, len(o.entries))
	for i, e := range o.entries {
		res[i] = e.f
	}
	return res
}

// LogBatches creates a PostBatchFunc which logs progress
// every n batches.
// If logger is nil, the standard logger is used.
func LogBatches(logger *log.Logger, n int) PostBatchFunc {
	if n <= 0 {
		n = 1
	}
	return func(e BatchEvent) error {
		if (e.Batch+1)%n == 0 {
			logf(logger, "epoch=%d batch=%d loss=%f num_right=%d", e.Epoch, e.Batch,
				e.Loss, e.NumRight)
		}
		return nil
	}
}

func logf(logger *log.Logger, format string, args ...interface{}) {
	if logger == nil {
		log.Printf(format, args...)
	} else {
		logger.Printf(format, args...)
	}
}

func percent(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) * 100 / float64(denom)
}
