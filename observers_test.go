package anybatch

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestLogBatches(t *testing.T) {
	var buf bytes.Buffer
	learner := NewBatchLearner(newTestModel(1))
	learner.AddPostBatchAction(LogBatches(log.New(&buf, "", 0), 2))
	if _, err := learner.Test(2, testDataset(10, 1)); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	expected := []string{
		"epoch=0 batch=1 loss=2.000000 num_right=4",
		"epoch=0 batch=3 loss=4.000000 num_right=8",
	}
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines but got %q", len(expected), lines)
	}
	for i, line := range lines {
		if line != expected[i] {
			t.Errorf("line %d: expected %q but got %q", i, expected[i], line)
		}
	}
}

func TestEpochEventAccuracy(t *testing.T) {
	e := EpochEvent{
		Train:        EpochResult{NumRight: 3},
		NumTrain:     4,
		TestNumRight: 1,
		NumTest:      0,
	}
	if e.TrainAccuracy() != 75 {
		t.Errorf("expected 75%% but got %f", e.TrainAccuracy())
	}
	if e.TestAccuracy() != 0 {
		t.Errorf("empty test set should give 0%%, got %f", e.TestAccuracy())
	}
}

func TestObserverListIDs(t *testing.T) {
	var list observerList[int]
	a := list.add(1)
	b := list.add(2)
	if a == b {
		t.Fatal("IDs should be unique")
	}
	if !list.remove(a) || list.remove(a) {
		t.Error("remove should succeed exactly once")
	}
	c := list.add(3)
	if c == b {
		t.Error("IDs should not be reused")
	}
	funcs := list.funcs()
	if len(funcs) != 2 || funcs[0] != 2 || funcs[1] != 3 {
		t.Errorf("unexpected entries: %v", funcs)
	}
}

func TestActionString(t *testing.T) {
	if s := PropagateAction().String(); s != "propagate" {
		t.Errorf("unexpected string: %s", s)
	}
	if s := LearnAction(0.5).String(); s != "learn(rate=0.5)" {
		t.Errorf("unexpected string: %s", s)
	}
}
