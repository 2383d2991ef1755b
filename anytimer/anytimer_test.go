package anytimer

import (
	"bytes"
	"io/ioutil"
	"log"
	"math"
	"strings"
	"testing"
	"time"
)

func TestStatefulTimerSummaries(t *testing.T) {
	var s StatefulTimer
	s.Add("propagate", 10*time.Millisecond)
	s.Add("propagate", 30*time.Millisecond)
	s.Add("backprop", 5*time.Millisecond)

	sums := s.Summaries()
	if len(sums) != 2 {
		t.Fatalf("expected 2 summaries but got %d", len(sums))
	}
	if sums[0].Name != "backprop" || sums[1].Name != "propagate" {
		t.Errorf("bad order: %s, %s", sums[0].Name, sums[1].Name)
	}
	prop := sums[1]
	if prop.Count != 2 || math.Abs(prop.Total-40) > 1e-9 || math.Abs(prop.Mean-20) > 1e-9 {
		t.Errorf("bad summary: %+v", prop)
	}
	if math.Abs(prop.StdDev-math.Sqrt(200)) > 1e-9 {
		t.Errorf("bad std-dev: %f", prop.StdDev)
	}
	if sums[0].StdDev != 0 {
		t.Errorf("single sample should have zero std-dev, got %f", sums[0].StdDev)
	}
}

func TestStatefulTimerDump(t *testing.T) {
	var s StatefulTimer
	stop := s.Time("learn")
	stop()

	var buf bytes.Buffer
	if err := s.Dump(&buf, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "StatefulTimer learn: count=1") {
		t.Errorf("unexpected dump: %q", buf.String())
	}
	if len(s.Summaries()) != 0 {
		t.Error("dump with reset should clear samples")
	}
}

func TestTimerCheck(t *testing.T) {
	var buf bytes.Buffer
	timer := NewTimer()
	timer.Logger = log.New(&buf, "", 0)
	if d := timer.TimeCheck("after epoch 1"); d < 0 {
		t.Errorf("negative duration: %v", d)
	}
	if !strings.HasPrefix(buf.String(), "after epoch 1 ") {
		t.Errorf("unexpected log: %q", buf.String())
	}

	var zero Timer
	zero.Logger = log.New(ioutil.Discard, "", 0)
	if d := zero.TimeCheck("first"); d != 0 {
		t.Errorf("zero timer should start at its first check, got %v", d)
	}
}
