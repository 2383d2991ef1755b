// Package anytimer collects wall-clock timing statistics
// for named sections of a training run.
package anytimer

import (
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// A StatefulTimer accumulates durations under names and
// can dump a summary of them.
//
// The zero value is ready to use.
// It is safe to record from multiple goroutines.
type StatefulTimer struct {
	lock    sync.Mutex
	samples map[string][]float64
}

// Time starts timing a section.
// The returned function stops the timer and records the
// duration under name.
func (s *StatefulTimer) Time(name string) func() {
	start := time.Now()
	return func() {
		s.Add(name, time.Since(start))
	}
}

// Add records a duration under name.
func (s *StatefulTimer) Add(name string, d time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.samples == nil {
		s.samples = map[string][]float64{}
	}
	s.samples[name] = append(s.samples[name], float64(d)/float64(time.Millisecond))
}

// Reset discards all recorded durations.
func (s *StatefulTimer) Reset() {
	s.lock.Lock()
	s.samples = nil
	s.lock.Unlock()
}

// A Summary describes the samples under one name.
// Durations are in milliseconds.
type Summary struct {
	Name   string
	Count  int
	Total  float64
	Mean   float64
	StdDev float64
}

// Summaries returns a summary per name, sorted by name.
func (s *StatefulTimer) Summaries() []Summary {
	s.lock.Lock()
	defer s.lock.Unlock()
	var res []Summary
	for name, samples := range s.samples {
		mean, std := stat.MeanStdDev(samples, nil)
		if len(samples) < 2 {
			std = 0
		}
		var total float64
		for _, x := range samples {
			total += x
		}
		res = append(res, Summary{
			Name:   name,
			Count:  len(samples),
			Total:  total,
			Mean:   mean,
			StdDev: std,
		})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Name < res[j].Name
	})
	return res
}

// Dump writes a line per name to w.
// If reset is true, the recorded durations are discarded
// afterwards.
func (s *StatefulTimer) Dump(w io.Writer, reset bool) error {
	for _, sum := range s.Summaries() {
		_, err := fmt.Fprintf(w, "StatefulTimer %s: count=%d total=%.3fms mean=%.3fms std=%.3fms\n",
			sum.Name, sum.Count, sum.Total, sum.Mean, sum.StdDev)
		if err != nil {
			return err
		}
	}
	if reset {
		s.Reset()
	}
	return nil
}

// A Timer logs the time elapsed between checkpoints.
type Timer struct {
	// Logger receives check messages.
	// If nil, the standard logger is used.
	Logger *log.Logger

	last time.Time
}

// NewTimer creates a Timer which starts now.
func NewTimer() *Timer {
	return &Timer{last: time.Now()}
}

// TimeCheck logs and returns the time since the previous
// check, or since the timer was created.
func (t *Timer) TimeCheck(label string) time.Duration {
	now := time.Now()
	if t.last.IsZero() {
		t.last = now
	}
	elapsed := now.Sub(t.last)
	t.last = now
	msg := fmt.Sprintf("%s %.3f seconds", label, elapsed.Seconds())
	if t.Logger == nil {
		log.Println(msg)
	} else {
		t.Logger.Println(msg)
	}
	return elapsed
}
