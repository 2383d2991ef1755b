package anybatch

import "math"

// A Rater determines the learning rate for an epoch.
// Epochs are numbered from 1.
type Rater interface {
	Rate(epoch int) float64
}

// A ConstRater always returns the same learning rate.
type ConstRater float64

// Rate returns float64(c).
func (c ConstRater) Rate(epoch int) float64 {
	return float64(c)
}

// An AnnealRater decays a base learning rate
// exponentially with the epoch number:
//
//	rate(e) = Base * Anneal^e
//
// The exponent is the absolute epoch number, so epoch 1
// already receives one factor of Anneal, and resuming a
// schedule at a later epoch picks up the decay of that
// epoch.
type AnnealRater struct {
	Base   float64
	Anneal float64
}

// Rate returns the annealed learning rate for the epoch.
func (a AnnealRater) Rate(epoch int) float64 {
	return a.Base * math.Pow(a.Anneal, float64(epoch))
}
