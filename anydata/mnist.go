package anydata

import "github.com/unixpickle/mnist"

// FromMNIST packs an MNIST data set into a Labeled
// dataset with one input per pixel.
func FromMNIST(d mnist.DataSet) *Labeled {
	res := &Labeled{
		InputSize: d.Width * d.Height,
		Inputs:    make([]float64, 0, len(d.Samples)*d.Width*d.Height),
		Labels:    make([]int, 0, len(d.Samples)),
	}
	for _, sample := range d.Samples {
		res.Inputs = append(res.Inputs, sample.Intensities...)
		res.Labels = append(res.Labels, sample.Label)
	}
	return res
}
