package anydata

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// HashSplit partitions a labeled dataset by hashing every
// example, so the same example always lands on the same
// side no matter how the dataset is ordered.
// It can be used to carve a fixed validation set out of
// a training set.
//
// The leftRatio argument specifies the expected fraction
// of examples that should end up on the left partition.
//
// Unlike a view, the result owns fresh buffers; l is not
// modified.
func HashSplit(l *Labeled, leftRatio float64) (left, right *Labeled) {
	left = &Labeled{InputSize: l.InputSize}
	right = &Labeled{InputSize: l.InputSize}
	if leftRatio <= 0 {
		appendRange(right, l, 0, l.Len())
		return
	} else if leftRatio >= 1 {
		appendRange(left, l, 0, l.Len())
		return
	}
	cutoff := hashCutoff(leftRatio)
	for i := 0; i < l.Len(); i++ {
		if compareHashes(exampleHash(l, i), cutoff) < 0 {
			appendRange(left, l, i, i+1)
		} else {
			appendRange(right, l, i, i+1)
		}
	}
	return
}

func appendRange(dst, src *Labeled, start, end int) {
	dst.Inputs = append(dst.Inputs, src.Inputs[start*src.InputSize:end*src.InputSize]...)
	dst.Labels = append(dst.Labels, src.Labels[start:end]...)
}

func exampleHash(l *Labeled, i int) []byte {
	h := sha256.New()
	temp := make([]byte, 8)
	for _, x := range l.Inputs[i*l.InputSize : (i+1)*l.InputSize] {
		binary.BigEndian.PutUint64(temp, math.Float64bits(x))
		h.Write(temp)
	}
	binary.BigEndian.PutUint64(temp, uint64(l.Labels[i]))
	h.Write(temp)
	return h.Sum(nil)
}

func hashCutoff(ratio float64) []byte {
	res := make([]byte, 8)
	for i := range res {
		ratio *= 256
		value := int(ratio)
		ratio -= float64(value)
		if value == 256 {
			value = 255
		}
		res[i] = byte(value)
	}
	return res
}

func compareHashes(h1, h2 []byte) int {
	max := len(h1)
	if len(h2) > max {
		max = len(h2)
	}
	for i := 0; i < max; i++ {
		var h1Val, h2Val byte
		if i < len(h1) {
			h1Val = h1[i]
		}
		if i < len(h2) {
			h2Val = h2[i]
		}
		if h1Val < h2Val {
			return -1
		} else if h1Val > h2Val {
			return 1
		}
	}
	return 0
}
