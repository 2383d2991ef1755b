package anydata

import (
	"reflect"
	"testing"

	"github.com/unixpickle/mnist"
)

func testLabeled(n, inSize int) *Labeled {
	res := &Labeled{InputSize: inSize}
	for i := 0; i < n; i++ {
		for j := 0; j < inSize; j++ {
			res.Inputs = append(res.Inputs, float64(i*inSize+j))
		}
		res.Labels = append(res.Labels, i%3)
	}
	return res
}

func TestLabeledSlice(t *testing.T) {
	l := testLabeled(5, 2)
	b, err := l.Slice(3, 5)
	if err != nil {
		t.Fatal(err)
	}
	if b.Start != 3 || b.Size != 2 {
		t.Errorf("bad window: start=%d size=%d", b.Start, b.Size)
	}
	if !reflect.DeepEqual(b.Inputs, []float64{6, 7, 8, 9}) {
		t.Errorf("bad inputs: %v", b.Inputs)
	}
	if !reflect.DeepEqual(b.Labels, []int{0, 1}) {
		t.Errorf("bad labels: %v", b.Labels)
	}
	if b.Expected != nil {
		t.Error("labeled batch should not have targets")
	}
	if _, err := l.Slice(4, 6); err != ErrBadRange {
		t.Errorf("expected ErrBadRange but got %v", err)
	}
}

func TestLabeledValidate(t *testing.T) {
	l := testLabeled(4, 3)
	if err := l.Validate(3); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := l.Validate(0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := l.Validate(2); err == nil {
		t.Error("expected size mismatch error")
	}
	l.Labels = l.Labels[:3]
	if err := l.Validate(3); err == nil {
		t.Error("expected length mismatch error")
	}
	var nilData *Labeled
	if nilData.Len() != 0 {
		t.Error("nil dataset should be empty")
	}
	if err := nilData.Validate(0); err == nil {
		t.Error("expected error for nil dataset")
	}
}

func TestTargeted(t *testing.T) {
	d := &Targeted{
		InputSize:  2,
		OutputSize: 1,
		Inputs:     []float64{1, 2, 3, 4, 5, 6},
		Expected:   []float64{0.5, 0.25, 0.125},
	}
	if err := d.Validate(2, 1); err != nil {
		t.Fatal(err)
	}
	if d.Len() != 3 {
		t.Errorf("expected 3 examples but got %d", d.Len())
	}
	b, err := d.Slice(1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(b.Inputs, []float64{3, 4, 5, 6}) {
		t.Errorf("bad inputs: %v", b.Inputs)
	}
	if !reflect.DeepEqual(b.Expected, []float64{0.25, 0.125}) {
		t.Errorf("bad targets: %v", b.Expected)
	}
	d.Expected = d.Expected[:2]
	if err := d.Validate(2, 1); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestNumBatches(t *testing.T) {
	cases := []struct {
		n, batch, expected int
	}{
		{0, 4, 0},
		{1, 4, 1},
		{10, 4, 3},
		{12, 4, 3},
		{9, 4, 3},
		{5, 1, 5},
	}
	for _, c := range cases {
		if actual := NumBatches(c.n, c.batch); actual != c.expected {
			t.Errorf("NumBatches(%d, %d): expected %d but got %d", c.n, c.batch,
				c.expected, actual)
		}
	}
}

func TestHashSplit(t *testing.T) {
	l := testLabeled(200, 3)
	left, right := HashSplit(l, 0.3)
	if left.Len()+right.Len() != l.Len() {
		t.Fatalf("lost examples: %d + %d != %d", left.Len(), right.Len(), l.Len())
	}
	if err := left.Validate(3); err != nil {
		t.Error(err)
	}
	if err := right.Validate(3); err != nil {
		t.Error(err)
	}
	if left.Len() < 30 || left.Len() > 90 {
		t.Errorf("unexpected left size: %d", left.Len())
	}

	// Reordering the source must not change where examples go.
	reversed := &Labeled{InputSize: 3}
	for i := l.Len() - 1; i >= 0; i-- {
		appendRange(reversed, l, i, i+1)
	}
	left2, _ := HashSplit(reversed, 0.3)
	if left2.Len() != left.Len() {
		t.Errorf("split depends on order: %d vs %d", left2.Len(), left.Len())
	}

	all, none := HashSplit(l, 1)
	if all.Len() != l.Len() || none.Len() != 0 {
		t.Error("ratio 1 should keep everything on the left")
	}
}

func TestFromMNIST(t *testing.T) {
	d := mnist.DataSet{
		Width:  2,
		Height: 2,
		Samples: []mnist.Sample{
			{Intensities: []float64{0, 0.25, 0.5, 1}, Label: 7},
			{Intensities: []float64{1, 1, 0, 0}, Label: 3},
		},
	}
	l := FromMNIST(d)
	if err := l.Validate(4); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(l.Labels, []int{7, 3}) {
		t.Errorf("bad labels: %v", l.Labels)
	}
	if l.Inputs[3] != 1 || l.Inputs[4] != 1 {
		t.Errorf("bad inputs: %v", l.Inputs)
	}
}
