package environ

// Observation is a fixed-shape float32 buffer stored row-major.
type Observation struct {
	Shape []int
	Data  []float32
}

func newObservation(shape []int) Observation {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return Observation{
		Shape: append([]int(nil), shape...),
		Data:  make([]float32, n),
	}
}

// Len is the total number of values.
func (o Observation) Len() int { return len(o.Data) }

// At returns the value at (row, col) of a two dimensional observation.
func (o Observation) At(row, col int) float32 {
	return o.Data[row*o.Shape[1]+col]
}

func (o Observation) set(row, col int, v float32) {
	o.Data[row*o.Shape[1]+col] = v
}
