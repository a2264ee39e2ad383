package tensor

import (
	"math"
	"math/rand"
)

// Mat is a dense row-major float32 matrix.
//
// R and C are the number of rows and columns. Stride is the distance in
// elements between consecutive rows and equals C for matrices built here.
// Out-of-range indices panic like ordinary slice access.
type Mat struct {
	R, C   int
	Stride int
	Data   []float32
}

// NewMat allocates a zeroed r x c matrix.
func NewMat(r, c int) Mat {
	if r < 0 || c < 0 {
		panic("negative dimension for matrix")
	}
	return Mat{R: r, C: c, Stride: c, Data: make([]float32, r*c)}
}

// NewMatFromData wraps data as an r x c matrix without copying.
func NewMatFromData(r, c int, data []float32) (Mat, error) {
	if r < 0 || c < 0 {
		return Mat{}, errNegativeDim
	}
	if r*c != len(data) {
		return Mat{}, errDataSizeMismatch
	}
	return Mat{R: r, C: c, Stride: c, Data: data}, nil
}

// Row returns a view of row i. Writes through the view update the matrix.
func (m *Mat) Row(i int) []float32 {
	if i < 0 || i >= m.R {
		panic("row index out of range")
	}
	start := i * m.Stride
	return m.Data[start : start+m.C]
}

// Transpose returns a newly allocated C x R copy of m.
func (m *Mat) Transpose() Mat {
	t := NewMat(m.C, m.R)
	for i := 0; i < m.R; i++ {
		row := m.Row(i)
		for j, v := range row {
			t.Data[j*t.Stride+i] = v
		}
	}
	return t
}

// FillUniform fills m with values drawn uniformly from (-limit, limit).
func FillUniform(m *Mat, limit float64, rng *rand.Rand) {
	for i := range m.Data {
		m.Data[i] = float32((rng.Float64()*2 - 1) * limit)
	}
}

// GlorotLimit is the Glorot/Xavier uniform bound for a fanIn x fanOut kernel.
func GlorotLimit(fanIn, fanOut int) float64 {
	return math.Sqrt(6.0 / float64(fanIn+fanOut))
}

var (
	errNegativeDim      = fmtError("negative dimension for matrix")
	errDataSizeMismatch = fmtError("data length does not match dimensions")
)

type fmtError string

func (e fmtError) Error() string { return string(e) }
