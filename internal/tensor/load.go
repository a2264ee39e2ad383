package tensor

import (
	"fmt"

	"github.com/samcharles93/charrnn/internal/safetensors"
)

// LoadSafetensorsMat loads a 2D tensor as a rows x cols matrix.
func LoadSafetensorsMat(st *safetensors.File, name string, rows, cols int) (Mat, error) {
	data, info, err := st.ReadTensorF32(name)
	if err != nil {
		return Mat{}, err
	}
	if len(info.Shape) != 2 {
		return Mat{}, fmt.Errorf("%s: expected 2D tensor, got shape %v", name, info.Shape)
	}
	if info.Shape[0] != rows || info.Shape[1] != cols {
		return Mat{}, fmt.Errorf("%s: expected shape [%d %d], got %v", name, rows, cols, info.Shape)
	}
	return NewMatFromData(rows, cols, data)
}

// LoadSafetensorsVec loads a 1D tensor of length n.
func LoadSafetensorsVec(st *safetensors.File, name string, n int) ([]float32, error) {
	data, info, err := st.ReadTensorF32(name)
	if err != nil {
		return nil, err
	}
	if len(info.Shape) != 1 || info.Shape[0] != n {
		return nil, fmt.Errorf("%s: expected shape [%d], got %v", name, n, info.Shape)
	}
	return data, nil
}
