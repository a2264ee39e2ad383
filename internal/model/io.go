package model

import (
	"fmt"
	"math/rand"

	"github.com/goccy/go-json"

	"github.com/samcharles93/charrnn/internal/safetensors"
	"github.com/samcharles93/charrnn/internal/tensor"
	"github.com/samcharles93/charrnn/internal/vocab"
)

// Tensor names follow the Keras layer/weight naming so exported Keras
// checkpoints load without renaming. Kernels are stored input-major
// ([in x out]) on disk, as Keras keeps them.
const (
	tensorEmbedding = "embedding/embeddings"
	tensorGRUKernel = "gru/kernel"
	tensorGRURecur  = "gru/recurrent_kernel"
	tensorGRUBias   = "gru/bias"
	tensorDenseW    = "dense/kernel"
	tensorDenseB    = "dense/bias"

	metaFormat = "format"
	metaConfig = "config"
	metaVocab  = "vocab"

	formatName = "charrnn-gru"
)

// NewRandom builds an untrained model. Kernels use Glorot-uniform
// initialisation, the embedding is uniform in (-0.05, 0.05) and biases start
// at zero, mirroring the Keras defaults.
func NewRandom(cfg Config, seed int64) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	v, e, h := cfg.VocabSize, cfg.EmbeddingDim, cfg.HiddenDim
	rng := rand.New(rand.NewSource(seed))
	m := &Model{
		Config:    cfg,
		Embedding: tensor.NewMat(v, e),
		Wx:        tensor.NewMat(3*h, e),
		Wh:        tensor.NewMat(3*h, h),
		BiasX:     make([]float32, 3*h),
		BiasH:     make([]float32, 3*h),
		Wo:        tensor.NewMat(v, h),
		BiasO:     make([]float32, v),
	}
	tensor.FillUniform(&m.Embedding, 0.05, rng)
	tensor.FillUniform(&m.Wx, tensor.GlorotLimit(e, 3*h), rng)
	tensor.FillUniform(&m.Wh, tensor.GlorotLimit(h, 3*h), rng)
	tensor.FillUniform(&m.Wo, tensor.GlorotLimit(h, v), rng)
	return m, nil
}

// Save writes the parameters, config and vocabulary to a safetensors file.
func (m *Model) Save(path string, vc *vocab.Vocabulary) error {
	if vc.Size() != m.Config.VocabSize {
		return fmt.Errorf("%w: vocabulary has %d entries, model expects %d", ErrShape, vc.Size(), m.Config.VocabSize)
	}
	cfgJSON, err := json.Marshal(m.Config)
	if err != nil {
		return err
	}
	vocabJSON, err := json.Marshal(vc)
	if err != nil {
		return err
	}
	h := m.Config.HiddenDim
	bias := make([]float32, 0, 6*h)
	bias = append(bias, m.BiasX...)
	bias = append(bias, m.BiasH...)

	wx, wh, wo := m.Wx.Transpose(), m.Wh.Transpose(), m.Wo.Transpose()
	tensors := []safetensors.Tensor{
		{Name: tensorEmbedding, Shape: []int{m.Embedding.R, m.Embedding.C}, Data: m.Embedding.Data},
		{Name: tensorGRUKernel, Shape: []int{wx.R, wx.C}, Data: wx.Data},
		{Name: tensorGRURecur, Shape: []int{wh.R, wh.C}, Data: wh.Data},
		{Name: tensorGRUBias, Shape: []int{2, 3 * h}, Data: bias},
		{Name: tensorDenseW, Shape: []int{wo.R, wo.C}, Data: wo.Data},
		{Name: tensorDenseB, Shape: []int{len(m.BiasO)}, Data: m.BiasO},
	}
	return safetensors.Write(path, tensors, map[string]string{
		metaFormat: formatName,
		metaConfig: string(cfgJSON),
		metaVocab:  string(vocabJSON),
	})
}

// Load reads a model and its vocabulary from a safetensors file written by
// Save (or exported from Keras with the same tensor names).
func Load(path string) (*Model, *vocab.Vocabulary, error) {
	st, err := safetensors.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = st.Close() }()

	var cfg Config
	raw, ok := st.Metadata[metaConfig]
	if !ok {
		return nil, nil, fmt.Errorf("%s: missing %q metadata", path, metaConfig)
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, nil, fmt.Errorf("%s: parse config: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	vc := new(vocab.Vocabulary)
	if err := json.Unmarshal([]byte(st.Metadata[metaVocab]), vc); err != nil {
		return nil, nil, fmt.Errorf("%s: parse vocab: %w", path, err)
	}
	if vc.Size() != cfg.VocabSize {
		return nil, nil, fmt.Errorf("%s: %w: vocabulary has %d entries, config says %d", path, ErrShape, vc.Size(), cfg.VocabSize)
	}

	m, err := fromSafetensors(st, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, vc, nil
}

func fromSafetensors(st *safetensors.File, cfg Config) (*Model, error) {
	v, e, h := cfg.VocabSize, cfg.EmbeddingDim, cfg.HiddenDim
	emb, err := tensor.LoadSafetensorsMat(st, tensorEmbedding, v, e)
	if err != nil {
		return nil, err
	}
	kx, err := tensor.LoadSafetensorsMat(st, tensorGRUKernel, e, 3*h)
	if err != nil {
		return nil, err
	}
	kh, err := tensor.LoadSafetensorsMat(st, tensorGRURecur, h, 3*h)
	if err != nil {
		return nil, err
	}
	bias, err := tensor.LoadSafetensorsMat(st, tensorGRUBias, 2, 3*h)
	if err != nil {
		return nil, err
	}
	ko, err := tensor.LoadSafetensorsMat(st, tensorDenseW, h, v)
	if err != nil {
		return nil, err
	}
	bo, err := tensor.LoadSafetensorsVec(st, tensorDenseB, v)
	if err != nil {
		return nil, err
	}
	return &Model{
		Config:    cfg,
		Embedding: emb,
		Wx:        kx.Transpose(),
		Wh:        kh.Transpose(),
		BiasX:     bias.Row(0),
		BiasH:     bias.Row(1),
		Wo:        ko.Transpose(),
		BiasO:     bo,
	}, nil
}
