//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hyperjump/icebreaker/pkg/utils"
	ort "github.com/yalue/onnxruntime_go"
)

// Input and output names of a BERT-style sentence embedding export.
var (
	onnxInputNames  = []string{"input_ids", "attention_mask", "token_type_ids"}
	onnxOutputNames = []string{"output"}
)

// onnxTensors are the fixed-shape buffers bound to a session.
type onnxTensors struct {
	ids, mask, types *ort.Tensor[int64]
	out              *ort.Tensor[float32]
}

func newONNXTensors(maxTokens, dimensions int) (*onnxTensors, error) {
	t := &onnxTensors{}
	seq := ort.NewShape(1, int64(maxTokens))
	var err error
	if t.ids, err = ort.NewEmptyTensor[int64](seq); err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	if t.mask, err = ort.NewEmptyTensor[int64](seq); err != nil {
		t.destroy()
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	if t.types, err = ort.NewEmptyTensor[int64](seq); err != nil {
		t.destroy()
		return nil, fmt.Errorf("token_type_ids tensor: %w", err)
	}
	if t.out, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(dimensions))); err != nil {
		t.destroy()
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	return t, nil
}

func (t *onnxTensors) inputs() []ort.ArbitraryTensor {
	return []ort.ArbitraryTensor{t.ids, t.mask, t.types}
}

func (t *onnxTensors) destroy() {
	for _, x := range []*ort.Tensor[int64]{t.ids, t.mask, t.types} {
		if x != nil {
			_ = x.Destroy()
		}
	}
	if t.out != nil {
		_ = t.out.Destroy()
	}
	*t = onnxTensors{}
}

// ONNXEmbedder runs a local sentence embedding model through ONNX Runtime.
// It requires CGO and the onnxruntime shared library. Calls are serialized
// because the session's tensors are reused between runs.
type ONNXEmbedder struct {
	mu         sync.Mutex
	session    *ort.AdvancedSession
	tensors    *onnxTensors
	tokenizer  Tokenizer
	name       string
	dimensions int
	maxTokens  int
}

// NewONNXEmbedder loads the model at modelPath. The runtime environment is
// initialized on first use. The embedder is named after the model file.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens int) (*ONNXEmbedder, error) {
	if dimensions <= 0 || maxTokens <= 1 {
		return nil, fmt.Errorf("onnx embedder: invalid dimensions %d or max tokens %d", dimensions, maxTokens)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}
	tensors, err := newONNXTensors(maxTokens, dimensions)
	if err != nil {
		return nil, fmt.Errorf("onnx embedder: %w", err)
	}
	session, err := ort.NewAdvancedSession(modelPath, onnxInputNames, onnxOutputNames,
		tensors.inputs(), []ort.ArbitraryTensor{tensors.out}, nil)
	if err != nil {
		tensors.destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return &ONNXEmbedder{
		session:    session,
		tensors:    tensors,
		tokenizer:  &SimpleTokenizer{},
		name:       "onnx/" + strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath)),
		dimensions: dimensions,
		maxTokens:  maxTokens,
	}, nil
}

// Name returns the model identifier.
func (e *ONNXEmbedder) Name() string { return e.name }

// Embed runs the model on text and returns the L2-normalized output.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, fmt.Errorf("onnx: %w: embedder closed", ErrUnavailable)
	}

	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)
	copy(e.tensors.ids.GetData(), ids)
	copy(e.tensors.mask.GetData(), mask)
	copy(e.tensors.types.GetData(), types)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx inference failed: %w", err)
	}

	vec := make([]float32, e.dimensions)
	copy(vec, e.tensors.out.GetData())
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch calls Embed for each text.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e, texts)
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int { return e.dimensions }

// MaxInputTokens returns the model's sequence length.
func (e *ONNXEmbedder) MaxInputTokens() int { return e.maxTokens }

// Close destroys the session and its tensors. Embed fails afterwards.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	if e.tensors != nil {
		e.tensors.destroy()
		e.tensors = nil
	}
	return err
}
