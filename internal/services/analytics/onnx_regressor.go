package analytics

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	domsvc "FinCast/internal/domain/service"
)

var (
	ortOnce sync.Once
	ortErr  error
)

// InitializeORT loads the onnxruntime shared library once per process.
func InitializeORT(libPath string) error {
	ortOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortErr = ort.InitializeEnvironment()
	})
	return ortErr
}

// ONNXRegressor runs an exported sequence model in-process. The session binds
// fixed input and output tensors, so calls are serialized.
type ONNXRegressor struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	seq     int
	width   int
}

// NewONNXRegressor opens a model whose input is [1, seq, width] named "input"
// and whose output is [1, 1] named "output".
func NewONNXRegressor(modelPath string, seq, width int) (*ONNXRegressor, error) {
	input, err := ort.NewTensor(ort.NewShape(1, int64(seq), int64(width)), make([]float32, seq*width))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create session %s: %w", modelPath, err)
	}
	return &ONNXRegressor{session: session, input: input, output: output, seq: seq, width: width}, nil
}

func (m *ONNXRegressor) Predict(ctx context.Context, window [][]float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(window) != m.seq {
		return 0, fmt.Errorf("window has %d rows, model expects %d", len(window), m.seq)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	data := m.input.GetData()
	for i, row := range window {
		if len(row) != m.width {
			return 0, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), m.width)
		}
		for j, v := range row {
			data[i*m.width+j] = float32(v)
		}
	}
	if err := m.session.Run(); err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}
	return float64(m.output.GetData()[0]), nil
}

func (m *ONNXRegressor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.Destroy()
	}
	if m.input != nil {
		m.input.Destroy()
	}
	if m.output != nil {
		m.output.Destroy()
	}
}

var _ domsvc.Regressor = (*ONNXRegressor)(nil)
