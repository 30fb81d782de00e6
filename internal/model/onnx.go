package model

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

const (
	featuresPerBar = 2 // normalized close return, normalized volume
)

var ortInitOnce sync.Once

func initializeORT() error {
	var err error
	ortInitOnce.Do(func() {
		libPath := "/usr/lib/libonnxruntime.so"
		if runtime.GOOS == "windows" {
			libPath = "onnxruntime.dll"
		} else if runtime.GOOS == "darwin" {
			libPath = "libonnxruntime.dylib"
		}
		ort.SetSharedLibraryPath(libPath)
		err = ort.InitializeEnvironment()
	})
	return err
}

// ONNXPredictor runs an exported LSTM price model through onnxruntime.
// The model takes a [1, window, 2] float32 tensor of per-bar features
// and produces a single direction score in [-1,1] (tanh head). Inference
// errors surface as source failures, never as run failures.
type ONNXPredictor struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	window  int
}

// NewONNXPredictor loads the model and allocates the reusable tensors.
func NewONNXPredictor(modelPath string, window int) (*ONNXPredictor, error) {
	if err := initializeORT(); err != nil {
		return nil, fmt.Errorf("failed to initialize onnxruntime: %w", err)
	}

	inputShape := ort.NewShape(1, int64(window), featuresPerBar)
	inputTensor, err := ort.NewTensor(inputShape, make([]float32, window*featuresPerBar))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &ONNXPredictor{
		session: session,
		input:   inputTensor,
		output:  outputTensor,
		window:  window,
	}, nil
}

// Predict scores the window's trailing bars. The context deadline bounds
// the wait; inference itself runs on the calling goroutine.
func (p *ONNXPredictor) Predict(ctx context.Context, window []types.Bar) (float64, error) {
	if len(window) < p.window+1 {
		return 0, fmt.Errorf("model needs %d bars, got %d", p.window+1, len(window))
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	features := Featurize(window, p.window)

	p.mu.Lock()
	defer p.mu.Unlock()

	copy(p.input.GetData(), features)
	if err := p.session.Run(); err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}
	return float64(p.output.GetData()[0]), nil
}

// Close releases the session and tensors.
func (p *ONNXPredictor) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != nil {
		p.session.Destroy()
	}
	if p.input != nil {
		p.input.Destroy()
	}
	if p.output != nil {
		p.output.Destroy()
	}
}

// Featurize builds the model input for the trailing n bars: per-bar
// close return and volume relative to the window mean.
func Featurize(window []types.Bar, n int) []float32 {
	tail := window[len(window)-n:]
	prev := window[len(window)-n-1]

	meanVolume := 0.0
	for _, bar := range tail {
		meanVolume += bar.Volume
	}
	meanVolume /= float64(n)

	features := make([]float32, 0, n*featuresPerBar)
	last := prev
	for _, bar := range tail {
		ret := 0.0
		if last.Close > 0 {
			ret = bar.Close/last.Close - 1
		}
		vol := 0.0
		if meanVolume > 0 {
			vol = bar.Volume/meanVolume - 1
		}
		features = append(features, float32(ret), float32(vol))
		last = bar
	}
	return features
}
