package kokoro

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	ort "github.com/yalue/onnxruntime_go"
)

// onnxSession runs the Kokoro graph on the CPU execution provider.
type onnxSession struct {
	session *ort.DynamicAdvancedSession
	inputs  []string

	mu sync.Mutex
}

// the ONNX Runtime environment is process-wide
var (
	ortMu    sync.Mutex
	ortUsers int
)

func acquireRuntime(libraryPath string) error {
	ortMu.Lock()
	defer ortMu.Unlock()

	if ortUsers == 0 && !ort.IsInitialized() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize onnxruntime (set model.onnxruntime_lib or ONNXRUNTIME_LIB): %w", err)
		}
	}
	ortUsers++
	return nil
}

func releaseRuntime() error {
	ortMu.Lock()
	defer ortMu.Unlock()

	ortUsers--
	if ortUsers > 0 {
		return nil
	}
	ortUsers = 0
	return ort.DestroyEnvironment()
}

// newONNXSession loads the model at path. threads <= 0 leaves the intra-op
// thread count to the runtime.
func newONNXSession(path, libraryPath string, threads int) (*onnxSession, error) {
	if err := acquireRuntime(libraryPath); err != nil {
		return nil, err
	}

	s, err := openONNXSession(path, threads)
	if err != nil {
		_ = releaseRuntime()
		return nil, err
	}
	return s, nil
}

func openONNXSession(path string, threads int) (*onnxSession, error) {
	inputInfo, outputInfo, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect model: %w", err)
	}
	if len(inputInfo) != 3 || len(outputInfo) == 0 {
		return nil, fmt.Errorf("unexpected model signature: %d inputs, %d outputs", len(inputInfo), len(outputInfo))
	}

	inputs := make([]string, len(inputInfo))
	for i, info := range inputInfo {
		inputs[i] = info.Name
	}
	outputs := []string{outputInfo[0].Name}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	if threads > 0 {
		if err := options.SetIntraOpNumThreads(threads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(path, inputs, outputs, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create inference session: %w", err)
	}

	log.Debug("ONNX session ready", "model", path, "inputs", inputs, "output", outputs[0])
	return &onnxSession{session: session, inputs: inputs}, nil
}

// Infer implements Session. Inputs are bound positionally as tokens,
// style and speed.
func (s *onnxSession) Infer(tokens []int64, style []float32, speed float32) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, errors.New("session is closed")
	}

	tokenTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(tokens))), tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to create token tensor: %w", err)
	}
	defer tokenTensor.Destroy()

	styleTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(style))), style)
	if err != nil {
		return nil, fmt.Errorf("failed to create style tensor: %w", err)
	}
	defer styleTensor.Destroy()

	speedTensor, err := ort.NewTensor(ort.NewShape(1), []float32{speed})
	if err != nil {
		return nil, fmt.Errorf("failed to create speed tensor: %w", err)
	}
	defer speedTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{tokenTensor, styleTensor, speedTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	defer outputs[0].Destroy()

	audio, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}

	// the tensor memory is freed on Destroy
	data := audio.GetData()
	samples := make([]float32, len(data))
	copy(samples, data)
	return samples, nil
}

// Close implements Session.
func (s *onnxSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	if rerr := releaseRuntime(); err == nil {
		err = rerr
	}
	return err
}

var _ Session = (*onnxSession)(nil)
