package core

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// Runtime is the seam between the classifier and the underlying
// inference engine: one forward pass from a fixed-shape tensor to raw
// logits.
type Runtime interface {
	Run(t *Tensor) ([]float32, error)
	Classes() int
	Release()
}

// OnnxRuntime wraps a single ONNX Runtime session. The session is
// read-only after creation; each Run call allocates its own input and
// output tensors, so concurrent calls do not share mutable state.
type OnnxRuntime struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	inputShape []int64
	classes    int
}

// LoadOnnxRuntime opens the artifact at modelPath. Input/output tensor
// names and the class count are read from the artifact metadata rather
// than hardcoded, so any single-input single-output classification graph
// works. ort.InitializeEnvironment must have been called first.
func LoadOnnxRuntime(modelPath string) (*OnnxRuntime, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model metadata: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("expected a model with one input and one output tensor, got %d inputs and %d outputs", len(inputs), len(outputs))
	}

	outDims := outputs[0].Dimensions
	if len(outDims) == 0 {
		return nil, fmt.Errorf("model output has no dimensions")
	}
	classes := int(outDims[len(outDims)-1])
	if classes <= 0 {
		return nil, fmt.Errorf("model output has a dynamic class dimension: %v", outDims)
	}

	inputShape := make([]int64, len(inputs[0].Dimensions))
	copy(inputShape, inputs[0].Dimensions)
	if len(inputShape) > 0 && inputShape[0] < 0 {
		// Dynamic batch dimension; this service always runs batch 1.
		inputShape[0] = 1
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &OnnxRuntime{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		inputShape: inputShape,
		classes:    classes,
	}, nil
}

func (o *OnnxRuntime) Classes() int { return o.classes }

// Run executes one forward pass and returns the raw logits. A tensor
// whose shape does not match the model input fails with ErrShapeMismatch
// before the session is invoked; execution failures are wrapped in
// ErrInference and never panic.
func (o *OnnxRuntime) Run(t *Tensor) ([]float32, error) {
	if !shapeMatches(o.inputShape, t.Shape) || int64(len(t.Data)) != numElements(t.Shape) {
		return nil, fmt.Errorf("%w: model expects %v, got shape %v with %d values",
			ErrShapeMismatch, o.inputShape, t.Shape, len(t.Data))
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(t.Shape...), t.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(o.classes)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	defer outputTensor.Destroy()

	if err := o.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}

	logits := make([]float32, o.classes)
	copy(logits, outputTensor.GetData())
	return logits, nil
}

func (o *OnnxRuntime) Release() {
	if o.session != nil {
		o.session.Destroy()
		o.session = nil
	}
}

func shapeMatches(want, got []int64) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		// Negative dims in the model metadata are dynamic and match
		// anything.
		if want[i] >= 0 && want[i] != got[i] {
			return false
		}
	}
	return true
}

func numElements(shape []int64) int64 {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}
