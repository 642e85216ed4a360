package core

import (
	"encoding/json"
	"fmt"
	"os"

	"vision-backend/pkg/api"
)

// Predictor is what the HTTP layer depends on.
type Predictor interface {
	Predict(image []byte, topK int) ([]api.Prediction, error)
	Labels() []string
}

// Classifier ties the preprocessing pipeline, the inference runtime and
// the label vocabulary together. It is constructed once at startup and
// is safe for concurrent use: labels and the runtime are read-only after
// construction and every request works on its own tensors.
type Classifier struct {
	runtime Runtime
	labels  []string
}

// NewClassifier wires an already-initialized runtime to a label
// vocabulary. The vocabulary length must match the model's class count;
// a mismatch would silently assign wrong labels to logit indices, so it
// is rejected here instead of surfacing at prediction time.
func NewClassifier(runtime Runtime, labels []string) (*Classifier, error) {
	if n := runtime.Classes(); n != len(labels) {
		return nil, fmt.Errorf("label vocabulary has %d entries but the model outputs %d classes", len(labels), n)
	}
	return &Classifier{runtime: runtime, labels: labels}, nil
}

// LoadClassifier loads the model artifact and label vocabulary from
// disk. Both paths are checked for existence before either file is
// parsed, so a missing file yields one clear diagnostic instead of a
// downstream parse failure.
func LoadClassifier(modelPath, labelsPath string) (*Classifier, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w at '%s', run the export script to generate it", ErrModelNotFound, modelPath)
	}
	if _, err := os.Stat(labelsPath); err != nil {
		return nil, fmt.Errorf("%w at '%s', run the export script to generate it", ErrLabelsNotFound, labelsPath)
	}

	labels, err := loadLabels(labelsPath)
	if err != nil {
		return nil, err
	}

	runtime, err := LoadOnnxRuntime(modelPath)
	if err != nil {
		return nil, err
	}

	classifier, err := NewClassifier(runtime, labels)
	if err != nil {
		runtime.Release()
		return nil, err
	}
	return classifier, nil
}

func loadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels file '%s': %w", path, err)
	}

	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("failed to parse labels file '%s': %w", path, err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file '%s' contains no labels", path)
	}
	return labels, nil
}

// Predict runs the full pipeline on raw image bytes and returns the
// ranked top-K predictions. Errors are per-request and leave the
// classifier fully usable.
func (c *Classifier) Predict(image []byte, topK int) ([]api.Prediction, error) {
	tensor, err := Preprocess(image)
	if err != nil {
		return nil, err
	}

	logits, err := c.runtime.Run(tensor)
	if err != nil {
		return nil, err
	}

	return Rank(logits, c.labels, topK), nil
}

func (c *Classifier) Labels() []string { return c.labels }

func (c *Classifier) Release() { c.runtime.Release() }
