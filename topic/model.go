package topic

import (
	"encoding/json"
	"fmt"
	"os"
)

// SaveModel writes model to path as indented JSON.
func SaveModel(model *Model, path string) error {
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("topic: encode model: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadModel reads a model written by SaveModel. The factor shapes are
// checked against K and the vocabulary before it is returned.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("topic: %w", err)
	}
	return UnmarshalModel(data)
}

// MarshalModel is the compact JSON form stored alongside a run.
func MarshalModel(model *Model) ([]byte, error) {
	return json.Marshal(model)
}

// UnmarshalModel decodes and validates a model.
func UnmarshalModel(data []byte) (*Model, error) {
	model := new(Model)
	if err := json.Unmarshal(data, model); err != nil {
		return nil, fmt.Errorf("topic: decode model: %w", err)
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return model, nil
}

// New returns the estimator for strategy.
func New(strategy string, nmf NMF, lda LDA) (Estimator, error) {
	switch strategy {
	case StrategyNMF:
		return nmf, nil
	case StrategyLDA:
		return lda, nil
	default:
		return nil, fmt.Errorf("topic: unknown strategy %q: %w", strategy, ErrInvalidParameter)
	}
}
