package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const artifactVersion = 1

// Artifact is the persisted production predictor: the fitted encoder plus
// the winning classifier. It is overwritten wholesale on each retrain, the
// training log keeps the history.
type Artifact struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Model     string    `json:"model"`
	Encoder   *Encoder  `json:"encoder"`
	Logistic  *Logistic `json:"logistic,omitempty"`
	Forest    *Forest   `json:"forest,omitempty"`
}

func newArtifact(name string, enc *Encoder, m classifier) (*Artifact, error) {
	a := &Artifact{
		Version:   artifactVersion,
		CreatedAt: time.Now().UTC(),
		Model:     name,
		Encoder:   enc,
	}

	switch m := m.(type) {
	case *Logistic:
		a.Logistic = m
	case *Forest:
		a.Forest = m
	default:
		return nil, fmt.Errorf("unknown classifier type for %s", name)
	}

	return a, nil
}

// Predict returns the binary delay prediction for one input. Unseen
// categorical values encode as zeros and never error.
func (a *Artifact) Predict(in Input) (bool, error) {
	if a.Encoder == nil {
		return false, errors.New("artifact has no encoder")
	}

	x := a.Encoder.Transform(in)
	switch {
	case a.Logistic != nil:
		return a.Logistic.Predict(x), nil
	case a.Forest != nil:
		return a.Forest.Predict(x), nil
	default:
		return false, errors.New("artifact has no classifier")
	}
}

// Encode serializes the artifact for the record store.
func (a *Artifact) Encode() ([]byte, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model artifact: %w", err)
	}
	return b, nil
}

// DecodeArtifact restores a persisted artifact.
func DecodeArtifact(b []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("unsupported model artifact version: %d", a.Version)
	}
	return &a, nil
}
