package run

import (
	"mcprice/domain/core"
	"mcprice/domain/option"
)

// Manifest describes one pricing run: who it was, what it was asked, and the
// fingerprint that two runs must share to be bit-identical
type Manifest struct {
	RunID       core.RunID     `json:"run_id" yaml:"run_id"`
	Seed        uint64         `json:"seed" yaml:"seed"`
	NumPaths    int            `json:"num_paths" yaml:"num_paths"`
	Strategy    string         `json:"strategy" yaml:"strategy"`
	BatchSize   int            `json:"batch_size" yaml:"batch_size"`
	Workers     int            `json:"workers" yaml:"workers"`
	CodeVersion string         `json:"code_version" yaml:"code_version"`
	Fingerprint RunFingerprint `json:"fingerprint" yaml:"fingerprint"`
	CreatedAt   core.Timestamp `json:"created_at" yaml:"created_at"`
}

// NewManifest creates a run manifest for a validated parameter set
func NewManifest(params option.SimulationParameters, seed uint64, strategy string, batchSize, workers int) *Manifest {
	return &Manifest{
		RunID:       core.NewRunID(),
		Seed:        seed,
		NumPaths:    params.NumPaths(),
		Strategy:    strategy,
		BatchSize:   batchSize,
		Workers:     workers,
		CodeVersion: CodeVersion,
		Fingerprint: NewRunFingerprint(params.Canonical(), seed, strategy, batchSize, CodeVersion),
		CreatedAt:   core.Now(),
	}
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if m.NumPaths <= 0 {
		return core.NewValidationError("run_manifest", "num_paths must be > 0")
	}
	if m.Strategy == "" {
		return core.NewValidationError("run_manifest", "strategy cannot be empty")
	}
	if m.Fingerprint.Fingerprint.IsEmpty() {
		return core.NewValidationError("run_manifest", "fingerprint cannot be empty")
	}
	return nil
}

// SameInputs reports whether two manifests must produce identical results
func (m *Manifest) SameInputs(other *Manifest) bool {
	return m.Fingerprint.Fingerprint.Equals(other.Fingerprint.Fingerprint)
}
