package run

import (
	"fmt"

	"mcprice/domain/core"
)

// CodeVersion is stamped into every fingerprint; bump it when the kernel's
// numerical output can change for the same inputs.
const CodeVersion = "1.0.0"

// RunFingerprint identifies everything that determines a run's output bits
type RunFingerprint struct {
	Parameters  string    `json:"parameters" yaml:"parameters"`
	Seed        uint64    `json:"seed" yaml:"seed"`
	Strategy    string    `json:"strategy" yaml:"strategy"`
	BatchSize   int       `json:"batch_size" yaml:"batch_size"`
	CodeVersion string    `json:"code_version" yaml:"code_version"`
	Fingerprint core.Hash `json:"fingerprint" yaml:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters.
// Worker count is not an input: it never changes the result.
func NewRunFingerprint(parameters string, seed uint64, strategy string, batchSize int, codeVersion string) RunFingerprint {
	return RunFingerprint{
		Parameters:  parameters,
		Seed:        seed,
		Strategy:    strategy,
		BatchSize:   batchSize,
		CodeVersion: codeVersion,
		Fingerprint: computeRunFingerprint(parameters, seed, strategy, batchSize, codeVersion),
	}
}

// computeRunFingerprint generates deterministic hash from all determinism parameters
func computeRunFingerprint(parameters string, seed uint64, strategy string, batchSize int, codeVersion string) core.Hash {
	data := fmt.Sprintf("params:%s|seed:%d|strategy:%s|batch:%d|code:%s",
		parameters, seed, strategy, batchSize, codeVersion)
	return core.NewHash([]byte(data))
}
