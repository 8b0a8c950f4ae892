// Package finding defines the normalized security finding record shared by
// the scan orchestrator, the finding store, and both presentation surfaces.
package finding

import (
	"strconv"
	"strings"
)

// RiskScore is the analyzer-assigned risk tier for one finding.
type RiskScore string

const (
	RiskLow    RiskScore = "low"
	RiskMedium RiskScore = "medium"
	RiskHigh   RiskScore = "high"
)

// Rank returns an integer rank for comparison (low=1, high=3, unknown=0).
func (r RiskScore) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return 0
	}
}

func (r RiskScore) String() string { return string(r) }

// ParseRiskScore parses a risk tier case-insensitively.
// Unknown values map to RiskLow rather than an error: the analyzer is a
// text-generation service and occasionally invents tiers.
func ParseRiskScore(s string) RiskScore {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "medium", "moderate":
		return RiskMedium
	case "high", "critical":
		return RiskHigh
	default:
		return RiskLow
	}
}

// Finding is one reported security or dependency issue.
// Filename is workspace-root-relative when the analyzer reported a path
// under the workspace root; otherwise it is kept as received.
type Finding struct {
	Vulnerability  string    `json:"vulnerability"`
	RiskScore      RiskScore `json:"risk_score"`
	Filename       string    `json:"filename"`
	LinesAffected  []int     `json:"lines_affected"`
	Explanation    string    `json:"explanation"`
	Recommendation string    `json:"recommendation"`
	Reference      string    `json:"reference,omitempty"`
}

// Key returns the identity key: filename|lines|vulnerability.
// Two findings with equal keys are the same logical issue regardless of
// other field differences.
func (f Finding) Key() string {
	lines := make([]string, len(f.LinesAffected))
	for i, n := range f.LinesAffected {
		lines[i] = strconv.Itoa(n)
	}
	return f.Filename + "|" + strings.Join(lines, ",") + "|" + f.Vulnerability
}

// FirstLine returns the first affected line, or 0 when none are recorded.
func (f Finding) FirstLine() int {
	if len(f.LinesAffected) == 0 {
		return 0
	}
	return f.LinesAffected[0]
}
