// Package state defines the scan session state and its durable image.
//
// ScanState is owned exclusively by the orchestrator. The persistence layer
// and the presentation adapters hold read/mirror copies only, never
// independent sources of truth.
package state

import (
	"encoding/json"
	"fmt"

	"github.com/bmltera/codescanner/internal/finding"
)

// Storage keys. KeyState holds the combined {scanning, findings} snapshot
// for full-state hydration; KeyFindings holds the findings array alone and
// is kept for backward compatibility with earlier on-disk layouts. Both are
// written together on every mutation.
const (
	KeyState    = "scan/state"
	KeyFindings = "scan/findings"
)

// ScanState is the live session state: whether a scan is running and the
// findings discovered so far, in discovery order.
type ScanState struct {
	Scanning bool              `json:"scanning"`
	Findings []finding.Finding `json:"findings"`
}

// Persist writes the durable image of st under both storage keys.
// Called after every mutation so a process restart replays the last state.
func Persist(kv KV, st ScanState) error {
	if st.Findings == nil {
		st.Findings = []finding.Finding{}
	}
	full, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal scan state: %w", err)
	}
	findingsOnly, err := json.Marshal(st.Findings)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}
	pairs := []Pair{
		{Key: KeyState, Value: full},
		{Key: KeyFindings, Value: findingsOnly},
	}
	// Both keys in one atomic write when the store supports it, so a crash
	// cannot leave them inconsistent.
	if m, ok := kv.(MultiKV); ok {
		if err := m.SetMulti(pairs); err != nil {
			return fmt.Errorf("persist scan state: %w", err)
		}
		return nil
	}
	for _, p := range pairs {
		if err := kv.Set(p.Key, p.Value); err != nil {
			return fmt.Errorf("persist %s: %w", p.Key, err)
		}
	}
	return nil
}

// Load reads the durable image back. It prefers the full-state key and
// falls back to the legacy findings-only key (scanning=false). The second
// return is false when neither key is present.
func Load(kv KV) (ScanState, bool, error) {
	data, ok, err := kv.Get(KeyState)
	if err != nil {
		return ScanState{}, false, fmt.Errorf("load scan state: %w", err)
	}
	if ok {
		var st ScanState
		if err := json.Unmarshal(data, &st); err != nil {
			return ScanState{}, false, fmt.Errorf("decode scan state: %w", err)
		}
		return st, true, nil
	}

	data, ok, err = kv.Get(KeyFindings)
	if err != nil {
		return ScanState{}, false, fmt.Errorf("load findings: %w", err)
	}
	if !ok {
		return ScanState{}, false, nil
	}
	var fs []finding.Finding
	if err := json.Unmarshal(data, &fs); err != nil {
		return ScanState{}, false, fmt.Errorf("decode findings: %w", err)
	}
	return ScanState{Scanning: false, Findings: fs}, true, nil
}
