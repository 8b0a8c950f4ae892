// Package store holds the deduplicating ordered collection of findings for
// the active scan session.
package store

import (
	"log/slog"
	"sync"

	"github.com/bmltera/codescanner/internal/bus"
	"github.com/bmltera/codescanner/internal/finding"
	"github.com/bmltera/codescanner/internal/logging"
)

// Store is the session finding collection. Insertion order is discovery
// order and is never reordered. The orchestrator is the single writer;
// adapters read snapshots only.
type Store struct {
	mu       sync.Mutex
	findings []finding.Finding

	events   *bus.Bus
	scanning func() bool
	logger   *slog.Logger
}

// New returns an empty Store publishing change notifications on events.
// scanning reports the orchestrator's current scan flag for snapshot
// payloads; nil means "not scanning".
func New(events *bus.Bus, scanning func() bool) *Store {
	if scanning == nil {
		scanning = func() bool { return false }
	}
	return &Store{events: events, scanning: scanning, logger: logging.New("store")}
}

// Clear empties the collection. Per-session identity counters held by the
// tree surface are reset by the scanning-started signal that follows every
// clear.
func (s *Store) Clear() {
	s.mu.Lock()
	s.findings = nil
	s.mu.Unlock()
}

// AddAll appends the entries of batch whose identity key does not match a
// pre-existing entry, preserving batch order. Duplicate keys WITHIN batch
// are all kept unless the key also matches a pre-existing entry: global
// deduplication is deliberately not guaranteed, only cross-batch.
// Emits findings-changed when at least one entry was appended.
// Returns the number of appended entries.
func (s *Store) AddAll(batch []finding.Finding) int {
	if len(batch) == 0 {
		return 0
	}

	s.mu.Lock()
	existing := make(map[string]struct{}, len(s.findings))
	for _, f := range s.findings {
		existing[f.Key()] = struct{}{}
	}

	appended := 0
	for _, f := range batch {
		if _, dup := existing[f.Key()]; dup {
			continue
		}
		s.findings = append(s.findings, f)
		appended++
	}
	snap := bus.NewSnapshot(s.scanning(), s.findings)
	s.mu.Unlock()

	if appended == 0 {
		s.logger.Debug("batch fully deduplicated", "batch", len(batch))
		return 0
	}

	s.logger.Debug("findings appended", "appended", appended, "dropped", len(batch)-appended)
	if s.events != nil {
		s.events.Publish(bus.Event{Kind: bus.FindingsChanged, State: snap})
	}
	return appended
}

// Findings returns a copy of the collection in insertion order.
func (s *Store) Findings() []finding.Finding {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]finding.Finding, len(s.findings))
	copy(cp, s.findings)
	return cp
}

// Len returns the number of stored findings.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.findings)
}
