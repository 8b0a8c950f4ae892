// Package bus is the typed publish/subscribe channel for scan lifecycle
// signals. The orchestrator owns one Bus and injects it into both
// presentation adapters; there is no ambient global state.
package bus

import (
	"sync"

	"github.com/bmltera/codescanner/internal/finding"
)

// Kind identifies one lifecycle signal.
type Kind string

const (
	ScanningStarted Kind = "scanning-started"
	FindingsChanged Kind = "findings-changed"
	ScanningEnded   Kind = "scanning-ended"
)

// Snapshot is an immutable copy of the scan state at publish time.
// Subscribers must not mutate Findings.
type Snapshot struct {
	Scanning bool
	Findings []finding.Finding
}

// NewSnapshot copies findings so later store mutations cannot leak into a
// snapshot already handed to subscribers.
func NewSnapshot(scanning bool, findings []finding.Finding) Snapshot {
	cp := make([]finding.Finding, len(findings))
	copy(cp, findings)
	return Snapshot{Scanning: scanning, Findings: cp}
}

// Event is one published lifecycle signal with its state snapshot.
type Event struct {
	Kind  Kind
	State Snapshot
}

// Subscriber receives lifecycle events. Delivery is synchronous on the
// publisher's goroutine, in subscription order.
type Subscriber interface {
	OnScanEvent(Event)
}

// Func adapts a plain function to the Subscriber interface.
type Func func(Event)

func (f Func) OnScanEvent(e Event) { f(e) }

// Bus fans lifecycle events out to subscribers.
type Bus struct {
	mu   sync.Mutex
	subs []Subscriber
}

func New() *Bus { return &Bus{} }

// Subscribe registers a subscriber for all subsequent events.
func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, s)
}

// Publish delivers the event to every subscriber in subscription order.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	subs := make([]Subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.OnScanEvent(e)
	}
}
