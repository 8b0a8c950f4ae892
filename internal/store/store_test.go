package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bmltera/codescanner/internal/bus"
	"github.com/bmltera/codescanner/internal/finding"
)

func sqlInjection() finding.Finding {
	return finding.Finding{
		Vulnerability: "SQL Injection",
		RiskScore:     finding.RiskHigh,
		Filename:      "a.py",
		LinesAffected: []int{10},
	}
}

func TestAddAll_CrossBatchDedup(t *testing.T) {
	// Scenario: the same finding submitted in two separate batches ends up
	// stored exactly once.
	s := New(bus.New(), nil)

	if n := s.AddAll([]finding.Finding{sqlInjection()}); n != 1 {
		t.Fatalf("first AddAll appended %d, want 1", n)
	}
	if n := s.AddAll([]finding.Finding{sqlInjection()}); n != 0 {
		t.Fatalf("second AddAll appended %d, want 0", n)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestAddAll_IntraBatchDuplicatesKept(t *testing.T) {
	// Duplicates inside a single batch are NOT collapsed; only keys already
	// present in the store filter the batch.
	s := New(bus.New(), nil)

	if n := s.AddAll([]finding.Finding{sqlInjection(), sqlInjection()}); n != 2 {
		t.Fatalf("AddAll appended %d, want 2 (intra-batch dedup must not happen)", n)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}

	// A later batch with the same key is fully filtered.
	if n := s.AddAll([]finding.Finding{sqlInjection()}); n != 0 {
		t.Errorf("third AddAll appended %d, want 0", n)
	}
}

func TestAddAll_PreservesArrivalOrder(t *testing.T) {
	s := New(bus.New(), nil)
	batch1 := []finding.Finding{
		{Vulnerability: "A", Filename: "x.go", RiskScore: finding.RiskHigh},
		{Vulnerability: "B", Filename: "y.go", RiskScore: finding.RiskLow},
	}
	batch2 := []finding.Finding{
		{Vulnerability: "C", Filename: "z.go", RiskScore: finding.RiskMedium},
	}
	s.AddAll(batch1)
	s.AddAll(batch2)

	var got []string
	for _, f := range s.Findings() {
		got = append(got, f.Vulnerability)
	}
	// High-risk entries must not be hoisted; order is arrival order.
	if diff := cmp.Diff([]string{"A", "B", "C"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestAddAll_EmptyBatchNoNotification(t *testing.T) {
	events := bus.New()
	var n int
	events.Subscribe(bus.Func(func(bus.Event) { n++ }))

	s := New(events, nil)
	s.AddAll(nil)
	s.AddAll([]finding.Finding{})

	if n != 0 {
		t.Errorf("empty batches published %d events, want 0", n)
	}
}

func TestAddAll_PublishesSnapshot(t *testing.T) {
	events := bus.New()
	var got []bus.Event
	events.Subscribe(bus.Func(func(e bus.Event) { got = append(got, e) }))

	s := New(events, func() bool { return true })
	s.AddAll([]finding.Finding{sqlInjection()})

	if len(got) != 1 {
		t.Fatalf("published %d events, want 1", len(got))
	}
	e := got[0]
	if e.Kind != bus.FindingsChanged {
		t.Errorf("kind = %s, want findings-changed", e.Kind)
	}
	if !e.State.Scanning {
		t.Error("snapshot should carry scanning=true")
	}
	if len(e.State.Findings) != 1 {
		t.Errorf("snapshot has %d findings, want 1", len(e.State.Findings))
	}
}

func TestClear(t *testing.T) {
	s := New(bus.New(), nil)
	s.AddAll([]finding.Finding{sqlInjection()})
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", s.Len())
	}

	// A cleared store accepts the same key again: dedup state is per session.
	if n := s.AddAll([]finding.Finding{sqlInjection()}); n != 1 {
		t.Errorf("AddAll after Clear appended %d, want 1", n)
	}
}

func TestFindings_ReturnsCopy(t *testing.T) {
	s := New(bus.New(), nil)
	s.AddAll([]finding.Finding{sqlInjection()})

	snap := s.Findings()
	snap[0].Vulnerability = "mutated"

	if s.Findings()[0].Vulnerability != "SQL Injection" {
		t.Error("Findings returned shared backing storage")
	}
}
