package view

import (
	"log/slog"
	"sync"

	"github.com/bmltera/codescanner/internal/bus"
	"github.com/bmltera/codescanner/internal/display"
	"github.com/bmltera/codescanner/internal/format"
	"github.com/bmltera/codescanner/internal/logging"
	"github.com/bmltera/codescanner/internal/state"
)

// Panel is the persistent surface. It mirrors the full scan state in
// memory and serializes it to durable storage after every mutation, so a
// process restart replays the last completed scan without re-scanning.
type Panel struct {
	mu     sync.Mutex
	st     state.ScanState
	kv     state.KV
	logger *slog.Logger
}

// NewPanel returns a Panel backed by kv.
func NewPanel(kv state.KV) *Panel {
	return &Panel{kv: kv, logger: logging.New("panel")}
}

// Init reads the durable image and replays it into the mirror. Must run
// before any new scan so reopening the panel shows the prior results.
// A missing image leaves the zero state; a corrupt one is an error.
func (p *Panel) Init() error {
	st, ok, err := state.Load(p.kv)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	// A scan cannot survive a restart; a persisted scanning=true only means
	// the process died mid-scan.
	st.Scanning = false

	p.mu.Lock()
	p.st = st
	p.mu.Unlock()
	p.logger.Debug("panel rehydrated", "findings", len(st.Findings))
	return nil
}

// OnScanEvent implements bus.Subscriber: mirror the snapshot, then persist.
func (p *Panel) OnScanEvent(e bus.Event) {
	st := state.ScanState{Scanning: e.State.Scanning, Findings: e.State.Findings}

	p.mu.Lock()
	p.st = st
	p.mu.Unlock()

	if err := state.Persist(p.kv, st); err != nil {
		p.logger.Error("persist scan state", "err", err)
	}
}

// State returns the current mirror.
func (p *Panel) State() state.ScanState {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := p.st
	cp.Findings = append(cp.Findings[:0:0], p.st.Findings...)
	return cp
}

// Render draws the panel table: one row per finding plus a status footer.
func (p *Panel) Render() string {
	st := p.State()

	tb := format.NewTable(format.ASCII)
	tb.Header("", "Vulnerability", "Risk", "File", "Lines", "Recommendation")
	tb.Columns(
		format.ColumnConfig{Number: 2, MaxWidth: 30},
		format.ColumnConfig{Number: 4, MaxWidth: 40},
		format.ColumnConfig{Number: 6, MaxWidth: 50},
	)
	for _, f := range st.Findings {
		tb.Row(display.RiskIcon(f.RiskScore), f.Vulnerability, display.Risk(f.RiskScore),
			f.Filename, joinLines(f.LinesAffected), f.Recommendation)
	}
	status := "idle"
	if st.Scanning {
		status = "scanning"
	}
	tb.Footer(status, "", "", "", "", len(st.Findings))
	return tb.String()
}
