package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmltera/codescanner/internal/analyzer"
	"github.com/bmltera/codescanner/internal/bus"
	"github.com/bmltera/codescanner/internal/collect"
	"github.com/bmltera/codescanner/internal/config"
	"github.com/bmltera/codescanner/internal/diagnostics"
	"github.com/bmltera/codescanner/internal/parse"
	"github.com/bmltera/codescanner/internal/scan"
	"github.com/bmltera/codescanner/internal/state"
	"github.com/bmltera/codescanner/internal/store"
	"github.com/bmltera/codescanner/internal/view"
)

// app holds the wired runtime: one bus, one store, one orchestrator and the
// panel mirroring durable state.
type app struct {
	cfg    config.Config
	events *bus.Bus
	store  *store.Store
	diags  *diagnostics.Publisher
	kv     *state.SqlKV
	panel  *view.Panel
	orch   *scan.Orchestrator
}

// buildApp loads configuration, opens the state DB and wires the scanner
// components. The panel is rehydrated before anything can start a scan.
func buildApp() (*app, error) {
	cfg, err := config.LoadFromPath(rootFlags.config)
	if err != nil {
		return nil, err
	}
	if rootFlags.db != "" {
		cfg.DBPath = rootFlags.db
	}
	root, err := workspaceRoot()
	if err != nil {
		return nil, err
	}

	kv, err := state.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	panel := view.NewPanel(kv)
	if err := panel.Init(); err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("rehydrate panel: %w", err)
	}

	events := bus.New()
	events.Subscribe(panel)

	var orch *scan.Orchestrator
	findings := store.New(events, func() bool { return orch != nil && orch.Scanning() })
	diags := diagnostics.New(newOutputSink(os.Stderr))

	// A missing key file is fine here; the analyzer rejects calls without
	// a key, and the scan reports that per unit instead of failing fast.
	key, _ := analyzer.ReadAPIKey(cfg.KeyPath)
	client, err := analyzer.New(cfg.BaseURL, key,
		analyzer.WithModel(cfg.Model),
		analyzer.WithTimeout(2*time.Minute),
	)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("build analyzer: %w", err)
	}

	walkerOpts := []collect.WalkerOption{}
	if len(cfg.Extensions) > 0 {
		walkerOpts = append(walkerOpts, collect.WithExtensions(cfg.Extensions))
	}
	if len(cfg.Excludes) > 0 {
		walkerOpts = append(walkerOpts, collect.WithExcludes(cfg.Excludes))
	}
	walker := collect.NewWalker(root, walkerOpts...)

	orch = scan.New(scan.Config{
		Manifests:      walker,
		ManifestParser: collect.Parser{},
		Sources:        walker,
		Analyzer:       client,
		Parser:         parse.New(root),
		Findings:       findings,
		Diagnostics:    diags,
		Events:         events,
		Notifier:       stderrNotifier{},
	})

	return &app{
		cfg:    cfg,
		events: events,
		store:  findings,
		diags:  diags,
		kv:     kv,
		panel:  panel,
		orch:   orch,
	}, nil
}

func (a *app) Close() {
	_ = a.kv.Close()
}

// stderrNotifier surfaces transient scan messages on stderr.
type stderrNotifier struct{}

func (stderrNotifier) Notify(message string) {
	fmt.Fprintln(os.Stderr, message)
}

// stdoutNavigator answers tree activations by printing the jump target.
type stdoutNavigator struct{}

func (stdoutNavigator) OpenFile(path string, line int) error {
	_, err := fmt.Printf("%s:%d\n", path, line)
	return err
}

// workspaceRoot resolves the --root flag to an absolute path. Path
// normalization in the parser needs an absolute root to rewrite
// analyzer-reported paths to workspace-relative form.
func workspaceRoot() (string, error) {
	root, err := filepath.Abs(rootFlags.root)
	if err != nil {
		return "", fmt.Errorf("resolve workspace root: %w", err)
	}
	return root, nil
}

// outputSink is the append-only output channel behind the diagnostics
// publisher: each replaced collection is appended as one line per issue.
// The channel never retracts lines, so Clear emits nothing.
type outputSink struct {
	mu sync.Mutex
	w  io.Writer
}

func newOutputSink(w io.Writer) *outputSink {
	return &outputSink{w: w}
}

func (s *outputSink) Replace(file string, diags []diagnostics.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range diags {
		fmt.Fprintf(s.w, "%s:%d %s: %s\n", file, d.Line+1, d.Type, d.Description)
	}
}

func (s *outputSink) Clear() {}
