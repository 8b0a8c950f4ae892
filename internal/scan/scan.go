// Package scan drives one scan end-to-end: dependency-manifest analysis
// followed by strictly sequential per-file code analysis. The orchestrator
// is the single writer of scan state; every failure is caught at the
// smallest unit of work (one manifest batch or one file) and never aborts
// the scan.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/bmltera/codescanner/internal/bus"
	"github.com/bmltera/codescanner/internal/collect"
	"github.com/bmltera/codescanner/internal/diagnostics"
	"github.com/bmltera/codescanner/internal/finding"
	"github.com/bmltera/codescanner/internal/logging"
	"github.com/bmltera/codescanner/internal/store"
)

// ErrScanInProgress is returned when a scan is invoked while one is
// already running. At most one scan executes at a time.
var ErrScanInProgress = errors.New("scan already in progress")

// Orchestrator states. There is no third state: a scan either runs or the
// engine is idle.
const (
	stateIdle int32 = iota
	stateScanning
)

// Analyzer is the remote text-generation service performing the risk
// analysis. Both operations return the model's raw text.
type Analyzer interface {
	AnalyzeDependencies(ctx context.Context, specifiers []string) (string, error)
	AnalyzeCode(ctx context.Context, content, path string) (string, error)
}

// ResponseParser turns raw analyzer text into findings. A malformed
// response yields an empty result, never an error.
type ResponseParser interface {
	Parse(raw string) []finding.Finding
}

// Notifier is the transient user-notification primitive.
type Notifier interface {
	Notify(message string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

// Orchestrator sequences one scan over its collaborators.
type Orchestrator struct {
	state atomic.Int32

	manifests      collect.ManifestCollector
	manifestParser collect.ManifestParser
	sources        collect.SourceCollector
	analyzer       Analyzer
	parser         ResponseParser
	findings       *store.Store
	diags          *diagnostics.Publisher
	events         *bus.Bus
	notifier       Notifier
	logger         *slog.Logger

	readFile func(string) ([]byte, error)
}

// Config wires an Orchestrator. Findings, Events, Analyzer, Parser and the
// collectors are required; Notifier and Diagnostics may be nil.
type Config struct {
	Manifests      collect.ManifestCollector
	ManifestParser collect.ManifestParser
	Sources        collect.SourceCollector
	Analyzer       Analyzer
	Parser         ResponseParser
	Findings       *store.Store
	Diagnostics    *diagnostics.Publisher
	Events         *bus.Bus
	Notifier       Notifier
}

// New returns an idle Orchestrator.
func New(cfg Config) *Orchestrator {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Orchestrator{
		manifests:      cfg.Manifests,
		manifestParser: cfg.ManifestParser,
		sources:        cfg.Sources,
		analyzer:       cfg.Analyzer,
		parser:         cfg.Parser,
		findings:       cfg.Findings,
		diags:          cfg.Diagnostics,
		events:         cfg.Events,
		notifier:       notifier,
		logger:         logging.New("scan"),
		readFile:       os.ReadFile,
	}
}

// Scanning reports whether a scan is currently running.
func (o *Orchestrator) Scanning() bool {
	return o.state.Load() == stateScanning
}

// Scan runs one scan. It fails fast with ErrScanInProgress when a scan is
// already running; otherwise it always returns to idle, publishing
// scanning-ended with the final snapshot regardless of intermediate
// failures.
func (o *Orchestrator) Scan(ctx context.Context) error {
	if !o.state.CompareAndSwap(stateIdle, stateScanning) {
		return ErrScanInProgress
	}

	o.findings.Clear()
	if o.diags != nil {
		o.diags.Clear()
	}
	o.events.Publish(bus.Event{
		Kind:  bus.ScanningStarted,
		State: bus.NewSnapshot(true, nil),
	})
	o.logger.Info("scan started")

	o.analyzeManifests(ctx)
	o.analyzeSourceFiles(ctx)

	o.state.Store(stateIdle)
	final := bus.NewSnapshot(false, o.findings.Findings())
	o.events.Publish(bus.Event{Kind: bus.ScanningEnded, State: final})
	o.logger.Info("scan finished", "findings", len(final.Findings))
	return nil
}

// analyzeManifests is phase 1: collect manifests, parse specifiers, and
// analyze the full list in one call. Failures are reported and do not
// abort phase 2.
func (o *Orchestrator) analyzeManifests(ctx context.Context) {
	paths, err := o.manifests.DiscoverManifests(ctx)
	if err != nil {
		o.report(fmt.Sprintf("manifest discovery failed: %v", err))
		return
	}

	var specifiers []string
	for _, path := range paths {
		specs, err := o.manifestParser.Parse(path)
		if err != nil {
			o.report(fmt.Sprintf("cannot parse manifest %s: %v", path, err))
			continue
		}
		for _, s := range specs {
			specifiers = append(specifiers, s.String())
		}
	}
	if len(specifiers) == 0 {
		o.logger.Debug("no dependency specifiers found", "manifests", len(paths))
		return
	}

	raw, err := o.analyzer.AnalyzeDependencies(ctx, specifiers)
	if err != nil {
		o.report(fmt.Sprintf("dependency analysis failed: %v", err))
		return
	}
	o.findings.AddAll(o.parser.Parse(raw))
}

// analyzeSourceFiles is phase 2: strictly sequential per-file analysis.
// Remote calls are rate- and context-limited, so there is no fan-out here.
// A failure for one file is reported and the loop continues.
func (o *Orchestrator) analyzeSourceFiles(ctx context.Context) {
	files, err := o.sources.DiscoverSourceFiles(ctx)
	if err != nil {
		o.report(fmt.Sprintf("source discovery failed: %v", err))
		return
	}
	if len(files) == 0 {
		// Nothing to analyze is a no-op, not an error.
		o.logger.Debug("no source files found")
		return
	}

	for _, file := range files {
		content, err := o.readFile(file)
		if err != nil {
			o.report(fmt.Sprintf("cannot read %s: %v", file, err))
			continue
		}

		raw, err := o.analyzer.AnalyzeCode(ctx, string(content), file)
		if err != nil {
			o.report(fmt.Sprintf("analysis of %s failed: %v", file, err))
			continue
		}

		o.findings.AddAll(o.parser.Parse(raw))
		if o.diags != nil {
			o.diags.PublishFile(file, raw)
		}
	}
}

func (o *Orchestrator) report(msg string) {
	o.logger.Warn(msg)
	o.notifier.Notify(msg)
}
