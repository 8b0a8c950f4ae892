// Package view holds the two presentation adapters: the ephemeral findings
// tree and the persistent panel. Both subscribe to the scan lifecycle bus
// and hold mirror copies only; the orchestrator owns the state.
package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/bmltera/codescanner/internal/bus"
	"github.com/bmltera/codescanner/internal/display"
	"github.com/bmltera/codescanner/internal/finding"
	"github.com/bmltera/codescanner/internal/format"
	"github.com/bmltera/codescanner/internal/logging"
)

// Navigator is the editor-navigation primitive: open a file at a 1-based
// line. The CLI implementation prints a location; an editor host would
// focus it.
type Navigator interface {
	OpenFile(path string, line int) error
}

// NodeKind discriminates tree node roles.
type NodeKind int

const (
	NodeStartScan NodeKind = iota // fixed action node shown when idle
	NodeScanning                  // placeholder shown while a scan runs
	NodeFinding                   // one finding
	NodeLines                     // detail: affected lines
	NodeExplanation               // detail
	NodeRecommendation            // detail
	NodeOpenFile                  // detail action: open file at first line
)

// Node is one visible tree entry. IDs are assigned from a monotonically
// increasing counter scoped to the current session, so re-renders can diff
// stable identities.
type Node struct {
	ID    int
	Kind  NodeKind
	Label string
	Icon  string

	finding *finding.Finding
}

// Tree is the ephemeral surface: it recomputes its visible structure on
// every lifecycle signal and holds nothing durable.
type Tree struct {
	mu       sync.Mutex
	counter  int
	scanning bool
	roots    []Node
	nav      Navigator
	logger   *slog.Logger
}

// NewTree returns a Tree resolving open-file actions through nav.
func NewTree(nav Navigator) *Tree {
	t := &Tree{nav: nav, logger: logging.New("tree")}
	t.recompute(bus.Snapshot{})
	return t
}

// OnScanEvent implements bus.Subscriber.
func (t *Tree) OnScanEvent(e bus.Event) {
	t.mu.Lock()
	if e.Kind == bus.ScanningStarted {
		// New session: the node identity counter restarts.
		t.counter = 0
	}
	t.mu.Unlock()
	t.recompute(e.State)
}

func (t *Tree) recompute(snap bus.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.scanning = snap.Scanning
	t.roots = t.roots[:0]

	if snap.Scanning {
		t.roots = append(t.roots, Node{
			ID:    t.nextID(),
			Kind:  NodeScanning,
			Label: "Scanning workspace…",
		})
		return
	}

	t.roots = append(t.roots, Node{
		ID:    t.nextID(),
		Kind:  NodeStartScan,
		Label: "Start Scan",
	})
	for i := range snap.Findings {
		f := snap.Findings[i]
		t.roots = append(t.roots, Node{
			ID:      t.nextID(),
			Kind:    NodeFinding,
			Label:   display.FindingLabel(f),
			Icon:    display.RiskIcon(f.RiskScore),
			finding: &f,
		})
	}
}

// nextID must be called with mu held.
func (t *Tree) nextID() int {
	t.counter++
	return t.counter
}

// Roots returns the current visible root level.
func (t *Tree) Roots() []Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := make([]Node, len(t.roots))
	copy(cp, t.roots)
	return cp
}

// Expand lazily materializes the four fixed detail nodes of a finding
// node. Non-finding nodes have no children.
func (t *Tree) Expand(n Node) []Node {
	if n.Kind != NodeFinding || n.finding == nil {
		return nil
	}
	f := n.finding

	t.mu.Lock()
	defer t.mu.Unlock()
	return []Node{
		{ID: t.nextID(), Kind: NodeLines, Label: "Lines: " + joinLines(f.LinesAffected), finding: f},
		{ID: t.nextID(), Kind: NodeExplanation, Label: "Explanation: " + f.Explanation, finding: f},
		{ID: t.nextID(), Kind: NodeRecommendation, Label: "Recommendation: " + f.Recommendation, finding: f},
		{ID: t.nextID(), Kind: NodeOpenFile, Label: openLabel(f), finding: f},
	}
}

// Activate performs a node's action. The open-file action resolves the
// finding's file and first affected line through the Navigator.
func (t *Tree) Activate(n Node) error {
	if n.Kind != NodeOpenFile || n.finding == nil {
		return nil
	}
	if t.nav == nil {
		return fmt.Errorf("no navigator registered")
	}
	line := n.finding.FirstLine()
	if line < 1 {
		line = 1
	}
	return t.nav.OpenFile(n.finding.Filename, line)
}

// Render draws the whole tree, findings expanded, with connected guides.
func (t *Tree) Render() string {
	tr := format.NewTree()
	for _, root := range t.Roots() {
		label := root.Label
		if root.Icon != "" {
			label = root.Icon + " " + label
		}
		tr.Item(label)
		if root.Kind != NodeFinding {
			continue
		}
		tr.Indent()
		for _, child := range t.Expand(root) {
			tr.Item(child.Label)
		}
		tr.Unindent()
	}
	return tr.String()
}

func joinLines(lines []int) string {
	if len(lines) == 0 {
		return "none"
	}
	parts := make([]string, len(lines))
	for i, n := range lines {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

func openLabel(f *finding.Finding) string {
	line := f.FirstLine()
	if line < 1 {
		line = 1
	}
	return fmt.Sprintf("Open %s:%d", f.Filename, line)
}
