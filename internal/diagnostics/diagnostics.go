// Package diagnostics is the legacy extraction path feeding editor-native
// diagnostics. It consumes the same raw per-file analyzer text as the
// structured parser but with looser assumptions: a line-oriented pattern
// over Type/Description/Line field lines. The two paths are intentionally
// redundant and must not be unified until one surface is confirmed
// authoritative.
package diagnostics

import (
	"log/slog"
	"regexp"
	"strconv"
	"sync"

	"github.com/bmltera/codescanner/internal/logging"
)

// Diagnostic is one extracted issue anchored at a 0-based line.
type Diagnostic struct {
	File        string
	Line        int
	Type        string
	Description string
}

// Sink receives the replaced diagnostics collection for a file. The CLI
// implementation appends to an output channel; tests record calls.
type Sink interface {
	Replace(file string, diags []Diagnostic)
	Clear()
}

var (
	typePattern = regexp.MustCompile(`^\s*[-*]?\s*Type:\s*(.+?)\s*$`)
	descPattern = regexp.MustCompile(`^\s*[-*]?\s*Description:\s*(.+?)\s*$`)
	linePattern = regexp.MustCompile(`^\s*[-*]?\s*Line:\s*(\d+)\s*$`)
)

// Publisher maintains the per-file diagnostics collections.
type Publisher struct {
	mu     sync.Mutex
	byFile map[string][]Diagnostic
	sink   Sink
	logger *slog.Logger
}

// New returns a Publisher feeding sink (nil for none).
func New(sink Sink) *Publisher {
	return &Publisher{
		byFile: make(map[string][]Diagnostic),
		sink:   sink,
		logger: logging.New("diagnostics"),
	}
}

// Clear drops every collection. Called at scan start.
func (p *Publisher) Clear() {
	p.mu.Lock()
	p.byFile = make(map[string][]Diagnostic)
	p.mu.Unlock()
	if p.sink != nil {
		p.sink.Clear()
	}
}

// PublishFile extracts issues from the raw analyzer text and fully replaces
// the collection for file; a response with no matches clears it.
func (p *Publisher) PublishFile(file, raw string) {
	diags := Extract(file, raw)

	p.mu.Lock()
	p.byFile[file] = diags
	p.mu.Unlock()

	p.logger.Debug("diagnostics replaced", "file", file, "count", len(diags))
	if p.sink != nil {
		p.sink.Replace(file, diags)
	}
}

// ForFile returns the current collection for file.
func (p *Publisher) ForFile(file string) []Diagnostic {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]Diagnostic, len(p.byFile[file]))
	copy(cp, p.byFile[file])
	return cp
}

// Len returns the total number of diagnostics across all files.
func (p *Publisher) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, d := range p.byFile {
		n += len(d)
	}
	return n
}

// Extract runs the line-oriented pattern over raw text: Type, Description
// and Line field lines in sequence make one issue, repeated for zero or
// more issues. The 1-based line is converted to 0-based; incomplete field
// groups are dropped.
func Extract(file, raw string) []Diagnostic {
	var out []Diagnostic
	var cur *Diagnostic

	for _, line := range splitLines(raw) {
		if m := typePattern.FindStringSubmatch(line); m != nil {
			cur = &Diagnostic{File: file, Type: m[1], Line: -1}
			continue
		}
		if cur == nil {
			continue
		}
		if m := descPattern.FindStringSubmatch(line); m != nil && cur.Description == "" {
			cur.Description = m[1]
			continue
		}
		if m := linePattern.FindStringSubmatch(line); m != nil && cur.Description != "" {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 {
				cur = nil
				continue
			}
			cur.Line = n - 1
			out = append(out, *cur)
			cur = nil
		}
	}
	return out
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}
