// Package parse turns raw analyzer text into validated Finding records.
//
// The analyzer is a text-generation service: responses are expected to be a
// JSON envelope but routinely arrive wrapped in markdown code fences or
// stray whitespace. Parsing is strict after fence stripping: a malformed
// envelope yields zero findings, never a partial extraction and never a
// panic past this boundary.
package parse

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bmltera/codescanner/internal/finding"
	"github.com/bmltera/codescanner/internal/logging"
)

// envelope is the expected analyzer response shape.
type envelope struct {
	Findings []finding.Finding `json:"findings"`
}

// Parser normalizes analyzer responses against one workspace root.
type Parser struct {
	root   string
	logger *slog.Logger
}

// New returns a Parser that rewrites absolute filenames under root to
// root-relative paths. An empty root disables normalization.
func New(root string) *Parser {
	return &Parser{root: filepath.Clean(root), logger: logging.New("parse")}
}

// Parse extracts findings from raw analyzer text. A parse or shape failure
// is logged and yields an empty result set; individual records are passed
// through as received apart from filename normalization.
func (p *Parser) Parse(raw string) []finding.Finding {
	data := cleanJSON([]byte(raw))
	if len(data) == 0 {
		return nil
	}

	var env envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&env); err != nil {
		p.logger.Warn("malformed analyzer response", "err", err, "raw", truncate(raw, 120))
		return nil
	}
	if env.Findings == nil {
		p.logger.Warn("analyzer response missing findings array", "raw", truncate(raw, 120))
		return nil
	}

	out := make([]finding.Finding, 0, len(env.Findings))
	for _, f := range env.Findings {
		f.Filename = p.normalizePath(f.Filename)
		out = append(out, f)
	}
	return out
}

// normalizePath rewrites an absolute path nested under the workspace root
// to the root-relative form with any leading separator stripped. All other
// paths pass through unchanged.
func (p *Parser) normalizePath(name string) string {
	if p.root == "" || p.root == "." || name == "" || !filepath.IsAbs(name) {
		return name
	}
	clean := filepath.Clean(name)
	if clean == p.root {
		return name
	}
	if !strings.HasPrefix(clean, p.root+string(filepath.Separator)) {
		return name
	}
	rel := strings.TrimPrefix(clean, p.root)
	return strings.TrimLeft(rel, string(filepath.Separator))
}

// cleanJSON strips markdown code fences and surrounding whitespace.
func cleanJSON(data []byte) []byte {
	s := bytes.TrimSpace(data)
	if len(s) == 0 {
		return s
	}

	if bytes.HasPrefix(s, []byte("```")) {
		// Strip opening fence line
		if idx := bytes.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		}
		// Strip closing fence
		if bytes.HasSuffix(s, []byte("```")) {
			s = s[:len(s)-3]
		}
		s = bytes.TrimSpace(s)
	}

	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
