package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bmltera/codescanner/internal/diagnostics"
	"github.com/bmltera/codescanner/internal/finding"
	"github.com/bmltera/codescanner/internal/state"
)

func seedStateDB(t *testing.T, findings []finding.Finding) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "state.db")
	kv, err := state.Open(db)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer kv.Close()
	if err := state.Persist(kv, state.ScanState{Findings: findings}); err != nil {
		t.Fatalf("persist: %v", err)
	}
	return db
}

func setTestFlags(t *testing.T, db string) {
	t.Helper()
	prevDB, prevConfig := rootFlags.db, rootFlags.config
	rootFlags.db = db
	rootFlags.config = filepath.Join(t.TempDir(), "absent.yaml")
	t.Cleanup(func() {
		rootFlags.db, rootFlags.config = prevDB, prevConfig
	})
}

func TestRunFindings_Table(t *testing.T) {
	db := seedStateDB(t, []finding.Finding{
		{Vulnerability: "SQL Injection", RiskScore: finding.RiskHigh, Filename: "app/db.py", LinesAffected: []int{42}},
		{Vulnerability: "Weak Hash", RiskScore: finding.RiskLow, Filename: "app/auth.py", LinesAffected: []int{7, 9}},
	})
	setTestFlags(t, db)
	findingsFlags.risk = ""
	findingsFlags.asTree = false
	findingsFlags.markdown = false

	var buf bytes.Buffer
	findingsCmd.SetOut(&buf)
	if err := runFindings(findingsCmd, nil); err != nil {
		t.Fatalf("runFindings: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"SQL Injection", "app/db.py", "42", "Weak Hash", "7,9", "2 finding(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunFindings_RiskFilter(t *testing.T) {
	db := seedStateDB(t, []finding.Finding{
		{Vulnerability: "SQL Injection", RiskScore: finding.RiskHigh, Filename: "app/db.py"},
		{Vulnerability: "Weak Hash", RiskScore: finding.RiskLow, Filename: "app/auth.py"},
	})
	setTestFlags(t, db)
	findingsFlags.risk = "high"
	findingsFlags.asTree = false
	findingsFlags.markdown = false
	t.Cleanup(func() { findingsFlags.risk = "" })

	var buf bytes.Buffer
	findingsCmd.SetOut(&buf)
	if err := runFindings(findingsCmd, nil); err != nil {
		t.Fatalf("runFindings: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "SQL Injection") {
		t.Errorf("high-risk finding missing:\n%s", out)
	}
	if strings.Contains(out, "Weak Hash") {
		t.Errorf("low-risk finding not filtered:\n%s", out)
	}
}

func TestRunFindings_EmptyDB(t *testing.T) {
	db := seedStateDB(t, nil)
	setTestFlags(t, db)
	findingsFlags.risk = ""
	findingsFlags.asTree = false

	var buf bytes.Buffer
	findingsCmd.SetOut(&buf)
	if err := runFindings(findingsCmd, nil); err != nil {
		t.Fatalf("runFindings: %v", err)
	}
	if !strings.Contains(buf.String(), "No findings") {
		t.Errorf("empty DB message missing:\n%s", buf.String())
	}
}

func TestRunPanel_Rehydrates(t *testing.T) {
	db := seedStateDB(t, []finding.Finding{
		{Vulnerability: "XSS", RiskScore: finding.RiskMedium, Filename: "web/form.ts", LinesAffected: []int{3}},
	})
	setTestFlags(t, db)

	var buf bytes.Buffer
	panelCmd.SetOut(&buf)
	if err := runPanel(panelCmd, nil); err != nil {
		t.Fatalf("runPanel: %v", err)
	}
	if !strings.Contains(buf.String(), "XSS") {
		t.Errorf("panel missing rehydrated finding:\n%s", buf.String())
	}
}

func TestOutputSink_AppendsDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	sink := newOutputSink(&buf)
	sink.Replace("app/db.py", []diagnostics.Diagnostic{
		{File: "app/db.py", Line: 41, Type: "SQL Injection", Description: "concatenated query"},
		{File: "app/db.py", Line: 3, Type: "Hardcoded Secret", Description: "api key literal"},
	})
	sink.Clear()
	sink.Replace("app/db.py", nil)

	out := buf.String()
	if !strings.Contains(out, "app/db.py:42 SQL Injection: concatenated query") {
		t.Errorf("first diagnostic missing (1-based line expected):\n%s", out)
	}
	if !strings.Contains(out, "app/db.py:4 Hardcoded Secret: api key literal") {
		t.Errorf("second diagnostic missing:\n%s", out)
	}
	// Append-only: clearing or replacing with nothing emits no lines.
	if got := strings.Count(out, "\n"); got != 2 {
		t.Errorf("output has %d lines, want 2:\n%s", got, out)
	}
}

func TestWorkspaceRoot_Absolute(t *testing.T) {
	prev := rootFlags.root
	rootFlags.root = "."
	t.Cleanup(func() { rootFlags.root = prev })

	root, err := workspaceRoot()
	if err != nil {
		t.Fatalf("workspaceRoot: %v", err)
	}
	if !filepath.IsAbs(root) {
		t.Errorf("root %q is not absolute", root)
	}
}

func TestRunScan_JSONArtifact(t *testing.T) {
	workspace := t.TempDir()
	db := filepath.Join(t.TempDir(), "state.db")
	setTestFlags(t, db)
	prevRoot := rootFlags.root
	t.Cleanup(func() { rootFlags.root = prevRoot })
	scanFlags.json = true
	scanFlags.quiet = false
	t.Cleanup(func() { scanFlags.json = false })

	// An empty workspace scans without any analyzer call.
	var buf bytes.Buffer
	scanCmd.SetOut(&buf)
	scanCmd.SetContext(context.Background())
	if err := runScan(scanCmd, []string{workspace}); err != nil {
		t.Fatalf("runScan: %v", err)
	}

	var artifact state.ScanState
	if err := json.Unmarshal(buf.Bytes(), &artifact); err != nil {
		t.Fatalf("artifact is not valid JSON: %v\n%s", err, buf.String())
	}
	if artifact.Scanning {
		t.Error("artifact reports scanning=true after completion")
	}
	if artifact.Findings == nil || len(artifact.Findings) != 0 {
		t.Errorf("findings = %v, want empty array", artifact.Findings)
	}
}

func TestRunScan_PositionalPathOverridesRoot(t *testing.T) {
	workspace := t.TempDir()
	db := filepath.Join(t.TempDir(), "state.db")
	setTestFlags(t, db)
	prevRoot := rootFlags.root
	rootFlags.root = "/nonexistent"
	t.Cleanup(func() { rootFlags.root = prevRoot })
	scanFlags.json = false
	scanFlags.quiet = true

	var buf bytes.Buffer
	scanCmd.SetOut(&buf)
	scanCmd.SetContext(context.Background())
	if err := runScan(scanCmd, []string{workspace}); err != nil {
		t.Fatalf("runScan: %v", err)
	}
	if rootFlags.root != workspace {
		t.Errorf("root = %q, want positional %q", rootFlags.root, workspace)
	}
	if !strings.Contains(buf.String(), "0 finding(s)") {
		t.Errorf("quiet output:\n%s", buf.String())
	}
}
