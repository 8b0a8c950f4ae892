package diagnostics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recordingSink struct {
	replaced map[string][]Diagnostic
	cleared  int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{replaced: make(map[string][]Diagnostic)}
}

func (s *recordingSink) Replace(file string, diags []Diagnostic) { s.replaced[file] = diags }
func (s *recordingSink) Clear()                                  { s.cleared++ }

func TestExtract_MultipleIssues(t *testing.T) {
	raw := `Here is my analysis:

Type: SQL Injection
Description: user input concatenated into a query
Line: 42

Type: Hardcoded Secret
Description: API key committed to source
Line: 7
`
	got := Extract("src/db.py", raw)
	want := []Diagnostic{
		{File: "src/db.py", Line: 41, Type: "SQL Injection", Description: "user input concatenated into a query"},
		{File: "src/db.py", Line: 6, Type: "Hardcoded Secret", Description: "API key committed to source"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_BulletedFields(t *testing.T) {
	raw := "- Type: XSS\n- Description: unescaped template value\n- Line: 3\n"
	got := Extract("a.js", raw)
	if len(got) != 1 || got[0].Line != 2 || got[0].Type != "XSS" {
		t.Errorf("Extract = %+v", got)
	}
}

func TestExtract_IncompleteGroupDropped(t *testing.T) {
	raw := "Type: XSS\nLine: 3\n\nType: CSRF\nDescription: no token check\n"
	if got := Extract("a.js", raw); len(got) != 0 {
		t.Errorf("incomplete groups must be dropped, got %+v", got)
	}
}

func TestExtract_NonPositiveLineDropped(t *testing.T) {
	raw := "Type: XSS\nDescription: bad\nLine: 0\n"
	if got := Extract("a.js", raw); len(got) != 0 {
		t.Errorf("line 0 must be dropped, got %+v", got)
	}
}

func TestExtract_NoMatches(t *testing.T) {
	if got := Extract("a.js", `{"findings":[]}`); len(got) != 0 {
		t.Errorf("Extract on JSON = %+v, want none", got)
	}
}

func TestPublishFile_ReplacesCollection(t *testing.T) {
	sink := newRecordingSink()
	p := New(sink)

	p.PublishFile("a.py", "Type: XSS\nDescription: one\nLine: 5\n")
	if got := p.ForFile("a.py"); len(got) != 1 {
		t.Fatalf("first publish: %d diagnostics", len(got))
	}

	// A later scan of the same file with no issues clears its collection.
	p.PublishFile("a.py", "all clean")
	if got := p.ForFile("a.py"); len(got) != 0 {
		t.Errorf("collection not replaced: %+v", got)
	}
	if got := sink.replaced["a.py"]; len(got) != 0 {
		t.Errorf("sink not told about the replacement: %+v", got)
	}
}

func TestClear(t *testing.T) {
	sink := newRecordingSink()
	p := New(sink)
	p.PublishFile("a.py", "Type: XSS\nDescription: one\nLine: 5\n")

	p.Clear()
	if p.Len() != 0 {
		t.Errorf("Len after Clear = %d", p.Len())
	}
	if sink.cleared != 1 {
		t.Errorf("sink.Clear called %d times, want 1", sink.cleared)
	}
}
