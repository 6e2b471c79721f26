package analyze

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules file: %v", err)
	}
	return path
}

func TestLoadRulesMissingFileFallsBack(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if len(rules) != len(DefaultRules()) {
		t.Errorf("rules = %d, want default table size %d", len(rules), len(DefaultRules()))
	}
}

func TestLoadRulesParsesBothVariants(t *testing.T) {
	path := writeRules(t, `
rules:
  - type: segfault
    label: Segmentation fault
    icon: "💥"
    patterns: ["Segmentation fault", "SIGSEGV"]
  - type: javatrace
    label: Java stack trace
    icon: "☕"
    start: '^Exception in thread '
    continuation: '^(Caused by|at )'
  - type: retry
    label: Retry storm
    patterns: ["retrying request"]
    collapse: true
    max_show: 2
`)
	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("rules = %d, want 3", len(rules))
	}

	if _, ok := rules[0].(*SimpleRule); !ok {
		t.Errorf("rule 0 = %T, want *SimpleRule", rules[0])
	}
	ml, ok := rules[1].(*MultilineRule)
	if !ok {
		t.Fatalf("rule 1 = %T, want *MultilineRule", rules[1])
	}
	if !ml.continues("at com.example.Main.run(Main.java:10)") {
		t.Error("continuation shape should keep the block open")
	}

	meta := rules[2].Meta()
	if !meta.Collapse || meta.MaxShow != 2 {
		t.Errorf("collapse meta = %+v", meta)
	}

	// Loaded table drives the scanner like the built-in one.
	lines := []string{
		"Exception in thread \"main\" java.lang.IllegalStateException",
		"at com.example.Main.run(Main.java:10)",
		"done",
	}
	res := Scan(lines, rules)
	if !res.InBlock[0] || !res.InBlock[1] {
		t.Error("java trace lines should be block members")
	}
	// "done" never entered the block: line 2 matched the continuation and the
	// block closed on line 3 only if it was still open — it was, so line 3 is
	// the closing member.
	if !res.InBlock[2] {
		t.Error("closing line belongs to the block it closes")
	}
}

func TestLoadRulesRejectsBadTable(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad pattern", "rules:\n  - type: x\n    patterns: ['[']\n"},
		{"no patterns or start", "rules:\n  - type: x\n    label: X\n"},
		{"start and patterns", "rules:\n  - type: x\n    start: 'a'\n    patterns: ['b']\n"},
		{"collapse without max_show", "rules:\n  - type: x\n    patterns: ['a']\n    collapse: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadRules(writeRules(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
