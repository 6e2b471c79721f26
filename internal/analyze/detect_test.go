package analyze

import (
	"regexp"
	"testing"
)

func TestScanTracebackBlockBoundary(t *testing.T) {
	lines := []string{
		"Traceback (most recent call last):",
		`  File "a.py", line 1`,
		"ValueError: x",
		"normal output resumes",
	}

	res := Scan(lines, DefaultRules())

	wantBlock := []bool{true, true, true, false}
	for i, want := range wantBlock {
		if res.InBlock[i] != want {
			t.Errorf("InBlock[%d] = %v, want %v (%q)", i, res.InBlock[i], want, lines[i])
		}
	}
}

func TestScanBlockSurvivesBlankAndIndentedLines(t *testing.T) {
	lines := []string{
		"Traceback (most recent call last):",
		"",
		`  File "b.py", line 9, in run`,
		"    raise RuntimeError(msg)",
		"RuntimeError: boom",
		"epoch 3 done",
	}

	res := Scan(lines, DefaultRules())
	for i := 0; i < 5; i++ {
		if !res.InBlock[i] {
			t.Errorf("line %d should be inside the traceback block: %q", i+1, lines[i])
		}
	}
	if res.InBlock[5] {
		t.Errorf("line 6 should be outside the block: %q", lines[5])
	}
}

func TestScanFirstMatchWins(t *testing.T) {
	// "CUDA out of memory" matches both the oom and cuda groups; oom is
	// declared first in the default table.
	res := Scan([]string{"RuntimeError: CUDA out of memory. Tried to allocate 2.0 GiB"}, DefaultRules())
	if len(res.Detections) != 1 {
		t.Fatalf("detections = %d, want 1 (first match only)", len(res.Detections))
	}
	if got := res.Detections[0].Type; got != "oom" {
		t.Errorf("type = %q, want oom (declaration order)", got)
	}
}

func TestScanOrderedByLine(t *testing.T) {
	lines := []string{
		"step 1 ok",
		"ERROR something broke",
		"step 2 ok",
		"Out of memory on node 4",
	}
	dets := Detect(lines, DefaultRules())
	if len(dets) != 2 {
		t.Fatalf("detections = %d, want 2", len(dets))
	}
	if dets[0].Line != 2 || dets[1].Line != 4 {
		t.Errorf("lines = %d,%d want 2,4", dets[0].Line, dets[1].Line)
	}
	if dets[0].Type != "error" || dets[1].Type != "oom" {
		t.Errorf("types = %s,%s", dets[0].Type, dets[1].Type)
	}
}

func collapseRules(maxShow int) []Rule {
	return []Rule{
		&SimpleRule{
			RuleMeta: RuleMeta{Type: "warning", Label: "Warning", Icon: "⚠", Collapse: true, MaxShow: maxShow},
			Patterns: []*regexp.Regexp{regexp.MustCompile(`WARN`)},
		},
	}
}

func TestScanCollapseRepeats(t *testing.T) {
	var lines []string
	for i := 0; i < 7; i++ {
		lines = append(lines, "WARN deprecated flag")
	}

	dets := Detect(lines, collapseRules(3))
	if len(dets) != 3 {
		t.Fatalf("emitted = %d, want 3 (max_show)", len(dets))
	}
	for i, d := range dets {
		if d.Count != i+1 {
			t.Errorf("detection %d count = %d, want %d", i, d.Count, i+1)
		}
		if d.Total != 7 {
			t.Errorf("detection %d total = %d, want 7 (collapsed occurrences still counted)", i, d.Total)
		}
	}
}

func TestScanCollapseBelowLimitEmitsAll(t *testing.T) {
	lines := []string{"WARN a", "WARN b"}
	dets := Detect(lines, collapseRules(5))
	if len(dets) != 2 {
		t.Fatalf("emitted = %d, want 2", len(dets))
	}
	if dets[1].Total != 2 {
		t.Errorf("total = %d, want 2", dets[1].Total)
	}
}

func TestScanPreviewBounded(t *testing.T) {
	long := "ERROR "
	for len(long) < 400 {
		long += "xxxxxxxxxx"
	}
	dets := Detect([]string{long}, DefaultRules())
	if len(dets) != 1 {
		t.Fatalf("detections = %d, want 1", len(dets))
	}
	if len(dets[0].Preview) > previewLimit+len("…") {
		t.Errorf("preview length = %d, want <= %d", len(dets[0].Preview), previewLimit+len("…"))
	}
}

func TestSummarizeGroupsAndDismissByType(t *testing.T) {
	lines := []string{
		"Out of memory on rank 0",
		"ERROR stage failed",
		"Out of memory on rank 1",
	}
	dets := Detect(lines, DefaultRules())

	dismissed := NewDismissSet()
	groups := Summarize(dets, dismissed)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if groups[0].Type != "oom" || groups[0].FirstLine != 1 || groups[0].Shown != 2 {
		t.Errorf("oom group = %+v", groups[0])
	}
	if groups[1].Type != "error" || groups[1].FirstLine != 2 {
		t.Errorf("error group = %+v", groups[1])
	}

	// Dismissing all oom entries removes that group and leaves the rest.
	dismissed.DismissType("oom", dets)
	groups = Summarize(dets, dismissed)
	if len(groups) != 1 {
		t.Fatalf("groups after dismiss = %d, want 1", len(groups))
	}
	if groups[0].Type != "error" {
		t.Errorf("surviving group = %q, want error", groups[0].Type)
	}
}

func TestDismissedKeysAreTypeScoped(t *testing.T) {
	s := NewDismissSet()
	s.Dismiss("oom", 4)
	if !s.Dismissed("oom", 4) {
		t.Error("oom-4 should be dismissed")
	}
	if s.Dismissed("error", 4) {
		t.Error("error-4 shares a line but not a key")
	}
	if s.Dismissed("oom", 5) {
		t.Error("oom-5 should not be dismissed")
	}
}

func TestValidate(t *testing.T) {
	bad := []Rule{
		&SimpleRule{RuleMeta: RuleMeta{Type: "dup"}, Patterns: []*regexp.Regexp{regexp.MustCompile(`x`)}},
		&SimpleRule{RuleMeta: RuleMeta{Type: "dup"}, Patterns: []*regexp.Regexp{regexp.MustCompile(`y`)}},
	}
	if err := Validate(bad); err == nil {
		t.Error("duplicate types should fail validation")
	}
	if err := Validate(DefaultRules()); err != nil {
		t.Errorf("default rules should validate: %v", err)
	}
}
