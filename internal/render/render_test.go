package render

import (
	"testing"
	"time"

	"github.com/pkendall/sluice/internal/analyze"
	"github.com/pkendall/sluice/internal/annotate"
)

func TestDeriveClassification(t *testing.T) {
	lines := []string{
		"2024-03-01 12:00:01 starting run",
		"epoch 3 loss=0.42",
		"Traceback (most recent call last):",
		"  File \"train.py\", line 88",
		"ValueError: bad tensor",
		"checkpoint saved successfully",
		"just a plain line",
	}
	rules := analyze.DefaultRules()
	result := analyze.Scan(lines, rules)

	view := Derive(Input{
		Lines:      lines,
		Detections: result.Detections,
		InBlock:    result.InBlock,
	})
	if len(view) != len(lines) {
		t.Fatalf("derived %d lines, want %d", len(view), len(lines))
	}

	wantClass := []Class{
		ClassTimestamp,
		ClassMetric,
		ClassTraceback,
		ClassTraceback,
		ClassTraceback,
		ClassSuccess,
		ClassPlain,
	}
	for i, want := range wantClass {
		if view[i].Class != want {
			t.Errorf("line %d class = %q, want %q (text %q)", i+1, view[i].Class, want, lines[i])
		}
	}
}

func TestDeriveMarkersAndDismissal(t *testing.T) {
	lines := []string{
		"ok",
		"RuntimeError: CUDA out of memory",
		"UserWarning: deprecated",
	}
	result := analyze.Scan(lines, analyze.DefaultRules())
	if len(result.Detections) != 2 {
		t.Fatalf("detections = %d, want 2", len(result.Detections))
	}

	view := Derive(Input{Lines: lines, Detections: result.Detections, InBlock: result.InBlock})
	if view[1].Marker == nil || view[1].Marker.Type != "oom" {
		t.Errorf("line 2 marker = %+v, want oom", view[1].Marker)
	}
	if view[1].Class != ClassError {
		t.Errorf("line 2 class = %q, want error", view[1].Class)
	}
	if view[2].Marker == nil || view[2].Class != ClassWarning {
		t.Errorf("line 3 = %+v, want warning marker and class", view[2])
	}

	dismissed := analyze.NewDismissSet()
	dismissed.DismissType("oom", result.Detections)
	view = Derive(Input{
		Lines:      lines,
		Detections: result.Detections,
		InBlock:    result.InBlock,
		Dismissed:  dismissed,
	})
	if view[1].Marker != nil {
		t.Error("dismissed oom still carries a marker")
	}
	if view[2].Marker == nil {
		t.Error("dismissing oom removed the warning marker too")
	}
}

func TestDismissalKeepsAnnotations(t *testing.T) {
	lines := []string{"RuntimeError: CUDA out of memory"}
	result := analyze.Scan(lines, analyze.DefaultRules())
	dismissed := analyze.NewDismissSet()
	dismissed.DismissType("oom", result.Detections)

	view := Derive(Input{
		Lines:      lines,
		Detections: result.Detections,
		InBlock:    result.InBlock,
		Dismissed:  dismissed,
		Annotations: map[int]annotate.Annotation{
			1: {Text: "known flake", CreatedAt: time.Now()},
		},
	})
	if view[0].Marker != nil {
		t.Error("marker survived dismissal")
	}
	if !view[0].Annotated {
		t.Error("annotation lost when detection dismissed")
	}
}

func TestDeriveMatchStates(t *testing.T) {
	lines := []string{"foo", "bar", "foo"}
	view := Derive(Input{
		Lines:        lines,
		MatchLines:   []int{1, 3},
		CurrentMatch: 1,
	})
	if view[0].Match != MatchOther {
		t.Errorf("line 1 match = %v, want MatchOther", view[0].Match)
	}
	if view[1].Match != MatchNone {
		t.Errorf("line 2 match = %v, want MatchNone", view[1].Match)
	}
	if view[2].Match != MatchCurrent {
		t.Errorf("line 3 match = %v, want MatchCurrent", view[2].Match)
	}
}

func TestLineID(t *testing.T) {
	l := Line{Number: 42}
	if l.ID() != "log-line-42" {
		t.Errorf("ID = %q", l.ID())
	}
}
