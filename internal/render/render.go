// Package render derives the structural view of a log from its inputs.
//
// Derive is a pure function: buffer lines, annotations, detections,
// dismissals, and search matches go in; a line-indexed view comes out.
// Every mutation re-derives the whole view. That is deliberate: the
// inputs are bounded per view and a full pass keeps the derivation free
// of incremental-update bugs. It does not scale to unbounded logs.
package render

import (
	"fmt"
	"regexp"

	"github.com/pkendall/sluice/internal/analyze"
	"github.com/pkendall/sluice/internal/annotate"
)

// Class is the inline highlighting category of a line.
type Class string

const (
	ClassPlain     Class = "plain"
	ClassTraceback Class = "traceback"
	ClassError     Class = "error"
	ClassWarning   Class = "warning"
	ClassSuccess   Class = "success"
	ClassTimestamp Class = "timestamp"
	ClassMetric    Class = "metric"
)

// MatchState marks a line's relationship to the active search.
type MatchState int

const (
	MatchNone MatchState = iota
	MatchOther
	MatchCurrent
)

// Line is one row of the derived view.
type Line struct {
	Number    int // 1-based
	Text      string
	Class     Class
	Annotated bool
	Marker    *analyze.Detection // detection on this line, nil when none or dismissed
	Match     MatchState
}

// ID returns the line's stable address, used for jump and flash targets.
func (l Line) ID() string {
	return fmt.Sprintf("log-line-%d", l.Number)
}

// Input carries everything a derivation needs.
type Input struct {
	Lines        []string
	Annotations  map[int]annotate.Annotation
	Detections   []analyze.Detection
	InBlock      []bool // parallel to Lines; true inside a traceback block
	Dismissed    *analyze.DismissSet
	MatchLines   []int // 1-based line numbers of search matches
	CurrentMatch int   // index into MatchLines, -1 when none
}

var (
	timestampRe = regexp.MustCompile(`^\[?\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}|^\[\d{2}:\d{2}:\d{2}\]`)
	successRe   = regexp.MustCompile(`(?i)\b(success(fully)?|completed|finished|saved|done)\b`)
	metricRe    = regexp.MustCompile(`(?i)\b(loss|acc(uracy)?|lr|epoch|step|psnr|ssim)\b\s*[:=]?\s*[-+]?\d`)
)

// Derive produces the view for one log.
func Derive(in Input) []Line {
	markers := make(map[int]*analyze.Detection, len(in.Detections))
	for i := range in.Detections {
		det := &in.Detections[i]
		if in.Dismissed.Dismissed(det.Type, det.Line) {
			continue
		}
		// First detection on a line wins; rules already ran in priority order.
		if _, taken := markers[det.Line]; !taken {
			markers[det.Line] = det
		}
	}

	matches := make(map[int]MatchState, len(in.MatchLines))
	for i, n := range in.MatchLines {
		state := MatchOther
		if i == in.CurrentMatch {
			state = MatchCurrent
		}
		// The current match outranks a second plain match on the same line.
		if prev, ok := matches[n]; !ok || state > prev {
			matches[n] = state
		}
	}

	out := make([]Line, len(in.Lines))
	for i, text := range in.Lines {
		num := i + 1
		line := Line{
			Number: num,
			Text:   text,
			Class:  ClassPlain,
			Marker: markers[num],
			Match:  matches[num],
		}
		if _, ok := in.Annotations[num]; ok {
			line.Annotated = true
		}
		line.Class = classify(text, line.Marker, i < len(in.InBlock) && in.InBlock[i])
		out[i] = line
	}
	return out
}

func classify(text string, marker *analyze.Detection, inBlock bool) Class {
	if inBlock {
		return ClassTraceback
	}
	if marker != nil {
		if marker.Type == "warning" {
			return ClassWarning
		}
		return ClassError
	}
	switch {
	case timestampRe.MatchString(text):
		return ClassTimestamp
	case successRe.MatchString(text):
		return ClassSuccess
	case metricRe.MatchString(text):
		return ClassMetric
	default:
		return ClassPlain
	}
}
