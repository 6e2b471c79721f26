package analyze

import (
	"sort"
	"strings"
)

const previewLimit = 120

// Detection is one derived error marker. Detections are never stored; the
// full buffer is re-scanned on every render pass, so a Detection is only
// valid against the lines it was produced from.
type Detection struct {
	Type    string
	Label   string
	Icon    string
	Line    int    // 1-based line number
	Preview string // trimmed source line, bounded
	Match   string // substring that matched
	Count   int    // ordinal of this occurrence within its type
	Total   int    // occurrences of the type including collapsed ones
}

// Result carries everything one scan derives from a buffer.
type Result struct {
	Detections []Detection
	// InBlock marks, per input line, membership in a multiline block: the
	// trigger line and every continuation line. The first line that fails
	// the continuation pattern closes the block and is not a member.
	InBlock []bool
}

// Scan walks lines once, in order, maintaining the multiline block state and
// testing every line against the rule groups in declaration order. Only the
// first matching group per line is recorded. Output is ordered by line
// number ascending as a consequence of the single left-to-right pass.
func Scan(lines []string, rules []Rule) Result {
	res := Result{InBlock: make([]bool, len(lines))}
	counts := map[string]int{}

	var open *MultilineRule
	for i, line := range lines {
		if open != nil {
			if open.continues(line) {
				res.InBlock[i] = true
			} else {
				open = nil
			}
		}

		for _, rule := range rules {
			matched, ok := rule.match(line)
			if !ok {
				continue
			}
			meta := rule.Meta()
			if ml, isBlock := rule.(*MultilineRule); isBlock {
				open = ml
				res.InBlock[i] = true
			}

			counts[meta.Type]++
			n := counts[meta.Type]
			if meta.Collapse && n > meta.MaxShow {
				break // counted but not emitted
			}
			res.Detections = append(res.Detections, Detection{
				Type:    meta.Type,
				Label:   meta.Label,
				Icon:    meta.Icon,
				Line:    i + 1,
				Preview: preview(line),
				Match:   matched,
				Count:   n,
			})
			break
		}
	}

	for i := range res.Detections {
		res.Detections[i].Total = counts[res.Detections[i].Type]
	}
	return res
}

// Detect is the single-purpose entry point when block tags aren't needed.
func Detect(lines []string, rules []Rule) []Detection {
	return Scan(lines, rules).Detections
}

func preview(line string) string {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) > previewLimit {
		trimmed = trimmed[:previewLimit] + "…"
	}
	return trimmed
}

// Group is one row of the floating error summary: a detection type with its
// first occurrence and counts, used for jump-to-line and dismiss-by-type.
type Group struct {
	Type      string
	Label     string
	Icon      string
	FirstLine int
	Shown     int // emitted detections not yet dismissed
	Total     int // all occurrences, including collapsed ones
}

// Summarize groups the detections by type, skipping dismissed entries, in
// order of each type's first occurrence.
func Summarize(dets []Detection, dismissed *DismissSet) []Group {
	byType := map[string]*Group{}
	var order []string
	for _, d := range dets {
		if dismissed.Dismissed(d.Type, d.Line) {
			continue
		}
		g, ok := byType[d.Type]
		if !ok {
			g = &Group{Type: d.Type, Label: d.Label, Icon: d.Icon, FirstLine: d.Line, Total: d.Total}
			byType[d.Type] = g
			order = append(order, d.Type)
		}
		g.Shown++
	}

	groups := make([]Group, 0, len(order))
	for _, typ := range order {
		groups = append(groups, *byType[typ])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].FirstLine < groups[j].FirstLine
	})
	return groups
}
