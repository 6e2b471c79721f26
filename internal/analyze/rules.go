package analyze

import (
	"fmt"
	"regexp"
)

// RuleMeta is the part of a pattern rule shared by both variants.
type RuleMeta struct {
	Type  string // stable tag, also used in dismissal keys
	Label string // human-readable group name
	Icon  string // severity glyph for the summary panel

	// Collapse suppresses individual matches of a high-frequency type beyond
	// MaxShow occurrences while still counting them toward the total.
	Collapse bool
	MaxShow  int
}

// Rule is one pattern group in the detection table. The set of variants is
// closed: SimpleRule matches single lines, MultilineRule opens a block that
// runs until a non-continuation line closes it.
type Rule interface {
	Meta() RuleMeta
	// match returns the matched substring for a line, if any.
	match(line string) (string, bool)
	sealedRule()
}

// SimpleRule matches individual lines against one or more expressions.
type SimpleRule struct {
	RuleMeta
	Patterns []*regexp.Regexp
}

func (r *SimpleRule) Meta() RuleMeta { return r.RuleMeta }

func (r *SimpleRule) match(line string) (string, bool) {
	for _, re := range r.Patterns {
		if loc := re.FindStringIndex(line); loc != nil {
			return line[loc[0]:loc[1]], true
		}
	}
	return "", false
}

func (r *SimpleRule) sealedRule() {}

// MultilineRule matches a block trigger line (a traceback header, say). The
// block stays open while lines start with whitespace or match Continuation;
// the first line that does neither closes it and is not part of the block.
// The exception line of a traceback matches Continuation, so it is the
// block's last member and ordinary output after it stays untagged.
type MultilineRule struct {
	RuleMeta
	Start        *regexp.Regexp
	Continuation *regexp.Regexp
}

func (r *MultilineRule) Meta() RuleMeta { return r.RuleMeta }

func (r *MultilineRule) match(line string) (string, bool) {
	if loc := r.Start.FindStringIndex(line); loc != nil {
		return line[loc[0]:loc[1]], true
	}
	return "", false
}

func (r *MultilineRule) sealedRule() {}

// continues reports whether line keeps the rule's block open.
func (r *MultilineRule) continues(line string) bool {
	if line == "" {
		return true
	}
	if line[0] == ' ' || line[0] == '\t' {
		return true
	}
	return r.Continuation != nil && r.Continuation.MatchString(line)
}

// Validate checks a rule table for the mistakes a hand-edited rules file
// tends to contain.
func Validate(rules []Rule) error {
	seen := map[string]bool{}
	for i, rule := range rules {
		meta := rule.Meta()
		if meta.Type == "" {
			return fmt.Errorf("rule %d: missing type", i)
		}
		if seen[meta.Type] {
			return fmt.Errorf("rule %d: duplicate type %q", i, meta.Type)
		}
		seen[meta.Type] = true
		if meta.Collapse && meta.MaxShow <= 0 {
			return fmt.Errorf("rule %q: collapse requires max_show > 0", meta.Type)
		}
		if simple, ok := rule.(*SimpleRule); ok && len(simple.Patterns) == 0 {
			return fmt.Errorf("rule %q: no patterns", meta.Type)
		}
	}
	return nil
}

// DefaultRules returns the built-in detection table. Order matters: groups
// are tested in declaration order and the first match per line wins, so the
// specific failure classes come before the generic error and warning nets.
func DefaultRules() []Rule {
	return []Rule{
		&MultilineRule{
			RuleMeta: RuleMeta{Type: "traceback", Label: "Python traceback", Icon: "⛔"},
			Start:    regexp.MustCompile(`^Traceback \(most recent call last\):`),
			Continuation: regexp.MustCompile(
				`^(File "|\s|\.\.\.|(\w+\.)*\w*(Error|Exception|Warning|Interrupt)\b)`),
		},
		&SimpleRule{
			RuleMeta: RuleMeta{Type: "oom", Label: "Out of memory", Icon: "🔥"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\bout of memory\b`),
				regexp.MustCompile(`(?i)\boom[- ]kill`),
				regexp.MustCompile(`\bCUDA out of memory\b`),
			},
		},
		&SimpleRule{
			RuleMeta: RuleMeta{Type: "cuda", Label: "CUDA error", Icon: "🎮"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\bCUDA (error|initialization)\b`),
				regexp.MustCompile(`\bcudaError\w*\b`),
				regexp.MustCompile(`\bdevice-side assert\b`),
			},
		},
		&SimpleRule{
			RuleMeta: RuleMeta{Type: "timeout", Label: "Time limit", Icon: "⏰"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`DUE TO TIME LIMIT`),
				regexp.MustCompile(`(?i)\bwalltime exceeded\b`),
			},
		},
		&SimpleRule{
			RuleMeta: RuleMeta{Type: "nan", Label: "NaN loss", Icon: "📉"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\bloss[:=]\s*nan\b`),
				regexp.MustCompile(`\bNaN\b`),
			},
		},
		&SimpleRule{
			RuleMeta: RuleMeta{Type: "error", Label: "Error", Icon: "❌"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\bERROR\b`),
				regexp.MustCompile(`\b\w+Error: `),
				regexp.MustCompile(`(?i)\bfatal\b`),
				regexp.MustCompile(`\bFAILED\b`),
			},
		},
		&SimpleRule{
			RuleMeta: RuleMeta{Type: "warning", Label: "Warning", Icon: "⚠️", Collapse: true, MaxShow: 5},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\bWARN(ING)?\b`),
				regexp.MustCompile(`\b\w+Warning: `),
			},
		},
	}
}
