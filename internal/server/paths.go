package server

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// LogPattern maps a log identity to a file path under the log root.
// Patterns use {name}, {id}, and {stream} placeholders, e.g.
// "{name}/{id}/{stream}.log" or "slurm-{id}.{stream}".
type LogPattern struct {
	raw     string
	re      *regexp.Regexp
	nameIdx int
	idIdx   int
}

// ParseLogPattern validates and compiles a pattern. {id} and {stream} are
// required; {name} is optional for flat layouts like "slurm-{id}.{stream}".
func ParseLogPattern(raw string) (*LogPattern, error) {
	if !strings.Contains(raw, "{id}") {
		return nil, fmt.Errorf("log pattern %q missing {id}", raw)
	}
	if !strings.Contains(raw, "{stream}") {
		return nil, fmt.Errorf("log pattern %q missing {stream}", raw)
	}

	// Build a regexp that recovers name and id from a relative path.
	var b strings.Builder
	b.WriteString("^")
	rest := raw
	idx := 1
	p := &LogPattern{raw: raw}
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(regexp.QuoteMeta(rest))
			break
		}
		b.WriteString(regexp.QuoteMeta(rest[:open]))
		rest = rest[open:]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return nil, fmt.Errorf("log pattern %q has unclosed placeholder", raw)
		}
		switch rest[:end+1] {
		case "{name}":
			b.WriteString(`([^/]+)`)
			p.nameIdx = idx
			idx++
		case "{id}":
			b.WriteString(`([^/.]+)`)
			p.idIdx = idx
			idx++
		case "{stream}":
			b.WriteString(`(stdout|stderr)`)
			idx++
		default:
			return nil, fmt.Errorf("log pattern %q has unknown placeholder %s", raw, rest[:end+1])
		}
		rest = rest[end+1:]
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compile log pattern %q: %w", raw, err)
	}
	p.re = re
	return p, nil
}

// Path renders the pattern for one identity. Name may be empty when the
// pattern has no {name} placeholder.
func (p *LogPattern) Path(name, id, stream string) string {
	out := p.raw
	out = strings.ReplaceAll(out, "{name}", name)
	out = strings.ReplaceAll(out, "{id}", id)
	out = strings.ReplaceAll(out, "{stream}", stream)
	return out
}

// Glob returns the pattern with name and id wildcarded, for discovering
// log files of one stream kind.
func (p *LogPattern) Glob(stream string) string {
	out := p.raw
	out = strings.ReplaceAll(out, "{name}", "*")
	out = strings.ReplaceAll(out, "{id}", "*")
	out = strings.ReplaceAll(out, "{stream}", stream)
	return out
}

// Parse recovers (name, id) from a path relative to the log root. The
// second return is false when the path does not match the pattern.
func (p *LogPattern) Parse(rel string) (name, id string, ok bool) {
	m := p.re.FindStringSubmatch(filepath.ToSlash(rel))
	if m == nil {
		return "", "", false
	}
	if p.nameIdx > 0 {
		name = m[p.nameIdx]
	}
	return name, m[p.idIdx], true
}

// SafeLogPath resolves a log_key ("name::id", or just "id" for patterns
// without a name) and stream kind to an absolute path, refusing anything
// that would escape root. log_key components come straight off the wire,
// so ".." and absolute segments are treated as hostile.
func SafeLogPath(root string, pattern *LogPattern, logKey, stream string) (string, error) {
	name, id, err := SplitLogKey(logKey)
	if err != nil {
		return "", err
	}
	for _, part := range []string{name, id} {
		if strings.Contains(part, "..") || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("invalid log_key %q", logKey)
		}
	}
	if stream != "stdout" && stream != "stderr" {
		return "", fmt.Errorf("invalid stream kind %q", stream)
	}

	full := filepath.Join(root, filepath.FromSlash(pattern.Path(name, id, stream)))
	cleanRoot := filepath.Clean(root)
	if full != cleanRoot && !strings.HasPrefix(full, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("log path escapes root: %q", logKey)
	}
	return full, nil
}

// SplitLogKey splits "name::id" into its parts. A key without "::" is
// treated as a bare id with an empty name.
func SplitLogKey(logKey string) (name, id string, err error) {
	trimmed := strings.TrimSpace(logKey)
	if trimmed == "" {
		return "", "", fmt.Errorf("log_key required")
	}
	if i := strings.Index(trimmed, "::"); i >= 0 {
		name, id = trimmed[:i], trimmed[i+2:]
	} else {
		id = trimmed
	}
	if id == "" {
		return "", "", fmt.Errorf("log_key %q has empty id", logKey)
	}
	return name, id, nil
}

// JoinLogKey is the inverse of SplitLogKey.
func JoinLogKey(name, id string) string {
	if name == "" {
		return id
	}
	return name + "::" + id
}
