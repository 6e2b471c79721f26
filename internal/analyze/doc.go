// Package analyze detects error signatures in reconstructed log buffers.
//
// # Overview
//
// Detection is a pure, full-buffer operation: every render pass re-scans all
// lines from scratch and derives a fresh set of Detection markers. Nothing is
// updated incrementally and nothing persists — the scan is O(lines) and logs
// are bounded per view, so re-deriving is cheaper than keeping partial state
// correct. (For arbitrarily large logs this would want an incremental scan
// over an arena of line records instead; the dashboard doesn't need it.)
//
// # Pattern table
//
// The table is an ordered list of closed rule variants:
//
//   - SimpleRule: one or more expressions tested per line.
//   - MultilineRule: a trigger expression that opens a block (a Python
//     traceback header), plus an optional continuation shape. The block runs
//     while lines start with whitespace or match the continuation; the first
//     line that does neither closes the block and is not a member of it. The
//     "ValueError: x" line that terminates a traceback matches the
//     continuation, so it is highlighted with the traceback while the normal
//     output that follows is not.
//
// Groups are tested in declaration order and only the first matching group
// per line is recorded, so specific classes (oom, cuda, timeout) must come
// before the generic error and warning nets — DefaultRules is ordered that
// way, and user tables loaded via LoadRules are used exactly as declared.
//
// High-frequency types can set Collapse with a MaxShow limit: occurrences
// past the limit are counted toward the type's Total but not emitted as
// individual entries.
//
// # Dismissal
//
// DismissSet hides markers per "type-line" key for the life of the process.
// The scope is deliberately global rather than per log identity, matching
// the behavior this replaces; two logs that happen to produce the same
// (type, line) pair will cross-contaminate dismissals. Known wart.
package analyze
