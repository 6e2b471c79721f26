package server

import (
	"bufio"
	"fmt"
	"os"
	"regexp"

	"github.com/pkendall/sluice/internal/api"
)

const (
	// maxSearchMatches caps what one query returns. The total keeps
	// counting past the cap so the client can show "500+ matches".
	maxSearchMatches = 500
	maxContextLines  = 10

	// searchScanBuffer bounds a single log line during scanning.
	searchScanBuffer = 1024 * 1024
)

// SearchFile runs a case-insensitive pattern query over a log file. Bad
// patterns and unreadable files come back in the result's Error field, not
// as Go errors, so handlers can serialize them straight to the client.
func SearchFile(path, query string, contextLines int) api.SearchResult {
	if contextLines < 0 {
		contextLines = 0
	} else if contextLines > maxContextLines {
		contextLines = maxContextLines
	}

	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		return api.SearchResult{Matches: []api.SearchMatch{}, Error: "invalid pattern"}
	}

	file, err := os.Open(path)
	if err != nil {
		return api.SearchResult{Matches: []api.SearchMatch{}, Error: fmt.Sprintf("cannot read log: %v", err)}
	}
	defer func() { _ = file.Close() }()

	// Two passes would need the file twice; instead keep a sliding window
	// of recent lines for before-context and patch after-context in as
	// subsequent lines arrive.
	var (
		matches []api.SearchMatch
		total   int
		recent  []api.ContextLine // up to contextLines trailing lines
		pending []int             // match indexes still collecting after-context
		lineNum int
	)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), searchScanBuffer)
	for scanner.Scan() {
		lineNum++
		text := scanner.Text()

		next := pending[:0]
		for _, mi := range pending {
			m := &matches[mi]
			m.ContextAfter = append(m.ContextAfter, api.ContextLine{LineNumber: lineNum, Text: text})
			if len(m.ContextAfter) < contextLines {
				next = append(next, mi)
			}
		}
		pending = next

		if re.MatchString(text) {
			total++
			if len(matches) < maxSearchMatches {
				match := api.SearchMatch{LineNumber: lineNum, Text: text}
				if contextLines > 0 {
					match.ContextBefore = append([]api.ContextLine(nil), recent...)
					pending = append(pending, len(matches))
				}
				matches = append(matches, match)
			}
		}

		if contextLines > 0 {
			recent = append(recent, api.ContextLine{LineNumber: lineNum, Text: text})
			if len(recent) > contextLines {
				recent = recent[1:]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return api.SearchResult{Matches: []api.SearchMatch{}, Error: fmt.Sprintf("cannot read log: %v", err)}
	}

	if matches == nil {
		matches = []api.SearchMatch{}
	}
	return api.SearchResult{
		Matches:      matches,
		TotalMatches: total,
		Truncated:    total > len(matches),
	}
}
