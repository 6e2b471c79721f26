package api

// Job is one per-job record from the listing collaborator. The streaming
// core only uses it to resolve which identity to open; everything else is
// display data.
type Job struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	State   string `json:"state"`
	LogKey  string `json:"log_key"`
	Updated string `json:"updated,omitempty"`
	Size    string `json:"size,omitempty"`
}

// JobsResponse is the /api/jobs payload.
type JobsResponse struct {
	Running []Job `json:"running"`
	Recent  []Job `json:"recent"`
}

// ContextLine is one line of context around a search match.
type ContextLine struct {
	LineNumber int    `json:"line_number"`
	Text       string `json:"text"`
}

// SearchMatch is one authoritative match from the daemon-held content.
type SearchMatch struct {
	LineNumber    int           `json:"line_number"`
	Text          string        `json:"text"`
	ContextBefore []ContextLine `json:"context_before,omitempty"`
	ContextAfter  []ContextLine `json:"context_after,omitempty"`
}

// SearchResult is the /api/search_log payload. Truncated is set when the
// total exceeds the server-side match cap, in which case Matches holds only
// the first cap entries.
type SearchResult struct {
	Matches      []SearchMatch `json:"matches"`
	TotalMatches int           `json:"total_matches"`
	Truncated    bool          `json:"truncated"`
	Error        string        `json:"error,omitempty"`
}

// SubmitInfo describes how a job was submitted, for resubmission.
type SubmitInfo struct {
	JobID      string `json:"job_id"`
	ScriptPath string `json:"script_path"`
	WorkDir    string `json:"work_dir"`
	Command    string `json:"command"`
}

// ScriptContent is the /api/script_content payload.
type ScriptContent struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type actionResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id,omitempty"`
	Error   string `json:"error,omitempty"`
}
