package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkendall/sluice/internal/api"
	"github.com/pkendall/sluice/internal/stream"
)

// scriptReadLimit bounds /api/script_content reads. Submission scripts are
// small; anything bigger is a wrong path.
const scriptReadLimit = 1024 * 1024

// Options configures a Server.
type Options struct {
	LogRoot      string
	LogPattern   *LogPattern
	Runner       Runner
	Logger       *slog.Logger
	TailInterval time.Duration
}

// Server is the sluiced HTTP API.
type Server struct {
	root         string
	pattern      *LogPattern
	runner       Runner
	log          *slog.Logger
	tailInterval time.Duration
}

// New builds a Server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runner := opts.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Server{
		root:         opts.LogRoot,
		pattern:      opts.LogPattern,
		runner:       runner,
		log:          logger,
		tailInterval: opts.TailInterval,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/jobs", s.handleJobs)
	mux.HandleFunc("GET /api/search_log", s.handleSearchLog)
	mux.HandleFunc("GET /api/stream_log", s.handleStreamLog)
	mux.HandleFunc("POST /api/cancel/{id}", s.handleCancel)
	mux.HandleFunc("POST /api/resubmit/{id}", s.handleResubmit)
	mux.HandleFunc("GET /api/submit_info/{id}", s.handleSubmitInfo)
	mux.HandleFunc("GET /api/script_content", s.handleScriptContent)
	return mux
}

// ListenAndServe runs the API until ctx is cancelled, then shuts down
// gracefully. Open push channels are cut by the shutdown context.
func (s *Server) ListenAndServe(ctx context.Context, bind string) error {
	srv := &http.Server{
		Addr:    bind,
		Handler: s.Handler(),
		// Tie request contexts to ctx so open push channels end with the
		// daemon instead of blocking shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "bind", bind)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	running, err := s.collectRunning(r.Context())
	if err != nil {
		// Degraded but usable: the recent listing works without squeue.
		s.log.Warn("collect running jobs", "error", err)
		running = []api.Job{}
	}
	recent, err := CollectRecentJobs(s.root, s.pattern)
	if err != nil {
		s.log.Error("collect recent jobs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "cannot read log root")
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobsResponse{Running: running, Recent: recent})
}

func (s *Server) collectRunning(ctx context.Context) ([]api.Job, error) {
	out, err := s.runner.Run(ctx, "squeue", "--me", "--noheader", "--format=%i|%j|%T")
	if err != nil {
		return nil, err
	}
	jobs := []api.Job{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), "|", 3)
		if len(parts) != 3 || parts[0] == "" {
			continue
		}
		jobs = append(jobs, api.Job{
			ID:     parts[0],
			Name:   parts[1],
			State:  parts[2],
			LogKey: JoinLogKey(parts[1], parts[0]),
		})
	}
	return jobs, nil
}

func (s *Server) handleSearchLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path, err := SafeLogPath(s.root, s.pattern, q.Get("log_key"), q.Get("kind"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, api.SearchResult{Matches: []api.SearchMatch{}, Error: err.Error()})
		return
	}
	if strings.TrimSpace(q.Get("q")) == "" {
		s.writeJSON(w, http.StatusBadRequest, api.SearchResult{Matches: []api.SearchMatch{}, Error: "query required"})
		return
	}
	contextLines, _ := strconv.Atoi(q.Get("context"))

	result := SearchFile(path, q.Get("q"), contextLines)
	status := http.StatusOK
	if result.Error != "" {
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, result)
}

func (s *Server) handleStreamLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path, err := SafeLogPath(s.root, s.pattern, q.Get("log_key"), q.Get("kind"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.log.Info("stream open", "log_key", q.Get("log_key"), "kind", q.Get("kind"))
	tailer := NewTailer(path, s.tailInterval)
	err = tailer.Run(r.Context(), func(ev stream.Event) error {
		if err := stream.Encode(w, ev); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		s.log.Warn("stream ended", "log_key", q.Get("log_key"), "error", err)
	}
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if err := CancelJob(r.Context(), s.runner, jobID); err != nil {
		s.writeJSON(w, http.StatusBadRequest, actionPayload{Success: false, Error: err.Error()})
		return
	}
	s.log.Info("job cancelled", "job_id", jobID)
	s.writeJSON(w, http.StatusOK, actionPayload{Success: true})
}

func (s *Server) handleResubmit(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	info, err := FetchSubmitInfo(r.Context(), s.runner, jobID)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, actionPayload{Success: false, Error: err.Error()})
		return
	}
	newID, err := ResubmitJob(r.Context(), s.runner, info)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, actionPayload{Success: false, Error: err.Error()})
		return
	}
	s.log.Info("job resubmitted", "job_id", jobID, "new_job_id", newID)
	s.writeJSON(w, http.StatusOK, actionPayload{Success: true, JobID: newID})
}

func (s *Server) handleSubmitInfo(w http.ResponseWriter, r *http.Request) {
	info, err := FetchSubmitInfo(r.Context(), s.runner, r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleScriptContent(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if strings.TrimSpace(path) == "" {
		s.writeError(w, http.StatusBadRequest, "path required")
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() > scriptReadLimit {
		s.writeError(w, http.StatusNotFound, "script not readable")
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "script not readable")
		return
	}
	s.writeJSON(w, http.StatusOK, api.ScriptContent{Path: path, Content: string(content)})
}

type actionPayload struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
