package server

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/pkendall/sluice/internal/api"
)

// Runner executes scheduler commands. The exec-backed implementation is
// used in production; tests substitute canned output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands on the local host.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s: %s", name, msg)
	}
	return string(out), nil
}

// CancelJob cancels a running job via scancel.
func CancelJob(ctx context.Context, runner Runner, jobID string) error {
	if strings.TrimSpace(jobID) == "" {
		return fmt.Errorf("job id required")
	}
	if _, err := runner.Run(ctx, "scancel", jobID); err != nil {
		return fmt.Errorf("cancel job %s: %w", jobID, err)
	}
	return nil
}

var submittedRe = regexp.MustCompile(`Submitted batch job (\d+)`)

// ResubmitJob submits the job's original script again from its original
// working directory and returns the new job id.
func ResubmitJob(ctx context.Context, runner Runner, info api.SubmitInfo) (string, error) {
	if strings.TrimSpace(info.ScriptPath) == "" {
		return "", fmt.Errorf("submit script not found")
	}
	args := []string{}
	if info.WorkDir != "" {
		args = append(args, "--chdir", info.WorkDir)
	}
	args = append(args, info.ScriptPath)
	out, err := runner.Run(ctx, "sbatch", args...)
	if err != nil {
		return "", fmt.Errorf("resubmit job %s: %w", info.JobID, err)
	}
	m := submittedRe.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("resubmit job %s: unexpected sbatch output %q", info.JobID, strings.TrimSpace(out))
	}
	return m[1], nil
}

// FetchSubmitInfo recovers a job's submission details from scontrol.
func FetchSubmitInfo(ctx context.Context, runner Runner, jobID string) (api.SubmitInfo, error) {
	out, err := runner.Run(ctx, "scontrol", "show", "job", jobID)
	if err != nil {
		return api.SubmitInfo{}, fmt.Errorf("submit info for %s: %w", jobID, err)
	}
	info := api.SubmitInfo{JobID: jobID}
	for _, field := range strings.Fields(out) {
		switch {
		case strings.HasPrefix(field, "Command="):
			info.Command = strings.TrimPrefix(field, "Command=")
			info.ScriptPath = info.Command
		case strings.HasPrefix(field, "WorkDir="):
			info.WorkDir = strings.TrimPrefix(field, "WorkDir=")
		}
	}
	if info.ScriptPath == "" || info.ScriptPath == "(null)" {
		return api.SubmitInfo{}, fmt.Errorf("submit info for %s: no script recorded", jobID)
	}
	return info, nil
}
