package server

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pkendall/sluice/internal/api"
)

type fakeRunner struct {
	calls  [][]string
	output map[string]string // keyed by command name
	fail   map[string]error
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if err := r.fail[name]; err != nil {
		return "", err
	}
	return r.output[name], nil
}

func TestCancelJob(t *testing.T) {
	runner := &fakeRunner{}
	if err := CancelJob(context.Background(), runner, "31287"); err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	if len(runner.calls) != 1 || runner.calls[0][0] != "scancel" || runner.calls[0][1] != "31287" {
		t.Errorf("calls = %v", runner.calls)
	}

	runner = &fakeRunner{fail: map[string]error{"scancel": errors.New("no such job")}}
	if err := CancelJob(context.Background(), runner, "31287"); err == nil {
		t.Error("expected error from failed scancel")
	}
	if err := CancelJob(context.Background(), runner, " "); err == nil {
		t.Error("expected error for blank job id")
	}
}

func TestResubmitJob(t *testing.T) {
	runner := &fakeRunner{output: map[string]string{"sbatch": "Submitted batch job 31544\n"}}
	info := api.SubmitInfo{JobID: "31287", ScriptPath: "/home/u/train.sh", WorkDir: "/home/u/run"}

	newID, err := ResubmitJob(context.Background(), runner, info)
	if err != nil {
		t.Fatalf("ResubmitJob: %v", err)
	}
	if newID != "31544" {
		t.Errorf("newID = %q", newID)
	}
	call := strings.Join(runner.calls[0], " ")
	if call != "sbatch --chdir /home/u/run /home/u/train.sh" {
		t.Errorf("call = %q", call)
	}
}

func TestResubmitJobRejectsMissingScript(t *testing.T) {
	if _, err := ResubmitJob(context.Background(), &fakeRunner{}, api.SubmitInfo{JobID: "1"}); err == nil {
		t.Error("expected error without script path")
	}
}

func TestResubmitJobUnexpectedOutput(t *testing.T) {
	runner := &fakeRunner{output: map[string]string{"sbatch": "something else"}}
	info := api.SubmitInfo{JobID: "1", ScriptPath: "/s.sh"}
	if _, err := ResubmitJob(context.Background(), runner, info); err == nil {
		t.Error("expected error for unparseable sbatch output")
	}
}

func TestFetchSubmitInfo(t *testing.T) {
	runner := &fakeRunner{output: map[string]string{
		"scontrol": "JobId=31287 JobName=train Command=/home/u/train.sh WorkDir=/home/u/run",
	}}
	info, err := FetchSubmitInfo(context.Background(), runner, "31287")
	if err != nil {
		t.Fatalf("FetchSubmitInfo: %v", err)
	}
	if info.ScriptPath != "/home/u/train.sh" || info.WorkDir != "/home/u/run" {
		t.Errorf("info = %+v", info)
	}
}

func TestFetchSubmitInfoNoScript(t *testing.T) {
	runner := &fakeRunner{output: map[string]string{"scontrol": "JobId=1 Command=(null)"}}
	if _, err := FetchSubmitInfo(context.Background(), runner, "1"); err == nil {
		t.Error("expected error when no script recorded")
	}
}
