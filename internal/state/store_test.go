package state

import (
	"errors"
	"testing"

	"github.com/pkendall/sluice/internal/api"
)

func TestUpdateSuccessReplacesJobs(t *testing.T) {
	var store Store
	store.Update(api.JobsResponse{
		Running: []api.Job{{ID: "1", Name: "train"}},
		Recent:  []api.Job{{ID: "2", Name: "eval"}},
	}, nil)

	snap := store.Snapshot()
	if len(snap.Running) != 1 || snap.Running[0].Name != "train" {
		t.Errorf("Running = %+v", snap.Running)
	}
	if len(snap.Recent) != 1 {
		t.Errorf("Recent = %+v", snap.Recent)
	}
	if snap.LastError != nil || snap.ConsecutiveFailures != 0 {
		t.Errorf("error state = %v, %d", snap.LastError, snap.ConsecutiveFailures)
	}
}

func TestUpdateFailureKeepsPreviousData(t *testing.T) {
	var store Store
	store.Update(api.JobsResponse{Running: []api.Job{{ID: "1"}}}, nil)
	store.Update(api.JobsResponse{}, errors.New("connection refused"))

	snap := store.Snapshot()
	if len(snap.Running) != 1 {
		t.Error("failed poll dropped previous jobs")
	}
	if snap.LastError == nil {
		t.Error("LastError not recorded")
	}
	if snap.ConsecutiveFailures != 1 {
		t.Errorf("ConsecutiveFailures = %d", snap.ConsecutiveFailures)
	}
	if snap.IsOffline() {
		t.Error("offline after a single failure")
	}

	store.Update(api.JobsResponse{}, errors.New("connection refused"))
	if !store.Snapshot().IsOffline() {
		t.Error("not offline after two consecutive failures")
	}
}

func TestSnapshotReturnsCopies(t *testing.T) {
	var store Store
	store.Update(api.JobsResponse{Running: []api.Job{{ID: "1", Name: "train"}}}, nil)

	snap := store.Snapshot()
	snap.Running[0].Name = "mutated"

	if store.Snapshot().Running[0].Name != "train" {
		t.Error("snapshot mutation leaked into the store")
	}
}
