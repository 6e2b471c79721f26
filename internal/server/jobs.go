package server

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkendall/sluice/internal/api"
)

// recentJobLimit bounds the recent listing so a log root with years of
// history does not flood the response.
const recentJobLimit = 200

// CollectRecentJobs walks the log root for existing log files and builds
// the recent-jobs listing. Each distinct (name, id) appears once, newest
// first, regardless of how many stream files it has.
func CollectRecentJobs(root string, pattern *LogPattern) ([]api.Job, error) {
	type entry struct {
		job     api.Job
		modTime time.Time
		size    int64
	}
	seen := make(map[string]*entry)

	for _, stream := range []string{"stdout", "stderr"} {
		glob := filepath.Join(root, filepath.FromSlash(pattern.Glob(stream)))
		paths, err := filepath.Glob(glob)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", glob, err)
		}
		for _, path := range paths {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				continue
			}
			name, id, ok := pattern.Parse(rel)
			if !ok {
				continue
			}
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			key := JoinLogKey(name, id)
			e, exists := seen[key]
			if !exists {
				e = &entry{job: api.Job{
					ID:     id,
					Name:   name,
					State:  "COMPLETED",
					LogKey: key,
				}}
				seen[key] = e
			}
			e.size += info.Size()
			if info.ModTime().After(e.modTime) {
				e.modTime = info.ModTime()
			}
		}
	}

	entries := make([]*entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].modTime.After(entries[j].modTime)
	})
	if len(entries) > recentJobLimit {
		entries = entries[:recentJobLimit]
	}

	jobs := make([]api.Job, 0, len(entries))
	for _, e := range entries {
		e.job.Updated = e.modTime.Format("2006-01-02 15:04")
		e.job.Size = humanSize(e.size)
		jobs = append(jobs, e.job)
	}
	return jobs, nil
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}
