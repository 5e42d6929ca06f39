package pipeline

import (
	"time"

	"github.com/iabetor/feeddigest/internal/curation"
	"github.com/iabetor/feeddigest/internal/database"
	"github.com/iabetor/feeddigest/internal/digest"
	"github.com/iabetor/feeddigest/internal/notify"
)

// Report 汇总一次运行的结果。
type Report struct {
	RunID      string
	Cutoff     time.Time
	Sources    []curation.SourceStat
	Aggregated int
	Unique     int
	Digest     digest.Digest
	Deliveries []notify.Result
}

// FailedSources 返回读取失败的订阅源个数。
func (r Report) FailedSources() int {
	n := 0
	for _, s := range r.Sources {
		if s.Err != nil {
			n++
		}
	}
	return n
}

// Delivered 所有投递目标都成功时返回 true。
func (r Report) Delivered() bool {
	if len(r.Deliveries) == 0 {
		return false
	}
	for _, d := range r.Deliveries {
		if !d.Delivered {
			return false
		}
	}
	return true
}

func (r Report) toRun(started, finished time.Time, runErr error) database.Run {
	run := database.Run{
		ID:               r.RunID,
		StartedAt:        started,
		FinishedAt:       finished,
		Cutoff:           r.Cutoff,
		Feeds:            len(r.Sources),
		FailedFeeds:      r.FailedSources(),
		Aggregated:       r.Aggregated,
		UniqueCandidates: r.Unique,
		Fallback:         r.Digest.Fallback,
		Delivered:        r.Delivered(),
		Status:           database.StatusOK,
	}

	switch {
	case runErr != nil:
		run.Status = database.StatusSummarizeFail
		run.Error = runErr.Error()
	case !run.Delivered:
		run.Status = database.StatusNotifyFail
		for _, d := range r.Deliveries {
			if d.Err != nil {
				run.Error = d.Channel + ": " + d.Err.Error()
				break
			}
		}
	}

	for _, s := range r.Sources {
		out := database.FeedOutcome{
			Source:   s.Source,
			Name:     s.Name,
			Entries:  s.Entries,
			Admitted: s.Admitted,
		}
		if s.Err != nil {
			out.Error = s.Err.Error()
		}
		run.Sources = append(run.Sources, out)
	}
	return run
}
