package download

import (
	"fmt"
	"time"

	"github.com/handiism/tlc-downloader/internal/model"
	"github.com/handiism/tlc-downloader/internal/progress"
)

// Summary reports the outcome of a run.
type Summary struct {
	Skipped   int
	Completed int
	Failed    int
	Cancelled int

	// Bytes is the total written by completed tasks.
	Bytes int64

	// Failures holds one message per failed task, in planning order.
	Failures []string

	// Outcomes holds every task's outcome, in planning order.
	Outcomes []Outcome

	Duration time.Duration
}

func newSummary(outcomes []Outcome, elapsed time.Duration) *Summary {
	s := &Summary{Outcomes: outcomes, Duration: elapsed}
	for _, o := range outcomes {
		switch o.Status {
		case model.StatusSkipped:
			s.Skipped++
		case model.StatusCompleted:
			s.Completed++
			s.Bytes += o.Bytes
		case model.StatusFailed:
			s.Failed++
			s.Failures = append(s.Failures, fmt.Sprintf("%s: %v", o.Task.Filename, o.Err))
		case model.StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

// Total returns the number of tasks in the run.
func (s *Summary) Total() int {
	return len(s.Outcomes)
}

func (s *Summary) String() string {
	return fmt.Sprintf("%d completed, %d skipped, %d failed, %d cancelled (%s in %s)",
		s.Completed, s.Skipped, s.Failed, s.Cancelled,
		progress.FormatBytes(s.Bytes), progress.FormatDuration(s.Duration))
}
