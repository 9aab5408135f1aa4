package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/handiism/tlc-downloader/internal/model"
)

func newTasks(sizes ...int64) []*model.Task {
	tasks := make([]*model.Task, len(sizes))
	for i, size := range sizes {
		task := model.NewTask("yellow", model.DateKey{Year: 2023, Month: i + 1})
		task.ExpectedSize = size
		tasks[i] = task
	}
	return tasks
}

func TestAggregator_InitialTotals(t *testing.T) {
	agg := NewAggregator(newTasks(100, 0, 250))

	snap := agg.Snapshot()
	assert.Equal(t, int64(350), snap.TotalBytes)
	assert.Zero(t, snap.TransferredBytes)
	assert.Equal(t, 3, snap.TotalTasks)
	assert.Zero(t, snap.CompletedTasks)
	assert.Equal(t, "yellow_tripdata_2023-02.parquet", agg.Tracker(1).Name())
}

func TestAggregator_ConcurrentAdds(t *testing.T) {
	agg := NewAggregator(newTasks(1000, 1000, 1000, 1000))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(tr *Tracker) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Add(10)
			}
			tr.Finish(model.StatusCompleted)
		}(agg.Tracker(i))
	}
	wg.Wait()

	snap := agg.Snapshot()
	assert.Equal(t, int64(4000), snap.TransferredBytes)
	assert.Equal(t, 4, snap.CompletedTasks)
	assert.Equal(t, 1.0, snap.Percent())
}

func TestTracker_GrowCorrectsTotals(t *testing.T) {
	agg := NewAggregator(newTasks(0, 500))
	tr := agg.Tracker(0)

	tr.Grow(300)
	tr.Grow(-5)

	assert.Equal(t, int64(300), tr.Total())
	assert.Equal(t, int64(800), agg.Snapshot().TotalBytes)
}

func TestTracker_CreditReachesTotal(t *testing.T) {
	agg := NewAggregator(newTasks(400))
	tr := agg.Tracker(0)

	tr.Credit()
	tr.Finish(model.StatusSkipped)

	snap := agg.Snapshot()
	assert.Equal(t, int64(400), snap.TransferredBytes)
	assert.Equal(t, 1, snap.CompletedTasks)
}

func TestTracker_Rollback(t *testing.T) {
	agg := NewAggregator(newTasks(1000, 1000))
	agg.Tracker(0).Add(600)
	agg.Tracker(1).Add(200)

	agg.Tracker(0).Rollback()
	agg.Tracker(0).Finish(model.StatusCancelled)

	snap := agg.Snapshot()
	assert.Equal(t, int64(200), snap.TransferredBytes)
	assert.Zero(t, agg.Tracker(0).Written())
	assert.Equal(t, model.StatusCancelled, agg.Tracker(0).Snapshot().Status)
}

func TestTracker_FinishOnce(t *testing.T) {
	agg := NewAggregator(newTasks(10))
	tr := agg.Tracker(0)

	tr.SetStatus(model.StatusTransferring)
	tr.Finish(model.StatusFailed)
	tr.Finish(model.StatusCompleted)

	assert.Equal(t, 1, agg.Snapshot().CompletedTasks)
	assert.Equal(t, model.StatusFailed, tr.Snapshot().Status)
}

func TestSnapshot_PercentWithoutTotal(t *testing.T) {
	snap := Snapshot{CompletedTasks: 1, TotalTasks: 4}
	assert.Equal(t, 0.25, snap.Percent())
	assert.Zero(t, Snapshot{}.Percent())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBytes(tt.in))
		})
	}
}
