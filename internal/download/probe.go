package download

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/tlc-downloader/internal/http"
	"github.com/handiism/tlc-downloader/internal/model"
)

// DefaultProbeLimit bounds concurrent size probes. HEAD requests are cheap,
// so this is wider than the transfer limit.
const DefaultProbeLimit = 20

// probeSizes fills in ExpectedSize for every task and returns their sum.
// A probe that fails or reports no length contributes 0.
func probeSizes(ctx context.Context, client *http.Client, tasks []*model.Task, limit int) int64 {
	if limit < 1 {
		limit = DefaultProbeLimit
	}

	sizes := make([]int64, len(tasks))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, task := range tasks {
		g.Go(func() error {
			if size, ok := client.ContentLength(ctx, task.URL); ok {
				sizes[i] = size
			}
			return nil
		})
	}
	_ = g.Wait()

	var total int64
	for i, task := range tasks {
		task.ExpectedSize = sizes[i]
		total += sizes[i]
	}
	return total
}
