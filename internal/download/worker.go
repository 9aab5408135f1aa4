package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/handiism/tlc-downloader/internal/http"
	ioutils "github.com/handiism/tlc-downloader/internal/io"
	"github.com/handiism/tlc-downloader/internal/model"
	"github.com/handiism/tlc-downloader/internal/progress"
)

const chunkSize = 64 * 1024

// Outcome is the terminal result of one task.
type Outcome struct {
	Task   *model.Task
	Status model.Status
	// Bytes is the number of bytes written for a completed task.
	Bytes int64
	// Err is set for failed tasks only.
	Err error
}

// downloadTask runs one task to a terminal state.
//
// Pending -> Skipped, or Pending -> Transferring -> Completed | Failed |
// Cancelled. Cancellation is checked before any I/O, while waiting for a
// permit, during the request, on every chunk and before the final size
// check.
func (m *Manager) downloadTask(task *model.Task, tr *progress.Tracker) Outcome {
	log := m.log.WithField("file", task.Filename)

	if m.cancel.Cancelled() {
		return m.finish(log, tr, Outcome{Task: task, Status: model.StatusCancelled})
	}

	path := m.targetPath(task)
	if ioutils.Exists(path) {
		// Existing files are trusted as-is; their content is not verified.
		tr.Credit()
		return m.finish(log, tr, Outcome{Task: task, Status: model.StatusSkipped})
	}

	ctx := m.cancel.Context()
	release, err := m.limiter.Acquire(ctx)
	if err != nil {
		return m.finish(log, tr, Outcome{Task: task, Status: model.StatusCancelled})
	}
	defer release()

	if m.cancel.Cancelled() {
		return m.finish(log, tr, Outcome{Task: task, Status: model.StatusCancelled})
	}

	tr.SetStatus(model.StatusTransferring)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Downloading %s", task.Filename), Level: LevelVerbose, Task: task.Filename})

	reqCtx, abort := context.WithCancelCause(ctx)
	defer abort(nil)

	stream, err := m.httpClient.GetStream(reqCtx, task.URL)
	if err != nil {
		if m.cancel.Cancelled() {
			return m.finish(log, tr, Outcome{Task: task, Status: model.StatusCancelled})
		}
		tr.Credit()
		return m.finish(log, tr, Outcome{Task: task, Status: model.StatusFailed, Err: err})
	}
	defer stream.Body.Close()

	if !stream.OK() {
		tr.Credit()
		return m.finish(log, tr, Outcome{
			Task:   task,
			Status: model.StatusFailed,
			Err:    &StatusError{URL: task.URL, StatusCode: stream.StatusCode},
		})
	}

	if tr.Total() == 0 && stream.ContentLength > 0 {
		tr.Grow(stream.ContentLength)
		task.ExpectedSize = stream.ContentLength
		log.WithField("bytes", stream.ContentLength).Debug("size learned from response")
	}

	written, err := m.transfer(reqCtx, abort, path, stream.Body, tr)
	if err != nil {
		_ = ioutils.RemoveFile(path)
		if m.cancel.Cancelled() {
			tr.Rollback()
			return m.finish(log, tr, Outcome{Task: task, Status: model.StatusCancelled})
		}
		if cause := context.Cause(reqCtx); errors.Is(cause, ErrStalled) {
			err = fmt.Errorf("%w after %s", ErrStalled, m.stallTimeout)
		}
		tr.Credit()
		return m.finish(log, tr, Outcome{Task: task, Status: model.StatusFailed, Err: err})
	}

	if m.cancel.Cancelled() {
		_ = ioutils.RemoveFile(path)
		tr.Rollback()
		return m.finish(log, tr, Outcome{Task: task, Status: model.StatusCancelled})
	}

	if expected := tr.Total(); m.knownTotal && expected > 0 {
		actual, err := ioutils.FileSize(path)
		if err != nil {
			_ = ioutils.RemoveFile(path)
			tr.Credit()
			return m.finish(log, tr, Outcome{Task: task, Status: model.StatusFailed, Err: fmt.Errorf("stat %s: %w", task.Filename, err)})
		}
		if actual != expected {
			_ = ioutils.RemoveFile(path)
			tr.Credit()
			return m.finish(log, tr, Outcome{
				Task:   task,
				Status: model.StatusFailed,
				Err:    &SizeMismatchError{File: task.Filename, Expected: expected, Actual: actual},
			})
		}
	}

	return m.finish(log, tr, Outcome{Task: task, Status: model.StatusCompleted, Bytes: written})
}

// transfer streams body into a new file at path. A stall watchdog aborts the
// request through abort when no chunk arrives within the stall timeout.
func (m *Manager) transfer(ctx context.Context, abort context.CancelCauseFunc, path string, body io.Reader, tr *progress.Tracker) (int64, error) {
	file, err := ioutils.CreateFile(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}

	var watchdog *time.Timer
	if m.stallTimeout > 0 {
		watchdog = time.AfterFunc(m.stallTimeout, func() { abort(ErrStalled) })
		defer watchdog.Stop()
	}

	pw := &http.ProgressWriter{
		Context: ctx,
		Writer:  file,
		OnUpdate: func(n int64) {
			tr.Add(n)
			if watchdog != nil {
				watchdog.Reset(m.stallTimeout)
			}
		},
	}

	_, copyErr := io.CopyBuffer(pw, body, make([]byte, chunkSize))
	closeErr := file.Close()

	if copyErr != nil {
		if ctx.Err() != nil {
			return pw.Written, ctx.Err()
		}
		return pw.Written, fmt.Errorf("%w: transfer interrupted: %v", http.ErrNetwork, copyErr)
	}
	if closeErr != nil {
		return pw.Written, fmt.Errorf("close %s: %w", path, closeErr)
	}
	return pw.Written, nil
}

// finish records the terminal status and reports it.
func (m *Manager) finish(log logrus.FieldLogger, tr *progress.Tracker, out Outcome) Outcome {
	tr.Finish(out.Status)

	log = log.WithField("status", out.Status.String())
	name := out.Task.Filename
	switch out.Status {
	case model.StatusSkipped:
		log.Debug("file exists, skipped")
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s (Skipped)", name), Level: LevelVerbose, Task: name})
	case model.StatusCompleted:
		log.WithField("bytes", out.Bytes).Info("download complete")
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s (Done, %s)", name, progress.FormatBytes(out.Bytes)), Level: LevelSuccess, Task: name})
	case model.StatusFailed:
		log.WithError(out.Err).Warn("download failed")
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s (Failed: %v)", name, out.Err), Level: LevelError, Task: name})
	case model.StatusCancelled:
		log.Debug("download cancelled")
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s (Cancelled)", name), Level: LevelWarning, Task: name})
	}
	return out
}
