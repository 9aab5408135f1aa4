package download

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/tlc-downloader/internal/http"
	ioutils "github.com/handiism/tlc-downloader/internal/io"
	"github.com/handiism/tlc-downloader/internal/model"
	"github.com/handiism/tlc-downloader/internal/progress"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
	// Task is the file name the event is about, empty for run-wide events.
	Task string
}

// Options describes one run. All fields are required.
type Options struct {
	// Type is the dataset type, e.g. "yellow".
	Type string
	// Start and End are inclusive YYYY-MM bounds.
	Start string
	End   string
	// OutputDir is created with its parents if missing.
	OutputDir string
	// Concurrency bounds simultaneous transfers. Must be at least 1.
	Concurrency int
}

// Validate checks the options that can be checked without I/O.
func (o Options) Validate() error {
	if o.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidOptions)
	}
	if strings.ContainsAny(o.Type, `/\`) || strings.Contains(o.Type, "..") {
		return fmt.Errorf("%w: invalid type %q", ErrInvalidOptions, o.Type)
	}
	if o.OutputDir == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalidOptions)
	}
	if o.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidOptions, o.Concurrency)
	}
	return nil
}

// DefaultStallTimeout aborts a transfer that delivers no data for this long.
const DefaultStallTimeout = 60 * time.Second

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger. By default nothing is logged.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Manager) { m.baseLog = log }
}

// WithBaseURL overrides the host files are fetched from.
func WithBaseURL(url string) Option {
	return func(m *Manager) { m.planner.BaseURL = strings.TrimRight(url, "/") }
}

// WithHTTPOptions configures the transfer client. MaxIdleConnsPerHost is
// always set to the run's concurrency.
func WithHTTPOptions(opts http.Options) Option {
	return func(m *Manager) { m.httpOpts = opts }
}

// WithStallTimeout sets how long a transfer may go without receiving data.
func WithStallTimeout(d time.Duration) Option {
	return func(m *Manager) { m.stallTimeout = d }
}

// WithProbeLimit bounds concurrent size probes.
func WithProbeLimit(n int) Option {
	return func(m *Manager) { m.probeLimit = n }
}

// Manager coordinates a run: it expands the date range, plans tasks, probes
// their sizes, downloads them under a concurrency limit and reports a
// Summary.
type Manager struct {
	opts         Options
	planner      model.Planner
	httpOpts     http.Options
	httpClient   *http.Client
	baseLog      logrus.FieldLogger
	log          logrus.FieldLogger
	runID        string
	probeLimit   int
	stallTimeout time.Duration

	tasks      []*model.Task
	agg        *progress.Aggregator
	limiter    *Limiter
	cancel     *Cancellation
	knownTotal bool
	ready      atomic.Bool

	onProgress func(ProgressEvent)
}

// NewManager creates a download Manager.
//
// onProgress may be nil. It is called from worker goroutines and must be
// safe for concurrent use.
func NewManager(opts Options, onProgress func(ProgressEvent), options ...Option) *Manager {
	m := &Manager{
		opts:         opts,
		httpOpts:     http.DefaultOptions(),
		probeLimit:   DefaultProbeLimit,
		stallTimeout: DefaultStallTimeout,
		cancel:       NewCancellation(),
		runID:        uuid.NewString(),
		onProgress:   onProgress,
	}
	for _, o := range options {
		o(m)
	}
	if m.baseLog == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		m.baseLog = l
	}
	m.log = m.baseLog.WithField("run", m.runID)
	return m
}

// RunID returns the identifier attached to this run's log entries.
func (m *Manager) RunID() string { return m.runID }

// Initialize validates the options, plans one task per month, creates the
// output directory and probes every task's size.
//
// Errors returned here are run-level: no task has started.
func (m *Manager) Initialize(ctx context.Context) error {
	if err := m.opts.Validate(); err != nil {
		return err
	}

	dates, err := model.ExpandRange(m.opts.Start, m.opts.End)
	if err != nil {
		return err
	}

	m.tasks = m.planner.PlanAll(m.opts.Type, dates)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Found %d files to process for type '%s'", len(m.tasks), m.opts.Type), Level: LevelInfo})

	if err := ioutils.EnsureDir(m.opts.OutputDir); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDirectoryCreation, m.opts.OutputDir, err)
	}

	httpOpts := m.httpOpts
	httpOpts.MaxIdleConnsPerHost = m.opts.Concurrency
	m.httpClient = http.NewClient(httpOpts)
	m.limiter = NewLimiter(m.opts.Concurrency)

	stop := m.cancel.Follow(ctx)
	defer stop()

	m.progress(ProgressEvent{Message: "Fetching file sizes...", Level: LevelVerbose})
	total := probeSizes(m.cancel.Context(), m.httpClient, m.tasks, m.probeLimit)
	m.knownTotal = total > 0

	m.agg = progress.NewAggregator(m.tasks)
	m.ready.Store(true)

	m.log.WithFields(logrus.Fields{
		"type":        m.opts.Type,
		"tasks":       len(m.tasks),
		"total_bytes": total,
		"concurrency": m.opts.Concurrency,
	}).Info("run planned")
	if total > 0 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Total size: %s", progress.FormatBytes(total)), Level: LevelInfo})
	}

	return nil
}

// StartDownloads launches one worker per task and waits for all of them.
//
// Every task runs to a terminal state even after cancellation; individual
// task failures are reported in the Summary, never as an error.
func (m *Manager) StartDownloads(ctx context.Context) (*Summary, error) {
	if !m.ready.Load() {
		return nil, ErrNotInitialized
	}

	stop := m.cancel.Follow(ctx)
	defer stop()

	start := time.Now()
	outcomes := make([]Outcome, len(m.tasks))

	var g errgroup.Group
	for i, task := range m.tasks {
		g.Go(func() error {
			outcomes[i] = m.downloadTask(task, m.agg.Tracker(i))
			return nil
		})
	}
	_ = g.Wait()

	summary := newSummary(outcomes, time.Since(start))
	m.report(summary)
	return summary, nil
}

// Run initializes the manager and downloads every task.
func (m *Manager) Run(ctx context.Context) (*Summary, error) {
	if err := m.Initialize(ctx); err != nil {
		return nil, err
	}
	return m.StartDownloads(ctx)
}

// Cancel stops the run. In-flight transfers stop within one chunk and their
// partial files are removed. Safe to call more than once.
func (m *Manager) Cancel() {
	if m.cancel.Cancel() {
		m.log.Warn("run cancelled")
	}
}

// Cancelled reports whether the run was cancelled.
func (m *Manager) Cancelled() bool {
	return m.cancel.Cancelled()
}

// GetProgress returns current download progress.
func (m *Manager) GetProgress() progress.Snapshot {
	if !m.ready.Load() {
		return progress.Snapshot{}
	}
	return m.agg.Snapshot()
}

// Tasks returns per-file progress in planning order.
func (m *Manager) Tasks() []progress.TaskSnapshot {
	if !m.ready.Load() {
		return nil
	}
	return m.agg.Tasks()
}

// PeakConcurrency returns the highest number of simultaneous transfers seen.
func (m *Manager) PeakConcurrency() int {
	if m.limiter == nil {
		return 0
	}
	return m.limiter.Peak()
}

func (m *Manager) targetPath(task *model.Task) string {
	return filepath.Join(m.opts.OutputDir, task.Filename)
}

func (m *Manager) report(s *Summary) {
	fields := logrus.Fields{
		"skipped":   s.Skipped,
		"completed": s.Completed,
		"failed":    s.Failed,
		"cancelled": s.Cancelled,
		"bytes":     s.Bytes,
		"duration":  s.Duration.Round(time.Millisecond).String(),
	}
	if s.Failed > 0 {
		m.log.WithFields(fields).Warn("run finished with failures")
	} else {
		m.log.WithFields(fields).Info("run finished")
	}

	level := LevelSuccess
	switch {
	case s.Cancelled > 0:
		level = LevelWarning
	case s.Failed > 0:
		level = LevelError
	}
	m.progress(ProgressEvent{Message: s.String(), Level: level})
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
