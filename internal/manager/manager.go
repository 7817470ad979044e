package manager

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/Meha555/chconv/internal/config"
	"github.com/Meha555/chconv/internal/converter"
	"github.com/Meha555/chconv/internal/detect"
	"github.com/Meha555/chconv/internal/filter"
	"github.com/Meha555/chconv/internal/logging"
	"github.com/Meha555/chconv/internal/models"
	"github.com/Meha555/chconv/internal/walker"
	"github.com/Meha555/chconv/internal/worker"
)

// maxListedFailures limits the failure list in the final report
const maxListedFailures = 10

// Manager handles task discovery and distribution
type Manager struct {
	config      *config.Config
	filter      *filter.Filter
	engine      *converter.Engine
	newHandles  detect.Factory
	log         *logging.Logger
	counters    models.Counters
	progressOut io.Writer

	progressLock sync.Mutex
	progressBar  *progressbar.ProgressBar
}

// Option configures a Manager
type Option func(*Manager)

// WithEngine replaces the default conversion engine
func WithEngine(e *converter.Engine) Option {
	return func(m *Manager) {
		m.engine = e
	}
}

// WithHandleFactory replaces the default probe constructor
func WithHandleFactory(f detect.Factory) Option {
	return func(m *Manager) {
		m.newHandles = f
	}
}

// WithProgressWriter sets where the progress bar draws
func WithProgressWriter(w io.Writer) Option {
	return func(m *Manager) {
		m.progressOut = w
	}
}

// NewManager creates a new manager instance
func NewManager(cfg *config.Config, flt *filter.Filter, log *logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		config:      cfg,
		filter:      flt,
		engine:      converter.NewEngine(converter.WithMaxExpansion(cfg.MaxExpansion)),
		newHandles:  detect.NewHandles,
		log:         log,
		progressOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Converted returns the number of files written so far
func (m *Manager) Converted() int64 {
	return m.counters.Converted()
}

// Run enumerates the scan root and processes every task. The returned error
// is only set when enumeration itself fails; per-file failures are reported
// through the stats verdict.
func (m *Manager) Run(ctx context.Context) (models.Stats, error) {
	start := time.Now()

	tasks, err := m.discover()
	if err != nil {
		return models.Stats{StartTime: start, EndTime: time.Now()}, fmt.Errorf("directory processing failed: %w", err)
	}

	if len(tasks) == 0 {
		if m.config.Suffix != "" {
			m.log.Warn("no file processed with suffix: %q in: %s", m.config.Suffix, m.config.ScanRoot)
		} else {
			m.log.Warn("no file processed in: %s", m.config.ScanRoot)
		}
		return models.Stats{StartTime: start, EndTime: time.Now()}, nil
	}

	stats := m.Execute(ctx, tasks)
	stats.StartTime = start
	stats.EndTime = time.Now()
	m.reportFailures(stats)
	return stats, nil
}

// discover returns the tasks for a directory or single-file scan root
func (m *Manager) discover() ([]models.Task, error) {
	info, err := os.Stat(m.config.ScanRoot)
	if err != nil {
		return nil, &models.PathError{Op: "stat", Path: m.config.ScanRoot, Err: err}
	}

	if !info.IsDir() {
		task, ok, err := walker.SingleFile(m.config.ScanRoot, m.config.OutputRoot, m.filter)
		if err != nil || !ok {
			return nil, err
		}
		return []models.Task{task}, nil
	}

	w := walker.New(m.config.ScanRoot, m.config.OutputRoot, m.config.Recursive, m.filter)
	return w.Enumerate()
}

// Execute runs every task and folds the results. Below the worker count the
// tasks run serially on the calling goroutine; otherwise each worker owns
// its own probe pair. Failures never stop the remaining tasks.
func (m *Manager) Execute(ctx context.Context, tasks []models.Task) models.Stats {
	m.startProgress(len(tasks))
	defer m.finishProgress()

	var stats models.Stats
	if len(tasks) < m.config.Workers {
		stats = m.executeSerial(ctx, tasks)
	} else {
		stats = m.executeParallel(ctx, tasks)
	}
	stats.Discovered = len(tasks)
	return stats
}

func (m *Manager) executeSerial(ctx context.Context, tasks []models.Task) models.Stats {
	var stats models.Stats
	stats.Workers = 1

	handles, err := m.newHandles()
	if err != nil {
		m.log.Error("cannot create content probes: %v", err)
		for _, task := range tasks {
			r := models.Result{Task: task, Status: models.StatusError, Error: err}
			stats.Add(r)
			m.advance(r)
		}
		return stats
	}

	w := worker.NewWorker(0, m.config, m.filter, m.engine, handles, m.log, &m.counters)
	for i, task := range tasks {
		if ctx.Err() != nil {
			m.cancelRemaining(tasks[i:], &stats)
			break
		}
		r := w.Process(task)
		stats.Add(r)
		m.advance(r)
	}
	return stats
}

func (m *Manager) executeParallel(ctx context.Context, tasks []models.Task) models.Stats {
	queue := make(chan models.Task, len(tasks))
	for _, task := range tasks {
		queue <- task
	}
	close(queue)

	var workers []*worker.Worker
	for i := 0; i < m.config.Workers; i++ {
		handles, err := m.newHandles()
		if err != nil {
			m.log.Error("worker %d: cannot create content probes: %v", i, err)
			continue
		}
		workers = append(workers, worker.NewWorker(i, m.config, m.filter, m.engine, handles, m.log, &m.counters))
	}
	m.log.Debug("processing %d files with %d workers", len(tasks), len(workers))

	partials := make([]models.Stats, len(workers))
	var g errgroup.Group
	for i, w := range workers {
		g.Go(func() error {
			partials[i] = w.Run(ctx, queue, m.advance)
			return nil
		})
	}
	_ = g.Wait()

	var stats models.Stats
	for _, p := range partials {
		stats.Merge(p)
	}
	stats.Workers = len(workers)

	// left over after cancellation, or when no worker could start
	var rest []models.Task
	for task := range queue {
		rest = append(rest, task)
	}
	m.cancelRemaining(rest, &stats)
	return stats
}

func (m *Manager) cancelRemaining(tasks []models.Task, stats *models.Stats) {
	if len(tasks) == 0 {
		return
	}
	m.log.Warn("%d files were not processed", len(tasks))
	for _, task := range tasks {
		r := worker.Cancelled(task, -1)
		stats.Add(r)
		m.advance(r)
	}
}

func (m *Manager) startProgress(total int) {
	if !m.config.Progress {
		return
	}
	m.progressLock.Lock()
	defer m.progressLock.Unlock()
	m.progressBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(m.progressOut),
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// advance is called once per finished task, from any worker
func (m *Manager) advance(models.Result) {
	m.progressLock.Lock()
	defer m.progressLock.Unlock()
	if m.progressBar != nil {
		_ = m.progressBar.Add(1)
	}
}

func (m *Manager) finishProgress() {
	m.progressLock.Lock()
	defer m.progressLock.Unlock()
	if m.progressBar != nil {
		_ = m.progressBar.Finish()
		m.progressBar = nil
	}
}

// reportFailures lists the first failed files so they can be retried
func (m *Manager) reportFailures(stats models.Stats) {
	if len(stats.Failures) == 0 {
		return
	}
	m.log.Error("failed to process %d files:", len(stats.Failures))
	for i, r := range stats.Failures {
		if i == maxListedFailures {
			m.log.Error("  - ... and %d more", len(stats.Failures)-maxListedFailures)
			break
		}
		m.log.Error("  - %s: %v", r.Task.InputPath, r.Error)
	}
}
