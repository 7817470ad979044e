package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Meha555/chconv/internal/config"
	"github.com/Meha555/chconv/internal/converter"
	"github.com/Meha555/chconv/internal/detect"
	"github.com/Meha555/chconv/internal/filter"
	"github.com/Meha555/chconv/internal/logging"
	"github.com/Meha555/chconv/internal/models"
)

// Skip reasons
const (
	ReasonSuffix = "suffix not included"
	ReasonBinary = "not a text file"
	ReasonEmpty  = "empty file"
)

// Worker runs the per-file driver with a probe pair it owns exclusively
type Worker struct {
	id       int
	config   *config.Config
	filter   *filter.Filter
	engine   *converter.Engine
	handles  detect.Handles
	log      *logging.Logger
	counters *models.Counters
}

// NewWorker creates a worker. handles must not be shared with any other
// worker.
func NewWorker(id int, cfg *config.Config, flt *filter.Filter, engine *converter.Engine,
	handles detect.Handles, log *logging.Logger, counters *models.Counters) *Worker {
	return &Worker{
		id:       id,
		config:   cfg,
		filter:   flt,
		engine:   engine,
		handles:  handles,
		log:      log,
		counters: counters,
	}
}

// Run processes tasks until the channel closes or ctx is cancelled and
// returns the worker's partial stats. done is called after every task.
func (w *Worker) Run(ctx context.Context, tasks <-chan models.Task, done func(models.Result)) models.Stats {
	var stats models.Stats
	for {
		select {
		case <-ctx.Done():
			return stats
		case task, ok := <-tasks:
			if !ok {
				return stats
			}
			// a closed and a cancelled context can both be ready; do not
			// start new work once cancelled
			if ctx.Err() != nil {
				r := Cancelled(task, w.id)
				stats.Add(r)
				if done != nil {
					done(r)
				}
				return stats
			}
			r := w.Process(task)
			stats.Add(r)
			if done != nil {
				done(r)
			}
		}
	}
}

// Process runs classify, detect and convert for one task, strictly in order
func (w *Worker) Process(task models.Task) models.Result {
	start := time.Now()
	r := w.process(task)
	r.Task = task
	r.WorkerID = w.id
	r.Duration = time.Since(start)
	w.report(r)
	return r
}

func (w *Worker) process(task models.Task) models.Result {
	in, out, to := task.InputPath, task.OutputPath, w.config.Target

	if !w.filter.ShouldIncludeSuffix(in) {
		return models.Result{Status: models.StatusSkip, Reason: ReasonSuffix}
	}

	text, err := w.handles.Classifier.IsText(in)
	if err != nil {
		return failed(fmt.Errorf("classify %s: %w", in, err))
	}
	if !text {
		return models.Result{Status: models.StatusSkip, Reason: ReasonBinary}
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return failed(&models.PathError{Op: "read", Path: in, Err: err})
	}

	charset, err := w.handles.Detector.Detect(data)
	if err != nil {
		return failed(fmt.Errorf("detect %s: %w", in, err))
	}
	if charset == detect.Empty {
		return models.Result{Status: models.StatusSkip, Reason: ReasonEmpty}
	}
	w.log.Debug("%s: %s", in, charset)

	if w.config.DryRun {
		return models.Result{Status: models.StatusSuccess, Charset: charset}
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		r := failed(&models.PathError{Op: "mkdir", Path: filepath.Dir(out), Err: err})
		r.Charset = charset
		return r
	}
	if err := w.engine.ConvertData(data, in, charset, out, to); err != nil {
		r := failed(err)
		r.Charset = charset
		return r
	}

	w.counters.AddConverted()
	return models.Result{Status: models.StatusSuccess, Charset: charset}
}

func (w *Worker) report(r models.Result) {
	in, out, to := r.Task.InputPath, r.Task.OutputPath, w.config.Target
	switch r.Status {
	case models.StatusSkip:
		if r.Reason == ReasonEmpty {
			w.log.Info("skip empty file: %s", in)
		} else {
			w.log.Debug("skip %s: %s", in, r.Reason)
		}
	case models.StatusSuccess:
		if w.config.DryRun {
			w.log.Info("would convert: %s(%s) -> %s(%s)", in, r.Charset, out, to)
		} else {
			w.log.Success("converted: %s(%s) -> %s(%s)", in, r.Charset, out, to)
		}
	default:
		w.log.Error("convert failed for %s: %v", in, r.Error)
	}
}

func failed(err error) models.Result {
	return models.Result{Status: models.StatusError, Error: err}
}

// Cancelled is the result for a task that was never started
func Cancelled(task models.Task, workerID int) models.Result {
	return models.Result{
		Task:     task,
		Status:   models.StatusError,
		Error:    fmt.Errorf("%s: %w", task.InputPath, models.ErrCancelled),
		WorkerID: workerID,
	}
}
