package models

import (
	"sync/atomic"
	"time"
)

// Status is the outcome of processing a single file task
type Status string

const (
	StatusSkip    Status = "skip"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Task is one qualifying input file and where its converted copy goes
type Task struct {
	InputPath  string
	OutputPath string
	FileSize   int64
}

// Result is what the per-file driver reports for a task
type Result struct {
	Task     Task
	Status   Status
	Charset  string // detected source charset, empty when never detected
	Reason   string // why a task was skipped
	Error    error
	Duration time.Duration
	WorkerID int
}

// Stats tracks overall job statistics
type Stats struct {
	Discovered    int
	Processed     int
	Converted     int
	Skipped       int
	Failed        int
	TotalFileSize int64
	StartTime     time.Time
	EndTime       time.Time
	Workers       int
	Failures      []Result

	verdict Status
}

// Add folds a single result into the stats
func (s *Stats) Add(r Result) {
	s.verdict = Aggregate(s.verdict, r.Status)
	s.Processed++
	switch r.Status {
	case StatusSuccess:
		s.Converted++
		s.TotalFileSize += r.Task.FileSize
	case StatusSkip:
		s.Skipped++
	default:
		s.Failed++
		s.Failures = append(s.Failures, r)
	}
}

// Merge combines partial stats collected by another worker
func (s *Stats) Merge(o Stats) {
	s.verdict = Aggregate(s.verdict, o.verdict)
	s.Processed += o.Processed
	s.Converted += o.Converted
	s.Skipped += o.Skipped
	s.Failed += o.Failed
	s.TotalFileSize += o.TotalFileSize
	s.Failures = append(s.Failures, o.Failures...)
}

// Verdict is the aggregate outcome of the run
func (s *Stats) Verdict() Status {
	return Aggregate(s.verdict)
}

// Aggregate reduces per-task statuses to one verdict: error if any task
// failed, success otherwise. Skips never flip the verdict.
func Aggregate(statuses ...Status) Status {
	for _, st := range statuses {
		if st == StatusError {
			return StatusError
		}
	}
	return StatusSuccess
}

// Counters holds process-wide counters shared by every worker
type Counters struct {
	converted atomic.Int64
}

// AddConverted records one successfully written file
func (c *Counters) AddConverted() {
	c.converted.Add(1)
}

// Converted returns how many files were written so far
func (c *Counters) Converted() int64 {
	return c.converted.Load()
}
