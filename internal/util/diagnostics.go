package util

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Meha555/chconv/internal/logging"
)

// ProcessInfo holds information about the process
type ProcessInfo struct {
	PID         int
	Goroutines  int
	Memory      MemStats
	CPUCores    int
	GoVersion   string
	StartTime   time.Time
	ElapsedTime time.Duration
}

// MemStats holds human readable memory figures
type MemStats struct {
	Alloc      string
	TotalAlloc string
	Sys        string
	NumGC      uint32
	HeapInUse  string
	StackInUse string
}

// GetProcessInfo returns diagnostic information about the running process
func GetProcessInfo(startTime time.Time) ProcessInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return ProcessInfo{
		PID:        os.Getpid(),
		Goroutines: runtime.NumGoroutine(),
		Memory: MemStats{
			Alloc:      humanize.IBytes(m.Alloc),
			TotalAlloc: humanize.IBytes(m.TotalAlloc),
			Sys:        humanize.IBytes(m.Sys),
			NumGC:      m.NumGC,
			HeapInUse:  humanize.IBytes(m.HeapInuse),
			StackInUse: humanize.IBytes(m.StackInuse),
		},
		CPUCores:    runtime.NumCPU(),
		GoVersion:   runtime.Version(),
		StartTime:   startTime,
		ElapsedTime: time.Since(startTime),
	}
}

// StartMonitor logs a one-line snapshot every interval until ctx is done
func StartMonitor(ctx context.Context, log *logging.Logger, startTime time.Time, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info := GetProcessInfo(startTime)
				log.Debug("diagnostic: goroutines: %d, heap: %s, gc cycles: %d",
					info.Goroutines, info.Memory.HeapInUse, info.Memory.NumGC)
			}
		}
	}()
}

// LogDiagnostics logs a full report
func LogDiagnostics(log *logging.Logger, startTime time.Time) {
	info := GetProcessInfo(startTime)

	log.Info("===== DIAGNOSTIC REPORT =====")
	log.Info("PID: %d", info.PID)
	log.Info("Go version: %s", info.GoVersion)
	log.Info("CPU cores: %d", info.CPUCores)
	log.Info("Goroutines: %d", info.Goroutines)
	log.Info("Runtime: %s", info.ElapsedTime.Round(time.Millisecond))
	log.Info("Memory:")
	log.Info("  - Alloc: %s", info.Memory.Alloc)
	log.Info("  - TotalAlloc: %s", info.Memory.TotalAlloc)
	log.Info("  - Sys: %s", info.Memory.Sys)
	log.Info("  - HeapInUse: %s", info.Memory.HeapInUse)
	log.Info("  - StackInUse: %s", info.Memory.StackInUse)
	log.Info("  - GC cycles: %d", info.Memory.NumGC)
	log.Info("=============================")
}
