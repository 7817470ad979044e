package models

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"nothing", nil, StatusSuccess},
		{"all success", []Status{StatusSuccess, StatusSuccess}, StatusSuccess},
		{"skips only", []Status{StatusSkip, StatusSkip}, StatusSuccess},
		{"mixed without error", []Status{StatusSkip, StatusSuccess}, StatusSuccess},
		{"one error", []Status{StatusSuccess, StatusError, StatusSkip}, StatusError},
		{"error last", []Status{StatusSkip, StatusSuccess, StatusError}, StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.statuses...))
		})
	}
}

func TestStats_AddAndMerge(t *testing.T) {
	results := []Result{
		{Task: Task{InputPath: "a", FileSize: 10}, Status: StatusSuccess},
		{Task: Task{InputPath: "b", FileSize: 5}, Status: StatusSkip},
		{Task: Task{InputPath: "c"}, Status: StatusError, Error: ErrDetection},
		{Task: Task{InputPath: "d", FileSize: 7}, Status: StatusSuccess},
	}

	var whole Stats
	var left, right Stats
	statuses := make([]Status, 0, len(results))
	for i, r := range results {
		whole.Add(r)
		if i%2 == 0 {
			left.Add(r)
		} else {
			right.Add(r)
		}
		statuses = append(statuses, r.Status)
	}

	var merged Stats
	merged.Merge(left)
	merged.Merge(right)

	for _, s := range []Stats{whole, merged} {
		assert.Equal(t, 4, s.Processed)
		assert.Equal(t, 2, s.Converted)
		assert.Equal(t, 1, s.Skipped)
		assert.Equal(t, 1, s.Failed)
		assert.Equal(t, int64(17), s.TotalFileSize)
		require.Len(t, s.Failures, 1)
		assert.Equal(t, "c", s.Failures[0].Task.InputPath)
		assert.Equal(t, Aggregate(statuses...), s.Verdict())
	}
}

func TestCounters_Concurrent(t *testing.T) {
	var c Counters
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.AddConverted()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1600), c.Converted())
}

func TestPathError(t *testing.T) {
	err := fmt.Errorf("walk: %w", &PathError{Op: "readdir", Path: "/x", Err: errors.New("denied")})
	assert.True(t, errors.Is(err, ErrFilesystem))
	assert.False(t, errors.Is(err, ErrConversion))
	assert.Contains(t, err.Error(), "readdir /x: denied")

	var pe *PathError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "/x", pe.Path)
}

func TestConversionError(t *testing.T) {
	err := &ConversionError{Input: "in.txt", From: "GBK", Output: "out.txt", To: "UTF-8", Err: ErrUnrecognizedEncoding}
	assert.True(t, errors.Is(err, ErrConversion))
	assert.True(t, errors.Is(err, ErrUnrecognizedEncoding))
	assert.Equal(t, "convert in.txt(GBK) -> out.txt(UTF-8) failed: "+ErrUnrecognizedEncoding.Error(), err.Error())
}

func TestStats_VerdictFollowsResults(t *testing.T) {
	var empty Stats
	assert.Equal(t, StatusSuccess, empty.Verdict())

	var skips Stats
	skips.Add(Result{Status: StatusSkip})
	skips.Add(Result{Status: StatusSuccess})
	assert.Equal(t, StatusSuccess, skips.Verdict())

	var failed Stats
	failed.Add(Result{Status: StatusError, Error: ErrConversion})

	skips.Merge(failed)
	assert.Equal(t, StatusError, skips.Verdict())
	assert.Equal(t, StatusSuccess, empty.Verdict())
}
