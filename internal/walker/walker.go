// Package walker enumerates the files a run will convert.
//
// Directories are expanded breadth-first from an explicit FIFO queue. An
// excluded directory is never queued, so nothing below it is ever listed.
package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Meha555/chconv/internal/filter"
	"github.com/Meha555/chconv/internal/models"
)

// Walker produces file tasks under a scan root
type Walker struct {
	root      string
	output    string
	recursive bool
	filter    *filter.Filter
}

// New creates a walker mirroring root into output
func New(root, output string, recursive bool, flt *filter.Filter) *Walker {
	return &Walker{
		root:      filepath.Clean(root),
		output:    filepath.Clean(output),
		recursive: recursive,
		filter:    flt,
	}
}

// Enumerate lists every qualifying regular file in breadth-first order.
// Any directory that cannot be listed aborts the enumeration.
func (w *Walker) Enumerate() ([]models.Task, error) {
	var tasks []models.Task

	queue := []string{w.root}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, &models.PathError{Op: "readdir", Path: dir, Err: err}
		}

		dirRel, err := filepath.Rel(w.root, dir)
		if err != nil {
			return nil, &models.PathError{Op: "rel", Path: dir, Err: err}
		}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())

			isDir, isFile, size, err := classify(path, entry)
			if err != nil {
				return nil, err
			}

			switch {
			case isDir:
				if w.filter.ShouldExclude(path) {
					continue
				}
				if w.recursive && entry.Type()&fs.ModeSymlink == 0 {
					queue = append(queue, path)
				}
			case isFile:
				if w.filter.ShouldExclude(path) || !w.filter.ShouldIncludeSuffix(path) {
					continue
				}
				task, err := w.task(dir, dirRel, path, size)
				if err != nil {
					return nil, err
				}
				tasks = append(tasks, task)
			}
		}
	}
	return tasks, nil
}

// task builds the output path from the file's path relative to its own
// directory, re-based under that directory's position below the root.
func (w *Walker) task(dir, dirRel, path string, size int64) (models.Task, error) {
	fileRel, err := filepath.Rel(dir, path)
	if err != nil {
		return models.Task{}, &models.PathError{Op: "rel", Path: path, Err: err}
	}
	return models.Task{
		InputPath:  path,
		OutputPath: filepath.Join(w.output, dirRel, fileRel),
		FileSize:   size,
	}, nil
}

// classify resolves an entry to directory, regular file or neither.
// Symlinks are followed for the decision but linked directories are never
// descended into.
func classify(path string, entry fs.DirEntry) (isDir, isFile bool, size int64, err error) {
	if entry.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		if err != nil {
			// dangling link
			return false, false, 0, nil
		}
		return info.IsDir(), info.Mode().IsRegular(), info.Size(), nil
	}
	if entry.IsDir() {
		return true, false, 0, nil
	}
	if !entry.Type().IsRegular() {
		return false, false, 0, nil
	}
	info, err := entry.Info()
	if err != nil {
		return false, false, 0, &models.PathError{Op: "stat", Path: path, Err: err}
	}
	return false, true, info.Size(), nil
}

// SingleFile returns the task for a scan root that is itself a file, or
// false when the file's suffix does not qualify.
func SingleFile(input, output string, flt *filter.Filter) (models.Task, bool, error) {
	info, err := os.Stat(input)
	if err != nil {
		return models.Task{}, false, &models.PathError{Op: "stat", Path: input, Err: err}
	}
	if !info.Mode().IsRegular() {
		return models.Task{}, false, fmt.Errorf("%w: not a regular file: %s", models.ErrFilesystem, input)
	}
	if !flt.ShouldIncludeSuffix(input) {
		return models.Task{}, false, nil
	}
	return models.Task{InputPath: input, OutputPath: output, FileSize: info.Size()}, true, nil
}
