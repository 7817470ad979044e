package converter

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/Meha555/chconv/internal/models"
)

const (
	// initialExpansion sizes the first output buffer as a multiple of the input
	initialExpansion = 2

	// DefaultMaxExpansion is the largest output buffer tried, relative to the
	// input. Four covers single-byte input converted to UTF-32.
	DefaultMaxExpansion = 4

	dirPerm  = 0755
	filePerm = 0644
)

// Engine converts whole files between charsets
type Engine struct {
	transcoder   Transcoder
	maxExpansion int
}

// Option configures an Engine
type Option func(*Engine)

// WithTranscoder replaces the x/text transcoder
func WithTranscoder(t Transcoder) Option {
	return func(e *Engine) {
		e.transcoder = t
	}
}

// WithMaxExpansion sets the largest output buffer multiple to try. Values
// at or below two disable the retry.
func WithMaxExpansion(n int) Option {
	return func(e *Engine) {
		e.maxExpansion = n
	}
}

// NewEngine creates a conversion engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		transcoder:   TextTranscoder{},
		maxExpansion: DefaultMaxExpansion,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Convert reads input, converts it from one charset to another and writes
// output. Identical charsets copy the file unchanged.
func (e *Engine) Convert(input, from, output, to string) error {
	if SameCharset(from, to) {
		if err := copyFile(input, output); err != nil {
			return &models.ConversionError{Input: input, From: from, Output: output, To: to, Err: err}
		}
		return nil
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return &models.ConversionError{Input: input, From: from, Output: output, To: to,
			Err: &models.PathError{Op: "read", Path: input, Err: err}}
	}
	return e.ConvertData(data, input, from, output, to)
}

// ConvertData converts the already-read content of input and writes output
func (e *Engine) ConvertData(data []byte, input, from, output, to string) error {
	wrap := func(err error) error {
		return &models.ConversionError{Input: input, From: from, Output: output, To: to, Err: err}
	}

	if SameCharset(from, to) {
		if err := writeFile(output, data); err != nil {
			return wrap(err)
		}
		return nil
	}

	converted, err := e.transcode(data, from, to)
	if err != nil {
		return wrap(err)
	}
	if err := writeFile(output, converted); err != nil {
		return wrap(err)
	}
	return nil
}

// transcode runs the transcoder into a buffer twice the input size. When
// that is too small it tries once more at the maximum expansion.
func (e *Engine) transcode(data []byte, from, to string) ([]byte, error) {
	ratio := initialExpansion
	for {
		buf := make([]byte, len(data)*ratio)
		n, err := e.transcoder.Transcode(buf, data, from, to)
		if err == nil {
			return buf[:n], nil
		}
		if !errors.Is(err, ErrInsufficientSpace) || ratio >= e.maxExpansion {
			return nil, err
		}
		ratio = e.maxExpansion
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return &models.PathError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return &models.PathError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func copyFile(src, dst string) error {
	if filepath.Clean(src) == filepath.Clean(dst) {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return &models.PathError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return &models.PathError{Op: "mkdir", Path: filepath.Dir(dst), Err: err}
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return &models.PathError{Op: "create", Path: dst, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &models.PathError{Op: "copy", Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &models.PathError{Op: "close", Path: dst, Err: err}
	}
	return nil
}
