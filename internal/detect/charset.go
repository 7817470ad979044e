package detect

import (
	"errors"
	"fmt"

	"github.com/gogs/chardet"

	"github.com/Meha555/chconv/internal/models"
)

// CharsetDetector accumulates bytes for one file at a time and names their
// charset once finalized. Call Reset before feeding a new file.
type CharsetDetector struct {
	det     *chardet.Detector
	buf     []byte
	charset string
	done    bool
}

// NewCharsetDetector creates a detector. Construction builds every
// recognizer, so workers keep one for their lifetime.
func NewCharsetDetector() (*CharsetDetector, error) {
	det := chardet.NewTextDetector()
	if det == nil {
		return nil, errors.New("chardet: no detector")
	}
	return &CharsetDetector{det: det}, nil
}

// Reset clears the state left by the previous file
func (d *CharsetDetector) Reset() {
	d.buf = d.buf[:0]
	d.charset = ""
	d.done = false
}

// Feed appends data to the current file's sample
func (d *CharsetDetector) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Finalize runs detection over everything fed since the last Reset
func (d *CharsetDetector) Finalize() error {
	d.done = true
	res, err := d.det.DetectBest(d.buf)
	if err != nil {
		if errors.Is(err, chardet.NotDetectedError) {
			return models.ErrUnrecognizedEncoding
		}
		return fmt.Errorf("%w: %v", models.ErrDetection, err)
	}
	if res == nil || res.Charset == "" {
		return models.ErrUnrecognizedEncoding
	}
	d.charset = res.Charset
	return nil
}

// Charset returns the result of the last Finalize
func (d *CharsetDetector) Charset() string {
	if !d.done {
		return ""
	}
	return d.charset
}

// Detect resets, feeds data, finalizes and returns the charset.
// Zero-length input reports Empty without running the detector.
func (d *CharsetDetector) Detect(data []byte) (string, error) {
	if len(data) == 0 {
		return Empty, nil
	}
	d.Reset()
	d.Feed(data)
	if err := d.Finalize(); err != nil {
		return "", err
	}
	return d.Charset(), nil
}
