// Package detect classifies file content as text or binary and detects the
// character encoding of text.
//
// The probes keep analysis state between calls and are not safe for
// concurrent use. Each worker owns one Handles value for its whole lifetime
// and never shares it.
package detect

import (
	"fmt"

	"github.com/Meha555/chconv/internal/models"
)

// Empty is reported instead of a charset for zero-length input
const Empty = "empty"

// Classifier tells text files from binary ones
type Classifier interface {
	IsText(path string) (bool, error)
}

// Detector names the charset of a byte buffer
type Detector interface {
	Detect(data []byte) (string, error)
}

// Handles is the pair of probes a worker owns
type Handles struct {
	Classifier Classifier
	Detector   Detector
}

// Factory builds a fresh pair of probes for a worker
type Factory func() (Handles, error)

// NewHandles builds the default MIME classifier and chardet detector
func NewHandles() (Handles, error) {
	det, err := NewCharsetDetector()
	if err != nil {
		return Handles{}, fmt.Errorf("%w: %v", models.ErrDetection, err)
	}
	return Handles{
		Classifier: NewMIMEClassifier(),
		Detector:   det,
	}, nil
}
