package detect

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/Meha555/chconv/internal/models"
)

// sniffLen is the number of bytes http.DetectContentType considers
const sniffLen = 512

// MIMEClassifier sniffs the leading bytes of a file into a reused buffer
type MIMEClassifier struct {
	buf []byte
}

// NewMIMEClassifier creates a classifier with its sniff buffer
func NewMIMEClassifier() *MIMEClassifier {
	return &MIMEClassifier{buf: make([]byte, sniffLen)}
}

// Classify returns the MIME type of the file at path
func (c *MIMEClassifier) Classify(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrClassification, &models.PathError{Op: "open", Path: path, Err: err})
	}
	defer f.Close()

	n, err := io.ReadFull(f, c.buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("%w: %v", models.ErrClassification, &models.PathError{Op: "read", Path: path, Err: err})
	}
	return http.DetectContentType(c.buf[:n]), nil
}

// IsText reports whether the MIME type mentions "text"
func (c *MIMEClassifier) IsText(path string) (bool, error) {
	mime, err := c.Classify(path)
	if err != nil {
		return false, err
	}
	return strings.Contains(mime, "text"), nil
}
