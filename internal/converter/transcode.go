package converter

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

var (
	// ErrInsufficientSpace is returned when the output buffer cannot hold
	// the converted bytes
	ErrInsufficientSpace = errors.New("insufficient output buffer space")

	// ErrInvalidInput is returned when the input holds byte sequences that
	// are not valid in the source charset
	ErrInvalidInput = errors.New("invalid byte sequence for source charset")
)

// Transcoder converts src from one charset to another into dst and returns
// the number of bytes written. It never grows dst.
type Transcoder interface {
	Transcode(dst, src []byte, from, to string) (int, error)
}

// TextTranscoder transcodes with golang.org/x/text encodings
type TextTranscoder struct{}

// Transcode decodes src from the source charset and encodes it into the
// target charset. Malformed input and characters the target cannot
// represent are errors; nothing is replaced.
func (TextTranscoder) Transcode(dst, src []byte, from, to string) (int, error) {
	in, inName, err := lookupSource(from)
	if err != nil {
		return 0, err
	}
	out, _, err := LookupCharset(to)
	if err != nil {
		return 0, err
	}

	if inName == "utf-8" && !utf8.Valid(src) {
		return 0, ErrInvalidInput
	}
	decoded, err := in.NewDecoder().Bytes(src)
	if err != nil {
		return 0, errors.Join(ErrInvalidInput, err)
	}
	if !faithful(in, src, decoded) {
		return 0, ErrInvalidInput
	}

	nDst, nSrc, err := out.NewEncoder().Transform(dst, decoded, true)
	switch {
	case errors.Is(err, transform.ErrShortDst):
		return nDst, ErrInsufficientSpace
	case err != nil:
		return nDst, err
	case nSrc < len(decoded):
		return nDst, ErrInsufficientSpace
	}
	return nDst, nil
}

// faithful reports whether every U+FFFD in decoded stands for a real
// replacement character in src rather than a malformed sequence the decoder
// substituted.
func faithful(enc encoding.Encoding, src, decoded []byte) bool {
	n := bytes.Count(decoded, []byte(string(utf8.RuneError)))
	if n == 0 {
		return true
	}
	repl, err := enc.NewEncoder().Bytes([]byte(string(utf8.RuneError)))
	if err != nil || len(repl) == 0 {
		return false
	}
	return bytes.Count(src, repl) >= n
}
