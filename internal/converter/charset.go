package converter

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode/utf32"
)

// ErrUnknownCharset is returned for names no encoding backend knows
var ErrUnknownCharset = errors.New("unknown charset")

// aliases maps detector output that is not a registered label
var aliases = map[string]string{
	"gb-18030": "gb18030",
	"ucs-2":    "utf-16le",
	"utf8":     "utf-8",
}

func normalize(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	return key
}

// LookupCharset resolves a charset name to an encoding and its canonical
// name. The encoding's encoder fails on characters the charset cannot
// represent, so it is safe to use as a conversion target.
func LookupCharset(name string) (encoding.Encoding, string, error) {
	key := normalize(name)

	switch key {
	case "utf-32", "utf-32be":
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), "utf-32be", nil
	case "utf-32le":
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), "utf-32le", nil
	}

	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		return nil, "", fmt.Errorf("%w %q", ErrUnknownCharset, name)
	}
	canon, err := ianaindex.MIME.Name(enc)
	if err != nil {
		canon = key
	}
	return enc, strings.ToLower(canon), nil
}

// lookupSource resolves a charset to decode from. Besides the IANA names it
// accepts the WHATWG labels browsers use. Those encodings escape
// unrepresentable characters as HTML references when encoding, so they are
// only ever used for decoding.
func lookupSource(name string) (encoding.Encoding, string, error) {
	enc, canon, err := LookupCharset(name)
	if err == nil {
		return enc, canon, nil
	}
	if enc, canon := charset.Lookup(normalize(name)); enc != nil && canon != "replacement" {
		return enc, canon, nil
	}
	return nil, "", err
}

// Supported reports whether a charset name can be converted to
func Supported(name string) bool {
	_, _, err := LookupCharset(name)
	return err == nil
}

// SameCharset reports whether two names denote the same encoding
func SameCharset(a, b string) bool {
	_, ca, errA := lookupSource(a)
	_, cb, errB := lookupSource(b)
	if errA == nil && errB == nil {
		return ca == cb
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
