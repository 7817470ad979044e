// Package filter decides which paths take part in a scan.
//
// Patterns are ';' separated. Each pattern is tried as a regular expression
// that must match a whole target string. A pattern that does not compile
// falls back to literal matching: substring for paths and file names,
// equality for extensions and path components.
package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Meha555/chconv/internal/models"
)

// Separator splits a pattern list
const Separator = ";"

type pattern struct {
	raw string
	re  *regexp.Regexp // nil when raw is not a valid expression
}

// full reports whether s matches the whole expression, or equals the raw
// pattern when the expression did not compile.
func (p pattern) full(s string) bool {
	if p.re != nil {
		return p.re.MatchString(s)
	}
	return s == p.raw
}

// loose is full matching for valid expressions and substring search otherwise.
func (p pattern) loose(s string) bool {
	if p.re != nil {
		return p.re.MatchString(s)
	}
	return strings.Contains(s, p.raw)
}

// PatternSet is an immutable list of compiled patterns
type PatternSet struct {
	patterns []pattern
	errs     []error
}

// NewPatternSet compiles a ';' separated pattern list. Invalid expressions
// are kept as literals and reported by Errors.
func NewPatternSet(raw string) *PatternSet {
	ps := &PatternSet{}
	for _, tok := range strings.Split(raw, Separator) {
		if tok == "" {
			continue
		}
		p := pattern{raw: tok}
		re, err := regexp.Compile(tok)
		if err == nil {
			re, err = regexp.Compile(`^(?:` + tok + `)$`)
		}
		if err != nil {
			ps.errs = append(ps.errs, fmt.Errorf("%w %q, matching literally: %v", models.ErrPatternCompile, tok, err))
		} else {
			p.re = re
		}
		ps.patterns = append(ps.patterns, p)
	}
	return ps
}

// Len returns the number of patterns
func (ps *PatternSet) Len() int {
	return len(ps.patterns)
}

// Errors lists the patterns that fell back to literal matching
func (ps *PatternSet) Errors() []error {
	return ps.errs
}

// Filter applies exclude and suffix patterns relative to a scan root
type Filter struct {
	root    string
	exclude *PatternSet
	suffix  *PatternSet
}

// New builds a filter. Empty pattern strings mean "not configured".
func New(root, suffix, exclude string) *Filter {
	f := &Filter{root: filepath.Clean(root)}
	if suffix != "" {
		f.suffix = NewPatternSet(suffix)
	}
	if exclude != "" {
		f.exclude = NewPatternSet(exclude)
	}
	return f
}

// Errors returns pattern compile errors from both sets
func (f *Filter) Errors() []error {
	var errs []error
	if f.suffix != nil {
		errs = append(errs, f.suffix.Errors()...)
	}
	if f.exclude != nil {
		errs = append(errs, f.exclude.Errors()...)
	}
	return errs
}

// ShouldExclude reports whether path is excluded. A pattern excludes a path
// when it matches the path relative to the root, the file name, the
// extension, or any single component of the relative path.
func (f *Filter) ShouldExclude(path string) bool {
	if f.exclude == nil || f.exclude.Len() == 0 {
		return false
	}

	rel := f.relative(path)
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	components := strings.Split(rel, "/")

	for _, p := range f.exclude.patterns {
		if p.loose(rel) || p.loose(name) {
			return true
		}
		if ext != "" && (p.full(ext) || p.full(ext[1:])) {
			return true
		}
		for _, c := range components {
			if c != "" && c != "." && p.full(c) {
				return true
			}
		}
	}
	return false
}

// ShouldIncludeSuffix reports whether a file's extension qualifies. With no
// suffix patterns every file qualifies; otherwise the extension must be
// non-empty and match at least one pattern, with or without its dot.
func (f *Filter) ShouldIncludeSuffix(path string) bool {
	if f.suffix == nil {
		return true
	}
	ext := filepath.Ext(path)
	if ext == "" {
		return false
	}
	for _, p := range f.suffix.patterns {
		if p.full(ext) || p.full(ext[1:]) {
			return true
		}
	}
	return false
}

// relative returns path relative to the root in slash form. Paths outside
// the root, or that cannot be made relative, are matched as given.
func (f *Filter) relative(path string) string {
	rel, err := filepath.Rel(f.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
