// Package path implements the byte-oriented lexer, comparator and joiner
// that every other package in this module builds on (spec.md §4.A-C).
//
// Paths are handled as raw byte sequences, never decoded as Unicode: the
// only distinguished bytes are '/' and NUL, matching spec.md §3's
// definition of a Path value and §9's warning against text-decoding paths
// on the hot path.
package path

import "github.com/rootjail/ptracefs/errno"

// PathMax and NameMax bound path and component length respectively. These
// mirror the host's own PATH_MAX/NAME_MAX (spec.md §3); the core never
// relaxes either.
const (
	PathMax = 4096
	NameMax = 255
)

// Finality describes where a lexed component sits in its path (spec.md §3).
type Finality int

const (
	// NotFinal means more components follow.
	NotFinal Finality = iota
	// FinalNormal means this was the last component, with no trailing slash.
	FinalNormal
	// FinalSlash means this was the last component, with a trailing slash
	// present — the caller expects a directory.
	FinalSlash
)

func (f Finality) String() string {
	switch f {
	case NotFinal:
		return "NOT_FINAL"
	case FinalNormal:
		return "FINAL_NORMAL"
	case FinalSlash:
		return "FINAL_SLASH"
	default:
		return "UNKNOWN_FINALITY"
	}
}

// Comparison is the result of Compare (spec.md §3).
type Comparison int

const (
	NotComparable Comparison = iota
	Equal
	Path1IsPrefix
	Path2IsPrefix
)

func (c Comparison) String() string {
	switch c {
	case Equal:
		return "EQUAL"
	case Path1IsPrefix:
		return "PATH1_IS_PREFIX"
	case Path2IsPrefix:
		return "PATH2_IS_PREFIX"
	default:
		return "NOT_COMPARABLE"
	}
}

// HasMore reports whether any component remains to be lexed in p starting
// from its first byte: a path that is empty, or consists only of '/' bytes
// up to its NUL terminator (or end), has nothing left for NextComponent to
// return.
func HasMore(p []byte) bool {
	for _, b := range p {
		if b == 0 {
			return false
		}
		if b != '/' {
			return true
		}
	}
	return false
}

// NextComponent implements the Path lexer (spec.md §4.A): it skips any
// leading run of '/', copies the bytes up to the next '/' or NUL as the
// component name, records whether one or more '/' followed, and returns the
// cursor advanced past them.
//
// cursor is always 0 in this module's callers; it is kept as a parameter to
// match the teacher's convention of cursor-based scanners (e.g.
// platform.Readdirnames) and to allow re-entrant use over a shared buffer.
func NextComponent(p []byte, cursor int) (name string, next int, finality Finality, kind errno.Kind) {
	for cursor < len(p) && p[cursor] != 0 && p[cursor] == '/' {
		cursor++
	}
	start := cursor
	for cursor < len(p) && p[cursor] != 0 && p[cursor] != '/' {
		cursor++
	}
	if cursor-start >= NameMax {
		return "", cursor, NotFinal, errno.NameTooLong
	}
	name = string(p[start:cursor])

	trailStart := cursor
	for cursor < len(p) && p[cursor] != 0 && p[cursor] == '/' {
		cursor++
	}
	hadTrailingSlash := cursor > trailStart
	atEnd := cursor >= len(p) || p[cursor] == 0

	switch {
	case atEnd && hadTrailingSlash:
		return name, cursor, FinalSlash, 0
	case atEnd:
		return name, cursor, FinalNormal, 0
	default:
		return name, cursor, NotFinal, 0
	}
}

// Compare implements the Path comparator (spec.md §4.B). Both inputs are
// treated as absolute. One trailing '/' (if present and not the sole
// character) is trimmed from each before comparing.
func Compare(p1, p2 string) Comparison {
	p1 = trimOneTrailingSlash(p1)
	p2 = trimOneTrailingSlash(p2)

	m := len(p1)
	longer := p2
	if len(p2) < m {
		m = len(p2)
		longer = p1
	}
	if p1[:m] != p2[:m] {
		return NotComparable
	}
	if len(longer) > m && longer[m] != '/' {
		return NotComparable
	}
	switch {
	case len(p1) == len(p2):
		return Equal
	case len(p1) < len(p2):
		return Path1IsPrefix
	default:
		return Path2IsPrefix
	}
}

func trimOneTrailingSlash(s string) string {
	if len(s) > 1 && s[len(s)-1] == '/' {
		return s[:len(s)-1]
	}
	return s
}

// Join implements the Path joiner (spec.md §4.C): it concatenates fragments,
// inserting or eliding exactly one '/' between consecutive non-empty
// fragments so the result never contains "//". Empty fragments are skipped.
func Join(frags ...string) (string, errno.Kind) {
	var b []byte
	for _, f := range frags {
		if f == "" {
			continue
		}
		for len(f) > 0 && f[0] == '/' && len(b) > 0 && b[len(b)-1] == '/' {
			f = f[1:]
		}
		if len(b) > 0 && b[len(b)-1] != '/' && (f == "" || f[0] != '/') {
			b = append(b, '/')
		}
		b = append(b, f...)
		if len(b) >= PathMax {
			return "", errno.NameTooLong
		}
	}
	return string(b), 0
}

// IsAbs reports whether p begins with '/'.
func IsAbs(p string) bool {
	return len(p) > 0 && p[0] == '/'
}
