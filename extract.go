package arxivfeed

import (
	"errors"
	"iter"
	"strings"
	"unicode/utf8"
)

const (
	entryStart = "<entry"
	entryEnd   = "</entry>"
)

var errNotUTF8 = errors.New("body is not valid UTF-8")

// Extract splits a feed into per-entry fragments. Each fragment runs from an
// <entry> start tag through the next </entry>, across any number of lines.
// The sequence is lazy and stateless; ranging over it twice scans twice.
//
// A body with no entries yields an empty sequence. A body that is not UTF-8
// text returns a *ParsingError.
func Extract(data []byte) (iter.Seq[string], error) {
	if !utf8.Valid(data) {
		return nil, &ParsingError{Err: errNotUTF8}
	}
	text := string(data)
	return func(yield func(string) bool) {
		rest := text
		for {
			start := indexEntryStart(rest)
			if start < 0 {
				return
			}
			end := strings.Index(rest[start:], entryEnd)
			if end < 0 {
				return
			}
			end += start + len(entryEnd)
			if !yield(rest[start:end]) {
				return
			}
			rest = rest[end:]
		}
	}, nil
}

// indexEntryStart finds the next "<entry" that opens an entry element,
// skipping longer names such as "<entry-list".
func indexEntryStart(s string) int {
	off := 0
	for {
		i := strings.Index(s[off:], entryStart)
		if i < 0 {
			return -1
		}
		i += off
		next := i + len(entryStart)
		if next < len(s) {
			switch s[next] {
			case '>', ' ', '\t', '\n', '\r':
				return i
			}
		}
		off = next
	}
}
