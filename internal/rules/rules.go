// Package rules parses the newline separated key:value mapping tables used to drive tagging,
// limiting and deletion. Tables keep declaration order and the first matching entry wins.
package rules

import (
	"fmt"
	"strconv"
	"strings"
)

const DefaultSeparator = ":"

type MatchMode int

const (
	MatchExact MatchMode = iota
	MatchSubstring
	MatchPrefix
)

func (m MatchMode) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchSubstring:
		return "substring"
	case MatchPrefix:
		return "prefix"
	}

	return ""
}

func (m MatchMode) matches(subject, key string) bool {
	switch m {
	case MatchExact:
		return subject == key
	case MatchSubstring:
		return strings.Contains(subject, key)
	case MatchPrefix:
		return strings.HasPrefix(subject, key)
	}

	return false
}

type Entry struct {
	Key   string
	Value string
}

type IntEntry struct {
	Key   string
	Value int64
}

// Warning describes a line that was skipped while parsing a table.
type Warning struct {
	Line   int
	Text   string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d %q: %s", w.Line, w.Text, w.Reason)
}

type Table []Entry

type IntTable []IntEntry

// Parse splits text into lines and every line once on sep. Blank lines are ignored,
// malformed lines are skipped and reported.
func Parse(text, sep string) (Table, []Warning) {
	var table Table

	warnings := eachLine(text, sep, func(key, value string) string {
		table = append(table, Entry{Key: key, Value: value})
		return ""
	})

	return table, warnings
}

// ParseInt is Parse for tables with non-negative integer values.
func ParseInt(text, sep string) (IntTable, []Warning) {
	var table IntTable

	warnings := eachLine(text, sep, func(key, value string) string {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return "value is not a non-negative integer"
		}
		table = append(table, IntEntry{Key: key, Value: n})
		return ""
	})

	return table, warnings
}

// ParseList returns the trimmed non-empty lines of text.
func ParseList(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if item := strings.TrimSpace(line); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// eachLine calls fn for every well formed line. A non-empty result from fn rejects the line.
func eachLine(text, sep string, fn func(key, value string) string) []Warning {
	var warnings []Warning

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, sep)
		if !found {
			warnings = append(warnings, Warning{Line: i + 1, Text: line, Reason: "missing separator " + strconv.Quote(sep)})
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case key == "":
			warnings = append(warnings, Warning{Line: i + 1, Text: line, Reason: "empty key"})
		case value == "":
			warnings = append(warnings, Warning{Line: i + 1, Text: line, Reason: "empty value"})
		default:
			if reason := fn(key, value); reason != "" {
				warnings = append(warnings, Warning{Line: i + 1, Text: line, Reason: reason})
			}
		}
	}

	return warnings
}

// FirstMatch returns the value of the first entry whose key matches subject.
func (t Table) FirstMatch(subject string, mode MatchMode) (string, bool) {
	for _, e := range t {
		if mode.matches(subject, e.Key) {
			return e.Value, true
		}
	}
	return "", false
}

func (t IntTable) FirstMatch(subject string, mode MatchMode) (int64, bool) {
	for _, e := range t {
		if mode.matches(subject, e.Key) {
			return e.Value, true
		}
	}
	return 0, false
}
