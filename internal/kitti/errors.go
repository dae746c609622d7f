package kitti

import (
	"fmt"
	"strings"
)

// ParseError reports malformed dataset input. Parsing is fail-fast, so a
// ParseError always means no records were returned.
type ParseError struct {
	Path   string // source file, empty when parsing a reader
	Line   int    // 1-based line number, 0 when not line oriented
	Field  string // offending field name, if known
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %s", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WithPath returns err with Path filled in when it is a *ParseError that
// has none; any other error is wrapped in a new ParseError.
func WithPath(err error, path string) error {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*ParseError); ok {
		if pe.Path == "" {
			cp := *pe
			cp.Path = path
			return &cp
		}
		return pe
	}
	return &ParseError{Path: path, Reason: "read failed", Err: err}
}
