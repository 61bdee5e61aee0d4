package templating

import (
	"bytes"
	"fmt"

	"github.com/CTAG07/Sundew/pkg/token"
)

// SyntaxError reports a directive that does not have the required shape.
// It aborts the render of the current page.
type SyntaxError struct {
	Source   string
	Offset   int
	Line     int
	Column   int
	Found    token.Kind
	Expected token.Kind
	Msg      string
}

func newSyntaxError(src *source, offset int, found, expected token.Kind, msg string) *SyntaxError {
	if offset > len(src.buf) {
		offset = len(src.buf)
	}
	before := src.buf[:offset]
	line := bytes.Count(before, []byte{'\n'}) + 1
	col := offset - bytes.LastIndexByte(before, '\n')
	return &SyntaxError{
		Source:   src.name,
		Offset:   offset,
		Line:     line,
		Column:   col,
		Found:    found,
		Expected: expected,
		Msg:      msg,
	}
}

func (e *SyntaxError) Error() string {
	s := fmt.Sprintf("%s:%d:%d: unexpected %s while expecting %s", e.Source, e.Line, e.Column, e.Found, e.Expected)
	if e.Msg != "" {
		s += " (" + e.Msg + ")"
	}
	return s
}

// ResourceError reports a template file that could not be read.
type ResourceError struct {
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("cannot read template %q: %v", e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
