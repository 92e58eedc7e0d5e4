package token

import (
	"strconv"
	"strings"
)

// A CompileError reports one problem found while scanning or compiling,
// in the exact format the reference implementation uses: "[line N] Error
// at '<lexeme>': <message>", or "[line N] Error at end: <message>" for an
// error located at the end-of-file token.
type CompileError struct {
	Line    int
	Where   string // the offending lexeme's text, or "" for an end-of-file error
	AtEnd   bool
	Message string
}

func (e *CompileError) Error() string {
	line := strconv.Itoa(e.Line)
	if e.AtEnd {
		return "[line " + line + "] Error at end: " + e.Message
	}
	return "[line " + line + "] Error at '" + e.Where + "': " + e.Message
}

// ErrorList accumulates CompileErrors during a single scan-and-compile
// pass, the same Add/Err shape the teacher borrows from go/scanner's
// ErrorList, adapted to this package's own error format.
type ErrorList []*CompileError

// Add appends a new error to the list.
func (l *ErrorList) Add(e *CompileError) { *l = append(*l, e) }

// Err returns l as an error if it is non-empty, or nil otherwise.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	var b strings.Builder
	for i, e := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Error())
	}
	return b.String()
}
