package lexer

import "fmt"

// ErrorKind is the closed set of lexical failure kinds (spec.md LexError).
type ErrorKind int

const (
	BadEscape ErrorKind = iota
	BadChar
	BadNumber
)

func (k ErrorKind) String() string {
	switch k {
	case BadEscape:
		return "BadEscape"
	case BadChar:
		return "BadChar"
	case BadNumber:
		return "BadNumber"
	default:
		return "Unknown"
	}
}

// Error is a fatal lexical error, carrying source position.
type Error struct {
	Kind    ErrorKind
	File    string
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Kind, e.Message)
}
