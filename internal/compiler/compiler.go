// Package compiler wires the front end's stages into the single entry
// point spec.md §6 names: source text in, emitter calls out. It is the
// only place lexing, parsing, annotation, and lowering are sequenced
// together; every other package is usable on its own.
package compiler

import (
	"github.com/Sherif-Abdou/simplescript/internal/ast"
	"github.com/Sherif-Abdou/simplescript/internal/ir"
	"github.com/Sherif-Abdou/simplescript/internal/lower"
	"github.com/Sherif-Abdou/simplescript/internal/parser"
	"github.com/Sherif-Abdou/simplescript/internal/semantic"
	"github.com/Sherif-Abdou/simplescript/internal/types"
)

// Compile lexes, parses, annotates, and lowers source (attributed to
// file in diagnostics), driving emitter with the resulting IR calls.
// It returns the first error encountered from any stage (spec.md §5:
// "Cancellation is modeled by aborting on the first error"); a nil error
// means emitter received a complete, correctly typed program.
func Compile(source, file string, emitter ir.Emitter) error {
	prog, table, err := Parse(source, file)
	if err != nil {
		return err
	}
	if err := Annotate(prog, table); err != nil {
		return err
	}
	return lower.New(table, emitter).Lower(prog)
}

// Parse runs the lexer and parser stages alone, returning the AST and the
// type table the parser built while resolving type expressions. Exposed
// separately so callers that only need the parsed shape (an LSP, a
// formatter) never have to provide an Emitter.
func Parse(source, file string) (*ast.Program, *types.Table, error) {
	p, err := parser.New(source, file)
	if err != nil {
		return nil, nil, err
	}
	prog, err := p.Parse()
	if err != nil {
		return nil, nil, err
	}
	return prog, p.Types(), nil
}

// Annotate runs the semantic annotator over an already-parsed program.
func Annotate(prog *ast.Program, table *types.Table) error {
	return semantic.New(table).Annotate(prog)
}
