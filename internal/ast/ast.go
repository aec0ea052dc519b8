// Package ast defines the closed variant set of expression and statement
// nodes (spec.md §3), following the teacher's convention of Go interfaces
// with unexported marker methods rather than open-ended visitor dispatch
// (spec.md §9: "re-architect as a closed tagged variant ... avoid
// open-ended dispatch unless new node kinds can appear outside the
// compiler" — they never do here).
package ast

import "github.com/Sherif-Abdou/simplescript/internal/token"
import "github.com/Sherif-Abdou/simplescript/internal/types"

// Node is the base capability every AST node implements.
type Node interface {
	Pos() Position
}

// Position locates a node in source text.
type Position struct {
	Line   int
	Column int
	File   string
}

func posOf(tok token.Token) Position {
	return Position{Line: tok.Line, Column: tok.Column, File: tok.File}
}

// Program is the root node: a sequence of top-level statements.
type Program struct {
	Statements []Statement
}

func (p *Program) Pos() Position {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return Position{}
}

// ============================================================================
// Expressions
// ============================================================================

// Expression is the closed set of expression node kinds.
type Expression interface {
	Node
	exprNode()
	// Type returns the descriptor the semantic annotator attached, or nil
	// if annotation has not run yet (spec.md §3: "required before
	// lowering").
	Type() *types.Type
	SetType(*types.Type)
}

// typed is embedded by every expression node to carry its annotated type.
type typed struct {
	ty *types.Type
}

func (t *typed) Type() *types.Type     { return t.ty }
func (t *typed) SetType(ty *types.Type) { t.ty = ty }

type BinaryExpr struct {
	typed
	Token token.Token
	Left  Expression
	Op    token.Type
	Right Expression
}

func (e *BinaryExpr) Pos() Position { return posOf(e.Token) }
func (e *BinaryExpr) exprNode()     {}

type UnaryExpr struct {
	typed
	Token   token.Token
	Op      token.Type
	Operand Expression
}

func (e *UnaryExpr) Pos() Position { return posOf(e.Token) }
func (e *UnaryExpr) exprNode()     {}

type CallExpr struct {
	typed
	Token token.Token
	Name  string
	Args  []Expression
}

func (e *CallExpr) Pos() Position { return posOf(e.Token) }
func (e *CallExpr) exprNode()     {}

type ArrayLiteral struct {
	typed
	Token    token.Token
	Elements []Expression
}

func (e *ArrayLiteral) Pos() Position { return posOf(e.Token) }
func (e *ArrayLiteral) exprNode()     {}

type VariableRead struct {
	typed
	Token token.Token
	Name  string
}

func (e *VariableRead) Pos() Position { return posOf(e.Token) }
func (e *VariableRead) exprNode()     {}

type IndexExtract struct {
	typed
	Token token.Token
	Base  Expression
	Index Expression
}

func (e *IndexExtract) Pos() Position { return posOf(e.Token) }
func (e *IndexExtract) exprNode()     {}

type FieldExtract struct {
	typed
	Token token.Token
	Base  Expression
	Field string
	// ArrowSugar records that this node was written `base->field`, strict
	// syntactic sugar for `(*base).field` (spec.md §4.4 step 3).
	ArrowSugar bool
}

func (e *FieldExtract) Pos() Position { return posOf(e.Token) }
func (e *FieldExtract) exprNode()     {}

type IntegerLiteral struct {
	typed
	Token token.Token
	Value int64
}

func (e *IntegerLiteral) Pos() Position { return posOf(e.Token) }
func (e *IntegerLiteral) exprNode()     {}

type FloatLiteral struct {
	typed
	Token token.Token
	Value float64
}

func (e *FloatLiteral) Pos() Position { return posOf(e.Token) }
func (e *FloatLiteral) exprNode()     {}

type StringLiteral struct {
	typed
	Token token.Token
	Value string
}

func (e *StringLiteral) Pos() Position { return posOf(e.Token) }
func (e *StringLiteral) exprNode()     {}

type CharLiteral struct {
	typed
	Token token.Token
	Value byte
}

func (e *CharLiteral) Pos() Position { return posOf(e.Token) }
func (e *CharLiteral) exprNode()     {}

// RecordLiteral is `Name()`: a zero-initialized instance of a record type
// (spec.md §4.4 step 2d, §4.6).
type RecordLiteral struct {
	typed
	Token token.Token
	Name  string
}

func (e *RecordLiteral) Pos() Position { return posOf(e.Token) }
func (e *RecordLiteral) exprNode()     {}

// CastExpr is `expr as T` (spec.md §4.4 postfix, §4.6).
type CastExpr struct {
	typed
	Token      token.Token
	Value      Expression
	TargetName string
}

func (e *CastExpr) Pos() Position { return posOf(e.Token) }
func (e *CastExpr) exprNode()     {}

// ============================================================================
// Statements
// ============================================================================

// Statement is the closed set of statement node kinds.
type Statement interface {
	Node
	stmtNode()
}

// Parameter is one `name: T` entry in a function header.
type Parameter struct {
	Name string
	Type string // type symbol, resolved during annotation
}

type FunctionDecl struct {
	Token      token.Token // the 'def' token
	Name       string
	Parameters []Parameter
	ReturnType string // empty means void
	Body       []Statement
	Variadic   bool
	Extern     bool
}

func (s *FunctionDecl) Pos() Position { return posOf(s.Token) }
func (s *FunctionDecl) stmtNode()     {}

type ReturnStmt struct {
	Token token.Token
	Value Expression // nil for bare `return`
}

func (s *ReturnStmt) Pos() Position { return posOf(s.Token) }
func (s *ReturnStmt) stmtNode()     {}

type ConditionalStmt struct {
	Token     token.Token // the 'if' token
	Condition Expression
	Then      []Statement
}

func (s *ConditionalStmt) Pos() Position { return posOf(s.Token) }
func (s *ConditionalStmt) stmtNode()     {}

type LoopStmt struct {
	Token     token.Token // the 'while' token
	Condition Expression
	Body      []Statement
}

func (s *LoopStmt) Pos() Position { return posOf(s.Token) }
func (s *LoopStmt) stmtNode()     {}

// DeclareOrAssignStmt is `name [: T] = value` where the target is a bare
// identifier (spec.md §4.5, §3).
type DeclareOrAssignStmt struct {
	Token        token.Token
	Name         string
	DeclaredType string // empty if no `: T` annotation was given
	Value        Expression
}

func (s *DeclareOrAssignStmt) Pos() Position { return posOf(s.Token) }
func (s *DeclareOrAssignStmt) stmtNode()     {}

// LValueAssignStmt is `lvalue = value` where lvalue is any expression other
// than a bare identifier (spec.md §3: "index/field assign"). The parser
// accepts any expression here; the annotator accepts only a variable read,
// an index or field extraction, or a dereference.
type LValueAssignStmt struct {
	Token  token.Token
	Target Expression // addressable expression, checked by the annotator
	Value  Expression
}

func (s *LValueAssignStmt) Pos() Position { return posOf(s.Token) }
func (s *LValueAssignStmt) stmtNode()     {}

type ExpressionStmt struct {
	Token token.Token
	Value Expression
}

func (s *ExpressionStmt) Pos() Position { return posOf(s.Token) }
func (s *ExpressionStmt) stmtNode()     {}

// TypeDeclStmt is `struct Name { field: T, ... }` (spec.md §3, §4.5).
type TypeDeclStmt struct {
	Token  token.Token // the 'struct' token
	Name   string
	Fields []Parameter
}

func (s *TypeDeclStmt) Pos() Position { return posOf(s.Token) }
func (s *TypeDeclStmt) stmtNode()     {}
