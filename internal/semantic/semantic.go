// Package semantic walks a parsed AST bottom-up and attaches a type
// descriptor to every expression (spec.md §4.6), re-deriving the nested
// scope structure the parser built so names resolve the same way a
// second time. It never mutates the AST's shape, only the Type field
// every expression node carries; lowering (internal/lower) refuses to run
// over a node this pass has not visited.
package semantic

import (
	"fmt"

	"github.com/Sherif-Abdou/simplescript/internal/ast"
	"github.com/Sherif-Abdou/simplescript/internal/extern"
	"github.com/Sherif-Abdou/simplescript/internal/scope"
	"github.com/Sherif-Abdou/simplescript/internal/types"
)

// signature is a declared function's full call shape, kept separately
// from scope.Stack's return-type-only bookkeeping (spec.md §4.3) because
// arity/argument-type checking (spec.md §4.6) needs parameter types too.
type signature struct {
	Params   []*types.Type
	Return   *types.Type
	Variadic bool
}

// Annotator performs the bottom-up type-attachment pass.
type Annotator struct {
	table  *types.Table
	scopes *scope.Stack
	sigs   map[string]signature

	// currentReturn is the enclosing function's return type, nil for a
	// void function; checked against every ReturnStmt (spec.md §4.6).
	currentReturn *types.Type
}

// New returns an Annotator that resolves types against table, the same
// table the parser built while parsing type expressions (spec.md §4.2:
// "the parser memoizes every constructed type in the table").
func New(table *types.Table) *Annotator {
	return &Annotator{
		table:  table,
		scopes: scope.NewStack(),
		sigs:   make(map[string]signature),
	}
}

// Annotate walks every top-level statement of prog, attaching types.
func (a *Annotator) Annotate(prog *ast.Program) error {
	for _, stmt := range prog.Statements {
		if fn, ok := stmt.(*ast.FunctionDecl); ok {
			if err := a.registerSignature(fn); err != nil {
				return err
			}
		}
	}
	for _, stmt := range prog.Statements {
		if err := a.annotateStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

// registerSignature resolves fn's parameter and return type symbols and
// records both the call signature (for arity/type checking at call
// sites) and the scope-visible return type (for ReturnTypeOf), so a
// function may call one declared later in the source.
func (a *Annotator) registerSignature(fn *ast.FunctionDecl) error {
	params := make([]*types.Type, len(fn.Parameters))
	for i, p := range fn.Parameters {
		ty, ok := a.table.Lookup(p.Type)
		if !ok {
			return &types.Error{Kind: types.Unknown, Symbol: p.Type, File: fn.Token.File, Line: fn.Token.Line, Column: fn.Token.Column}
		}
		params[i] = ty
	}
	var ret *types.Type
	if fn.ReturnType != "" {
		ty, ok := a.table.Lookup(fn.ReturnType)
		if !ok {
			return &types.Error{Kind: types.Unknown, Symbol: fn.ReturnType, File: fn.Token.File, Line: fn.Token.Line, Column: fn.Token.Column}
		}
		ret = ty
	}
	if fn.Extern {
		if known, ok := extern.Lookup(fn.Name); ok {
			paramSymbols := make([]string, len(fn.Parameters))
			for i, p := range fn.Parameters {
				paramSymbols[i] = p.Type
			}
			if !known.Matches(paramSymbols, fn.ReturnType, fn.Variadic) {
				return mismatchErr("the catalogued signature of "+fn.Name, "a conflicting extern declaration", fn.Pos())
			}
		}
	}

	a.sigs[fn.Name] = signature{Params: params, Return: ret, Variadic: fn.Variadic}
	a.scopes.DeclareFunction(fn.Name, ret)
	return nil
}

func (a *Annotator) annotateStmt(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.FunctionDecl:
		return a.annotateFunctionDecl(s)
	case *ast.ReturnStmt:
		return a.annotateReturn(s)
	case *ast.ConditionalStmt:
		return a.annotateConditional(s)
	case *ast.LoopStmt:
		return a.annotateLoop(s)
	case *ast.DeclareOrAssignStmt:
		return a.annotateDeclareOrAssign(s)
	case *ast.LValueAssignStmt:
		return a.annotateLValueAssign(s)
	case *ast.ExpressionStmt:
		_, err := a.annotateExpr(s.Value)
		return err
	case *ast.TypeDeclStmt:
		// The parser already installed the canonical record descriptor
		// (internal/parser's installRecord); nothing left to annotate.
		return nil
	default:
		return fmt.Errorf("semantic: unknown statement %T", stmt)
	}
}

func (a *Annotator) annotateFunctionDecl(fn *ast.FunctionDecl) error {
	if fn.Extern {
		return nil
	}
	sig := a.sigs[fn.Name]
	a.scopes.Push(scope.Function)
	for i, p := range fn.Parameters {
		a.scopes.DeclareVariable(scope.Variable{Name: p.Name, Type: sig.Params[i]})
	}
	prevReturn := a.currentReturn
	a.currentReturn = sig.Return
	for _, inner := range fn.Body {
		if err := a.annotateStmt(inner); err != nil {
			a.scopes.Pop()
			a.currentReturn = prevReturn
			return err
		}
	}
	a.scopes.Pop()
	a.currentReturn = prevReturn
	return nil
}

func (a *Annotator) annotateReturn(s *ast.ReturnStmt) error {
	pos := s.Pos()
	if s.Value == nil {
		if a.currentReturn != nil {
			return mismatchErr(a.currentReturn.Symbol, "void", pos)
		}
		return nil
	}
	ty, err := a.annotateExpr(s.Value)
	if err != nil {
		return err
	}
	if a.currentReturn == nil {
		return mismatchErr("void", ty.Symbol, pos)
	}
	if !types.Equal(ty, a.currentReturn) {
		return mismatchErr(a.currentReturn.Symbol, ty.Symbol, pos)
	}
	return nil
}

func (a *Annotator) annotateConditional(s *ast.ConditionalStmt) error {
	if s.Condition != nil {
		ty, err := a.annotateExpr(s.Condition)
		if err != nil {
			return err
		}
		if !ty.IsBool() {
			return mismatchErr("bool", ty.Symbol, s.Condition.Pos())
		}
	}
	a.scopes.Push(scope.Conditional)
	for _, inner := range s.Then {
		if err := a.annotateStmt(inner); err != nil {
			a.scopes.Pop()
			return err
		}
	}
	a.scopes.Pop()
	return nil
}

func (a *Annotator) annotateLoop(s *ast.LoopStmt) error {
	ty, err := a.annotateExpr(s.Condition)
	if err != nil {
		return err
	}
	if !ty.IsBool() {
		return mismatchErr("bool", ty.Symbol, s.Condition.Pos())
	}
	a.scopes.Push(scope.Loop)
	for _, inner := range s.Body {
		if err := a.annotateStmt(inner); err != nil {
			a.scopes.Pop()
			return err
		}
	}
	a.scopes.Pop()
	return nil
}

// annotateDeclareOrAssign implements spec.md §4.5's declare-or-assign
// rule: a declared `: T` annotation is checked against the initializer;
// a first mention with no annotation takes the initializer's type; a
// mention of an already-declared name is checked against its existing
// type rather than re-bound.
func (a *Annotator) annotateDeclareOrAssign(s *ast.DeclareOrAssignStmt) error {
	valTy, err := a.annotateExpr(s.Value)
	if err != nil {
		return err
	}
	pos := s.Pos()

	if existing, ok := a.scopes.LookupVariable(s.Name); ok {
		if !types.Equal(valTy, existing.Type) {
			return mismatchErr(existing.Type.Symbol, valTy.Symbol, pos)
		}
		return nil
	}

	varTy := valTy
	if s.DeclaredType != "" {
		declTy, ok := a.table.Lookup(s.DeclaredType)
		if !ok {
			return &types.Error{Kind: types.Unknown, Symbol: s.DeclaredType, File: pos.File, Line: pos.Line, Column: pos.Column}
		}
		if !types.Equal(valTy, declTy) {
			return mismatchErr(declTy.Symbol, valTy.Symbol, pos)
		}
		varTy = declTy
	}
	a.scopes.DeclareVariable(scope.Variable{Name: s.Name, Type: varTy})
	return nil
}

func (a *Annotator) annotateLValueAssign(s *ast.LValueAssignStmt) error {
	targetTy, err := a.addressableType(s.Target)
	if err != nil {
		return err
	}
	valTy, err := a.annotateExpr(s.Value)
	if err != nil {
		return err
	}
	if !types.Equal(targetTy, valTy) {
		return mismatchErr(targetTy.Symbol, valTy.Symbol, s.Pos())
	}
	return nil
}

func mismatchErr(expected, found string, pos ast.Position) *types.Error {
	return &types.Error{Kind: types.Mismatch, Expected: expected, Found: found, File: pos.File, Line: pos.Line, Column: pos.Column}
}
