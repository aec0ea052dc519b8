// Package scope implements the nested lexical scope stack used by the
// parser to resolve names while building the AST (spec.md §4.3). The
// annotator builds a fresh Stack of its own while it walks the AST; the
// parser's stack is not handed on, and the lowerer uses no scope stack.
// The expression parser only ever reads through a *Stack (LookupVariable,
// HasFunction); all
// mutation (DeclareVariable, DeclareFunction, AppendStatement) is performed
// by the statement parser once a construct is fully recognized, decoupling
// traversal from mutation (spec.md §9, "self-borrow of parser and scope").
package scope

import (
	"github.com/Sherif-Abdou/simplescript/internal/ast"
	"github.com/Sherif-Abdou/simplescript/internal/types"
)

// Kind is the closed set of scope kinds (spec.md §3).
type Kind int

const (
	Root Kind = iota
	Function
	Conditional
	Loop
)

// Variable is a declared `(name, type)` binding.
type Variable struct {
	Name string
	Type *types.Type
}

// funcInfo records a declared function's return type, nil for a function
// declared void; Present is set for every declared entry.
type funcInfo struct {
	ReturnType *types.Type
	Present    bool
}

// Scope is one level of lexical nesting.
type Scope struct {
	Kind       Kind
	variables  map[string]Variable
	functions  map[string]funcInfo
	statements []ast.Statement // appended statements, owned by this scope
}

// NewScope returns an empty scope of the given kind.
func NewScope(kind Kind) *Scope {
	return &Scope{
		Kind:      kind,
		variables: make(map[string]Variable),
		functions: make(map[string]funcInfo),
	}
}

// Statements returns the statements appended to this scope, in source
// order.
func (s *Scope) Statements() []ast.Statement { return s.statements }

// Stack is the innermost-first chain of lexical scopes threaded during
// parsing (spec.md §3, §4.3).
type Stack struct {
	scopes []*Scope // scopes[len-1] is innermost
}

// NewStack returns a stack containing a single root scope.
func NewStack() *Stack {
	return &Stack{scopes: []*Scope{NewScope(Root)}}
}

// Push opens a new innermost scope.
func (st *Stack) Push(kind Kind) *Scope {
	s := NewScope(kind)
	st.scopes = append(st.scopes, s)
	return s
}

// Pop closes and returns the innermost scope. Pop must never be called on
// the root scope; callers are expected to pair every Push with exactly one
// Pop, including on error paths (spec.md §5).
func (st *Stack) Pop() *Scope {
	n := len(st.scopes)
	popped := st.scopes[n-1]
	st.scopes = st.scopes[:n-1]
	return popped
}

// Innermost returns the scope currently being mutated.
func (st *Stack) Innermost() *Scope {
	return st.scopes[len(st.scopes)-1]
}

// Depth returns the number of scopes currently on the stack, root included.
func (st *Stack) Depth() int { return len(st.scopes) }

// LookupVariable searches innermost-first and returns the first binding
// found. It never mutates the stack (spec.md §4.3).
func (st *Stack) LookupVariable(name string) (Variable, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if v, ok := st.scopes[i].variables[name]; ok {
			return v, true
		}
	}
	return Variable{}, false
}

// DeclareVariable inserts v into the innermost scope, shadowing any outer
// binding of the same name (spec.md §4.3, testable property 2).
func (st *Stack) DeclareVariable(v Variable) {
	st.Innermost().variables[v.Name] = v
}

// HasFunction reports whether name is declared as a function in any scope,
// innermost-first.
func (st *Stack) HasFunction(name string) bool {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if _, ok := st.scopes[i].functions[name]; ok {
			return true
		}
	}
	return false
}

// ReturnTypeOf returns the declared return type of name, or (nil, true) for
// a void function, or (nil, false) if name is not a declared function.
func (st *Stack) ReturnTypeOf(name string) (*types.Type, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if info, ok := st.scopes[i].functions[name]; ok {
			return info.ReturnType, true
		}
	}
	return nil, false
}

// DeclareFunction registers name in the innermost scope with the given
// (possibly nil, meaning void) return type.
func (st *Stack) DeclareFunction(name string, returnType *types.Type) {
	st.Innermost().functions[name] = funcInfo{ReturnType: returnType, Present: true}
}

// AppendStatement appends stmt to the innermost scope's statement list.
func (st *Stack) AppendStatement(stmt ast.Statement) {
	s := st.Innermost()
	s.statements = append(s.statements, stmt)
}
