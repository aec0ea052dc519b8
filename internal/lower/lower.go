// Package lower traverses a fully annotated AST (internal/semantic has
// already attached a *types.Type to every expression) and drives an
// ir.Emitter to build the corresponding IR, per spec.md §4.7. It depends
// only on the ir.Emitter interface, never on a concrete backend.
package lower

import (
	"fmt"

	"github.com/Sherif-Abdou/simplescript/internal/ast"
	"github.com/Sherif-Abdou/simplescript/internal/ir"
	"github.com/Sherif-Abdou/simplescript/internal/types"
)

// Context is the process-wide lowering state threaded explicitly through
// every lowering call, rather than relying on package-level state
// (spec.md §9, "Process-wide context"): the emitter, the type table, and
// the handle tables for declared functions and the current function's
// local variables.
type Context struct {
	table   *types.Table
	emitter ir.Emitter

	functions       map[string]ir.Function
	funcReturnType  map[string]*types.Type
	funcVariadic    map[string]bool
	funcParamNames  map[string][]string

	// currentFn and locals are reset at the start of every function body
	// lowering; locals maps a variable name to its stack address.
	currentFn ir.Function
	locals    map[string]ir.Value
}

// New returns a Context ready to lower a program whose types were all
// resolved against table.
func New(table *types.Table, emitter ir.Emitter) *Context {
	return &Context{
		table:          table,
		emitter:        emitter,
		functions:      make(map[string]ir.Function),
		funcReturnType: make(map[string]*types.Type),
		funcVariadic:   make(map[string]bool),
		funcParamNames: make(map[string][]string),
	}
}

// Lower lowers every function declared in prog. It proceeds in two passes
// so that a function may call another declared later in the source
// (spec.md §4.7 lists no forward-declaration restriction, and the
// annotator has already checked every call against signatures it
// registered before walking any function body):
// first every function (including extern ones) gets an ir.Function
// handle, then every non-extern function's body is lowered.
func (c *Context) Lower(prog *ast.Program) error {
	for _, stmt := range prog.Statements {
		fn, ok := stmt.(*ast.FunctionDecl)
		if !ok {
			continue
		}
		if err := c.declareFunction(fn); err != nil {
			return err
		}
	}
	for _, stmt := range prog.Statements {
		fn, ok := stmt.(*ast.FunctionDecl)
		if !ok || fn.Extern {
			continue
		}
		if err := c.lowerFunctionBody(fn); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) declareFunction(fn *ast.FunctionDecl) error {
	paramTypes := make([]*types.Type, len(fn.Parameters))
	paramNames := make([]string, len(fn.Parameters))
	for i, p := range fn.Parameters {
		ty, ok := c.table.Lookup(p.Type)
		if !ok {
			return &Error{Kind: Unannotated, Node: fmt.Sprintf("parameter %q of %s", p.Name, fn.Name)}
		}
		paramTypes[i] = ty
		paramNames[i] = p.Name
	}
	var returnType *types.Type
	if fn.ReturnType != "" {
		ty, ok := c.table.Lookup(fn.ReturnType)
		if !ok {
			return &Error{Kind: Unannotated, Node: fmt.Sprintf("return type of %s", fn.Name)}
		}
		returnType = ty
	}
	handle, err := c.emitter.CreateFunction(fn.Name, paramTypes, returnType, fn.Variadic)
	if err != nil {
		return backendErr(err)
	}
	c.functions[fn.Name] = handle
	c.funcReturnType[fn.Name] = returnType
	c.funcVariadic[fn.Name] = fn.Variadic
	c.funcParamNames[fn.Name] = paramNames
	return nil
}

// lowerFunctionBody opens an entry block, registers every parameter as a
// pointer-backed local (alloca, then store the incoming value), then
// lowers each body statement in turn (spec.md §4.7).
func (c *Context) lowerFunctionBody(fn *ast.FunctionDecl) error {
	handle := c.functions[fn.Name]
	c.currentFn = handle
	c.locals = make(map[string]ir.Value, len(fn.Parameters))

	entry, err := c.emitter.EnterBlock(handle, "entry")
	if err != nil {
		return backendErr(err)
	}
	if err := wrap(c.emitter.PositionAtEnd(entry)); err != nil {
		return err
	}

	for i, p := range fn.Parameters {
		pty, ok := c.table.Lookup(p.Type)
		if !ok {
			return &Error{Kind: Unannotated, Node: fmt.Sprintf("parameter %q of %s", p.Name, fn.Name)}
		}
		addr, err := c.emitter.Alloca(pty, p.Name)
		if err != nil {
			return backendErr(err)
		}
		val, err := c.emitter.Param(handle, i)
		if err != nil {
			return backendErr(err)
		}
		if err := wrap(c.emitter.Store(addr, val)); err != nil {
			return err
		}
		c.locals[p.Name] = addr
	}

	for _, stmt := range fn.Body {
		if err := c.lowerStmt(stmt, fn); err != nil {
			return err
		}
	}
	return nil
}

// wrap turns a bare error from an Emitter call with no Value result into a
// Lower::BackendError.
func wrap(err error) error { return backendErr(err) }
