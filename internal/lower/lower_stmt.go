package lower

import (
	"fmt"

	"github.com/Sherif-Abdou/simplescript/internal/ast"
)

// lowerStmt lowers a single statement within fn's body (spec.md §4.7).
func (c *Context) lowerStmt(stmt ast.Statement, fn *ast.FunctionDecl) error {
	switch s := stmt.(type) {
	case *ast.ReturnStmt:
		return c.lowerReturn(s)
	case *ast.ConditionalStmt:
		return c.lowerConditional(s, fn)
	case *ast.LoopStmt:
		return c.lowerLoop(s, fn)
	case *ast.DeclareOrAssignStmt:
		return c.lowerDeclareOrAssign(s)
	case *ast.LValueAssignStmt:
		return c.lowerLValueAssign(s)
	case *ast.ExpressionStmt:
		_, err := c.lowerExpr(s.Value)
		return err
	case *ast.TypeDeclStmt:
		// Struct declarations only affect the type table, already
		// resolved during parsing; nothing to emit.
		return nil
	case *ast.FunctionDecl:
		return &Error{Kind: Unannotated, Node: "nested function declaration"}
	default:
		return &Error{Kind: Unannotated, Node: fmt.Sprintf("unknown statement %T", stmt)}
	}
}

func (c *Context) lowerReturn(s *ast.ReturnStmt) error {
	if s.Value == nil {
		return wrap(c.emitter.EmitReturn(nil))
	}
	v, err := c.lowerExpr(s.Value)
	if err != nil {
		return err
	}
	return wrap(c.emitter.EmitReturn(v))
}

// lowerConditional lowers `if cond { then }` with a then/merge pair
// (spec.md §4.7): the condition branches to then or directly to merge,
// the then-body jumps to merge when it falls through, and merge becomes
// the active block afterward — every lowered if has a single, reachable
// exit (testable property 7).
//
// An `else` clause parses as a second ConditionalStmt with a nil
// Condition appended immediately after the first (see
// internal/parser/parser_stmt.go's parseIf); that second statement is
// lowered the same way, with its own condition check skipped.
func (c *Context) lowerConditional(s *ast.ConditionalStmt, fn *ast.FunctionDecl) error {
	if s.Condition == nil {
		// An unconditional `else` block: lower its body in place, no new
		// blocks needed since control already falls straight through.
		for _, inner := range s.Then {
			if err := c.lowerStmt(inner, fn); err != nil {
				return err
			}
		}
		return nil
	}
	cond, err := c.lowerExpr(s.Condition)
	if err != nil {
		return err
	}
	thenBlock, err := c.emitter.EnterBlock(c.currentFn, "then")
	if err != nil {
		return backendErr(err)
	}
	mergeBlock, err := c.emitter.EnterBlock(c.currentFn, "merge")
	if err != nil {
		return backendErr(err)
	}
	if err := wrap(c.emitter.Branch(cond, thenBlock, mergeBlock)); err != nil {
		return err
	}
	if err := wrap(c.emitter.PositionAtEnd(thenBlock)); err != nil {
		return err
	}
	for _, inner := range s.Then {
		if err := c.lowerStmt(inner, fn); err != nil {
			return err
		}
	}
	if err := wrap(c.emitter.Jump(mergeBlock)); err != nil {
		return err
	}
	return wrap(c.emitter.PositionAtEnd(mergeBlock))
}

// lowerLoop lowers `while cond { body }` with header/body/exit blocks
// (spec.md §4.7): the header recomputes the condition every iteration and
// branches into the body or out to exit; the body jumps back to header.
func (c *Context) lowerLoop(s *ast.LoopStmt, fn *ast.FunctionDecl) error {
	header, err := c.emitter.EnterBlock(c.currentFn, "header")
	if err != nil {
		return backendErr(err)
	}
	body, err := c.emitter.EnterBlock(c.currentFn, "body")
	if err != nil {
		return backendErr(err)
	}
	exit, err := c.emitter.EnterBlock(c.currentFn, "exit")
	if err != nil {
		return backendErr(err)
	}

	if err := wrap(c.emitter.Jump(header)); err != nil {
		return err
	}
	if err := wrap(c.emitter.PositionAtEnd(header)); err != nil {
		return err
	}
	cond, err := c.lowerExpr(s.Condition)
	if err != nil {
		return err
	}
	if err := wrap(c.emitter.Branch(cond, body, exit)); err != nil {
		return err
	}
	if err := wrap(c.emitter.PositionAtEnd(body)); err != nil {
		return err
	}
	for _, inner := range s.Body {
		if err := c.lowerStmt(inner, fn); err != nil {
			return err
		}
	}
	if err := wrap(c.emitter.Jump(header)); err != nil {
		return err
	}
	return wrap(c.emitter.PositionAtEnd(exit))
}

// lowerDeclareOrAssign allocates storage for s.Name on its first
// occurrence, then stores the lowered right-hand side (spec.md §4.7).
func (c *Context) lowerDeclareOrAssign(s *ast.DeclareOrAssignStmt) error {
	addr, exists := c.locals[s.Name]
	if !exists {
		ty := s.Value.Type()
		if ty == nil {
			return &Error{Kind: Unannotated, Node: fmt.Sprintf("declaration of %q", s.Name)}
		}
		a, err := c.emitter.Alloca(ty, s.Name)
		if err != nil {
			return backendErr(err)
		}
		addr = a
		c.locals[s.Name] = addr
	}
	val, err := c.lowerExpr(s.Value)
	if err != nil {
		return err
	}
	return wrap(c.emitter.Store(addr, val))
}

// lowerLValueAssign computes the address of an addressable target (a
// variable read, index or field extraction, or dereference) and
// stores the lowered value into it (spec.md §4.7, "expression_address").
func (c *Context) lowerLValueAssign(s *ast.LValueAssignStmt) error {
	addr, err := c.expressionAddress(s.Target)
	if err != nil {
		return err
	}
	val, err := c.lowerExpr(s.Value)
	if err != nil {
		return err
	}
	return wrap(c.emitter.Store(addr, val))
}
