package lower

import (
	"fmt"

	"github.com/Sherif-Abdou/simplescript/internal/ast"
	"github.com/Sherif-Abdou/simplescript/internal/ir"
	"github.com/Sherif-Abdou/simplescript/internal/token"
	"github.com/Sherif-Abdou/simplescript/internal/types"
)

// lowerExpr lowers expr to a Value, structurally recursing per spec.md
// §4.7. Arrays and records are handled by reference throughout this
// lowerer: the Value produced for any array- or record-typed expression
// is always its stack address, never a loaded copy, exactly like the
// address a composite literal's own storage is built at. This is what
// makes FieldExtract's "implicit dereference" of a pointer-to-record base
// (spec.md §4.6) fall out for free in expressionAddress below, with no
// separate conditional: a &Record variable's *value* (an ordinary Load,
// since pointers are scalar) and a Record variable's *value* (its
// address, by the convention above) are both already the record address
// FieldPtr needs.
func (c *Context) lowerExpr(expr ast.Expression) (ir.Value, error) {
	ty := expr.Type()
	if ty == nil {
		return nil, &Error{Kind: Unannotated, Node: fmt.Sprintf("%T", expr)}
	}

	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		v, err := c.emitter.ConstInt(e.Value)
		return v, backendErr(err)
	case *ast.FloatLiteral:
		v, err := c.emitter.ConstFloat(e.Value)
		return v, backendErr(err)
	case *ast.CharLiteral:
		v, err := c.emitter.ConstChar(e.Value)
		return v, backendErr(err)
	case *ast.StringLiteral:
		return c.lowerStringLiteral(e)
	case *ast.ArrayLiteral:
		return c.lowerArrayLiteral(e, ty)
	case *ast.RecordLiteral:
		addr, err := c.emitter.Alloca(ty, "record literal")
		return addr, backendErr(err)
	case *ast.VariableRead:
		return c.loadOrAddress(c.locals[e.Name], ty)
	case *ast.IndexExtract:
		addr, err := c.expressionAddress(e)
		if err != nil {
			return nil, err
		}
		return c.loadOrAddress(addr, ty)
	case *ast.FieldExtract:
		addr, err := c.expressionAddress(e)
		if err != nil {
			return nil, err
		}
		return c.loadOrAddress(addr, ty)
	case *ast.BinaryExpr:
		return c.lowerBinary(e)
	case *ast.UnaryExpr:
		return c.lowerUnary(e)
	case *ast.CallExpr:
		return c.lowerCall(e)
	case *ast.CastExpr:
		return c.lowerCast(e)
	default:
		return nil, &Error{Kind: Unannotated, Node: fmt.Sprintf("unknown expression %T", expr)}
	}
}

// loadOrAddress returns addr's pointee value for scalar/pointer types, or
// addr itself for array/record types, per the by-reference convention
// documented on lowerExpr.
func (c *Context) loadOrAddress(addr ir.Value, ty *types.Type) (ir.Value, error) {
	if ty.Shape == types.ShapeArray || ty.Shape == types.ShapeRecord {
		return addr, nil
	}
	v, err := c.emitter.Load(addr, ty)
	return v, backendErr(err)
}

func (c *Context) lowerStringLiteral(e *ast.StringLiteral) (ir.Value, error) {
	charTy, _ := c.table.Lookup("char")
	bytes := []byte(e.Value)
	arrTy := c.table.Array(charTy, int64(len(bytes)))
	addr, err := c.emitter.Alloca(arrTy, "string literal")
	if err != nil {
		return nil, backendErr(err)
	}
	for i, b := range bytes {
		idx, err := c.emitter.ConstInt(int64(i))
		if err != nil {
			return nil, backendErr(err)
		}
		elemAddr, err := c.emitter.ElementPtr(addr, idx, charTy)
		if err != nil {
			return nil, backendErr(err)
		}
		val, err := c.emitter.ConstChar(b)
		if err != nil {
			return nil, backendErr(err)
		}
		if err := wrap(c.emitter.Store(elemAddr, val)); err != nil {
			return nil, err
		}
	}
	ptrTy := c.table.Pointer(charTy)
	v, err := c.emitter.Bitcast(addr, ptrTy)
	return v, backendErr(err)
}

func (c *Context) lowerArrayLiteral(e *ast.ArrayLiteral, ty *types.Type) (ir.Value, error) {
	addr, err := c.emitter.Alloca(ty, "array literal")
	if err != nil {
		return nil, backendErr(err)
	}
	for i, elemExpr := range e.Elements {
		val, err := c.lowerExpr(elemExpr)
		if err != nil {
			return nil, err
		}
		idx, err := c.emitter.ConstInt(int64(i))
		if err != nil {
			return nil, backendErr(err)
		}
		elemAddr, err := c.emitter.ElementPtr(addr, idx, ty.Elem)
		if err != nil {
			return nil, backendErr(err)
		}
		if err := wrap(c.emitter.Store(elemAddr, val)); err != nil {
			return nil, err
		}
	}
	return addr, nil
}

func (c *Context) lowerBinary(e *ast.BinaryExpr) (ir.Value, error) {
	lhs, err := c.lowerExpr(e.Left)
	if err != nil {
		return nil, err
	}
	rhs, err := c.lowerExpr(e.Right)
	if err != nil {
		return nil, err
	}
	if cmp, ok := cmpOpFor(e.Op); ok {
		v, err := c.emitter.Compare(cmp, lhs, rhs)
		return v, backendErr(err)
	}
	bin, ok := binOpFor(e.Op)
	if !ok {
		return nil, &Error{Kind: Unannotated, Node: fmt.Sprintf("operator %s", e.Op)}
	}
	v, err := c.emitter.BinaryOp(bin, e.Left.Type(), lhs, rhs)
	return v, backendErr(err)
}

func (c *Context) lowerUnary(e *ast.UnaryExpr) (ir.Value, error) {
	switch e.Op {
	case token.AMP:
		addr, err := c.expressionAddress(e.Operand)
		return addr, err
	case token.STAR:
		// Dereference: the operand's lowered value is already the pointee
		// address (pointers are the scalar Value produced for a &T-typed
		// expression). For an aggregate pointee, that address is exactly
		// what loadOrAddress's by-reference convention wants back as-is.
		ptr, err := c.lowerExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		return c.loadOrAddress(ptr, e.Type())
	case token.MINUS:
		v, err := c.lowerExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		result, err := c.emitter.Negate(v, e.Type())
		return result, backendErr(err)
	default:
		return nil, &Error{Kind: Unannotated, Node: fmt.Sprintf("unary operator %s", e.Op)}
	}
}

func (c *Context) lowerCall(e *ast.CallExpr) (ir.Value, error) {
	handle, ok := c.functions[e.Name]
	if !ok {
		return nil, &Error{Kind: Unannotated, Node: fmt.Sprintf("call to undeclared function %q", e.Name)}
	}
	args := make([]ir.Value, len(e.Args))
	for i, argExpr := range e.Args {
		v, err := c.lowerExpr(argExpr)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	v, err := c.emitter.Call(handle, args)
	return v, backendErr(err)
}

func (c *Context) lowerCast(e *ast.CastExpr) (ir.Value, error) {
	v, err := c.lowerExpr(e.Value)
	if err != nil {
		return nil, err
	}
	from := e.Value.Type()
	to := e.Type()
	switch {
	case from.IsInteger() && to.IsInteger():
		return v, nil
	case from.IsInteger() && to.IsFloat():
		result, err := c.emitter.IntToFloat(v)
		return result, backendErr(err)
	case from.Shape == types.ShapePointer && to.Shape == types.ShapePointer:
		result, err := c.emitter.Bitcast(v, to)
		return result, backendErr(err)
	default:
		return nil, &Error{Kind: Unannotated, Node: fmt.Sprintf("unsupported cast %s as %s", from, to)}
	}
}

// expressionAddress returns a writable address for an lvalue expression
// (spec.md §4.7): variable reads, index/field extraction, and
// dereference. The semantic annotator has already rejected every other
// expression shape as types.NotAddressable, so reaching the default case
// here is a lowering bug, not a user error.
func (c *Context) expressionAddress(expr ast.Expression) (ir.Value, error) {
	switch e := expr.(type) {
	case *ast.VariableRead:
		addr, ok := c.locals[e.Name]
		if !ok {
			return nil, &Error{Kind: Unannotated, Node: fmt.Sprintf("address of undeclared variable %q", e.Name)}
		}
		return addr, nil
	case *ast.IndexExtract:
		base, err := c.lowerExpr(e.Base)
		if err != nil {
			return nil, err
		}
		idx, err := c.lowerExpr(e.Index)
		if err != nil {
			return nil, err
		}
		addr, err := c.emitter.ElementPtr(base, idx, e.Type())
		return addr, backendErr(err)
	case *ast.FieldExtract:
		base, err := c.lowerExpr(e.Base)
		if err != nil {
			return nil, err
		}
		recordType := e.Base.Type()
		if recordType.Shape == types.ShapePointer {
			recordType = recordType.Pointee
		}
		idx, ok := recordType.FieldIndex[e.Field]
		if !ok {
			return nil, &Error{Kind: Unannotated, Node: fmt.Sprintf("field %q of %s", e.Field, recordType)}
		}
		addr, err := c.emitter.FieldPtr(base, idx, recordType)
		return addr, backendErr(err)
	case *ast.UnaryExpr:
		if e.Op == token.STAR {
			return c.lowerExpr(e.Operand)
		}
		return nil, &Error{Kind: Unannotated, Node: "non-addressable unary expression"}
	default:
		return nil, &Error{Kind: Unannotated, Node: fmt.Sprintf("non-addressable expression %T", expr)}
	}
}

func binOpFor(op token.Type) (ir.BinOp, bool) {
	switch op {
	case token.PLUS:
		return ir.Add, true
	case token.MINUS:
		return ir.Sub, true
	case token.STAR:
		return ir.Mul, true
	case token.SLASH:
		return ir.Div, true
	default:
		return 0, false
	}
}

func cmpOpFor(op token.Type) (ir.CmpOp, bool) {
	switch op {
	case token.EQ:
		return ir.CmpEQ, true
	case token.NEQ:
		return ir.CmpNEQ, true
	case token.LT:
		return ir.CmpLT, true
	case token.LTE:
		return ir.CmpLTE, true
	case token.GT:
		return ir.CmpGT, true
	case token.GTE:
		return ir.CmpGTE, true
	default:
		return 0, false
	}
}
