package semantic

import (
	"fmt"

	"github.com/Sherif-Abdou/simplescript/internal/ast"
	"github.com/Sherif-Abdou/simplescript/internal/token"
	"github.com/Sherif-Abdou/simplescript/internal/types"
)

// annotateExpr attaches a type to expr and every sub-expression beneath
// it, bottom-up, exactly per spec.md §4.6.
func (a *Annotator) annotateExpr(expr ast.Expression) (*types.Type, error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		ty := a.prim("i64")
		e.SetType(ty)
		return ty, nil
	case *ast.FloatLiteral:
		ty := a.prim("f64")
		e.SetType(ty)
		return ty, nil
	case *ast.CharLiteral:
		ty := a.prim("char")
		e.SetType(ty)
		return ty, nil
	case *ast.StringLiteral:
		ty := a.table.Pointer(a.prim("char"))
		e.SetType(ty)
		return ty, nil
	case *ast.ArrayLiteral:
		return a.annotateArrayLiteral(e)
	case *ast.RecordLiteral:
		ty, ok := a.table.Lookup(e.Name)
		if !ok || ty.Shape != types.ShapeRecord {
			pos := e.Pos()
			return nil, &types.Error{Kind: types.Unknown, Symbol: e.Name, File: pos.File, Line: pos.Line, Column: pos.Column}
		}
		e.SetType(ty)
		return ty, nil
	case *ast.VariableRead:
		v, ok := a.scopes.LookupVariable(e.Name)
		if !ok || v.Type == nil {
			pos := e.Pos()
			return nil, &types.Error{Kind: types.Unknown, Symbol: e.Name, File: pos.File, Line: pos.Line, Column: pos.Column}
		}
		e.SetType(v.Type)
		return v.Type, nil
	case *ast.IndexExtract:
		return a.annotateIndex(e)
	case *ast.FieldExtract:
		return a.annotateField(e)
	case *ast.BinaryExpr:
		return a.annotateBinary(e)
	case *ast.UnaryExpr:
		return a.annotateUnary(e)
	case *ast.CallExpr:
		return a.annotateCall(e)
	case *ast.CastExpr:
		return a.annotateCast(e)
	default:
		return nil, fmt.Errorf("semantic: unknown expression %T", expr)
	}
}

func (a *Annotator) prim(name string) *types.Type {
	ty, _ := a.table.Lookup(name)
	return ty
}

func (a *Annotator) annotateArrayLiteral(e *ast.ArrayLiteral) (*types.Type, error) {
	if len(e.Elements) == 0 {
		pos := e.Pos()
		return nil, &types.Error{Kind: types.EmptyArray, File: pos.File, Line: pos.Line, Column: pos.Column}
	}
	elemTy, err := a.annotateExpr(e.Elements[0])
	if err != nil {
		return nil, err
	}
	for _, el := range e.Elements[1:] {
		ty, err := a.annotateExpr(el)
		if err != nil {
			return nil, err
		}
		if !types.Equal(ty, elemTy) {
			return nil, mismatchErr(elemTy.Symbol, ty.Symbol, el.Pos())
		}
	}
	arrTy := a.table.Array(elemTy, int64(len(e.Elements)))
	e.SetType(arrTy)
	return arrTy, nil
}

func (a *Annotator) annotateIndex(e *ast.IndexExtract) (*types.Type, error) {
	baseTy, err := a.annotateExpr(e.Base)
	if err != nil {
		return nil, err
	}
	idxTy, err := a.annotateExpr(e.Index)
	if err != nil {
		return nil, err
	}
	if !idxTy.IsInteger() {
		return nil, mismatchErr("i64", idxTy.Symbol, e.Index.Pos())
	}
	var elemTy *types.Type
	switch baseTy.Shape {
	case types.ShapeArray:
		elemTy = baseTy.Elem
	case types.ShapePointer:
		elemTy = baseTy.Pointee
	default:
		return nil, mismatchErr("array or pointer", baseTy.Symbol, e.Base.Pos())
	}
	e.SetType(elemTy)
	return elemTy, nil
}

func (a *Annotator) annotateField(e *ast.FieldExtract) (*types.Type, error) {
	baseTy, err := a.annotateExpr(e.Base)
	if err != nil {
		return nil, err
	}
	record := baseTy
	if baseTy.Shape == types.ShapePointer {
		record = baseTy.Pointee
	} else if e.ArrowSugar {
		return nil, mismatchErr("pointer", baseTy.Symbol, e.Base.Pos())
	}
	if record.Shape == types.ShapePlaceholder {
		resolved, err := a.table.Resolve(record)
		if err != nil {
			return nil, err
		}
		record = resolved
	}
	if record.Shape != types.ShapeRecord {
		return nil, mismatchErr("record", baseTy.Symbol, e.Base.Pos())
	}
	idx, ok := record.FieldIndex[e.Field]
	if !ok {
		pos := e.Pos()
		return nil, &types.Error{Kind: types.NoSuchField, Field: e.Field, Record: record.Symbol, File: pos.File, Line: pos.Line, Column: pos.Column}
	}
	fieldTy := record.Fields[idx].Type
	e.SetType(fieldTy)
	return fieldTy, nil
}

func isComparisonOp(op token.Type) bool {
	switch op {
	case token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE:
		return true
	default:
		return false
	}
}

func (a *Annotator) annotateBinary(e *ast.BinaryExpr) (*types.Type, error) {
	lt, err := a.annotateExpr(e.Left)
	if err != nil {
		return nil, err
	}
	rt, err := a.annotateExpr(e.Right)
	if err != nil {
		return nil, err
	}
	if !types.Equal(lt, rt) {
		return nil, mismatchErr(lt.Symbol, rt.Symbol, e.Right.Pos())
	}
	if isComparisonOp(e.Op) {
		boolTy := a.prim("bool")
		e.SetType(boolTy)
		return boolTy, nil
	}
	if !lt.IsNumeric() {
		return nil, mismatchErr("numeric", lt.Symbol, e.Left.Pos())
	}
	e.SetType(lt)
	return lt, nil
}

func (a *Annotator) annotateUnary(e *ast.UnaryExpr) (*types.Type, error) {
	switch e.Op {
	case token.AMP:
		opTy, err := a.addressableType(e.Operand)
		if err != nil {
			return nil, err
		}
		ptrTy := a.table.Pointer(opTy)
		e.SetType(ptrTy)
		return ptrTy, nil
	case token.STAR:
		opTy, err := a.annotateExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		if opTy.Shape != types.ShapePointer {
			return nil, mismatchErr("pointer", opTy.Symbol, e.Operand.Pos())
		}
		e.SetType(opTy.Pointee)
		return opTy.Pointee, nil
	case token.MINUS:
		opTy, err := a.annotateExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		if !opTy.IsNumeric() {
			return nil, mismatchErr("numeric", opTy.Symbol, e.Operand.Pos())
		}
		e.SetType(opTy)
		return opTy, nil
	default:
		return nil, fmt.Errorf("semantic: unknown unary operator %s", e.Op)
	}
}

func (a *Annotator) annotateCall(e *ast.CallExpr) (*types.Type, error) {
	sig, ok := a.sigs[e.Name]
	if !ok {
		return nil, fmt.Errorf("semantic: call to undeclared function %q", e.Name)
	}
	argTypes := make([]*types.Type, len(e.Args))
	for i, argExpr := range e.Args {
		ty, err := a.annotateExpr(argExpr)
		if err != nil {
			return nil, err
		}
		argTypes[i] = ty
	}
	pos := e.Pos()
	if sig.Variadic {
		if len(argTypes) < len(sig.Params) {
			return nil, &types.Error{Kind: types.ArityMismatch, File: pos.File, Line: pos.Line, Column: pos.Column}
		}
	} else if len(argTypes) != len(sig.Params) {
		return nil, &types.Error{Kind: types.ArityMismatch, File: pos.File, Line: pos.Line, Column: pos.Column}
	}
	for i := 0; i < len(sig.Params); i++ {
		if !types.Equal(argTypes[i], sig.Params[i]) {
			return nil, mismatchErr(sig.Params[i].Symbol, argTypes[i].Symbol, e.Args[i].Pos())
		}
	}
	// A variadic tail (spec.md §4.6) accepts any count of any type beyond
	// the fixed parameters; nothing further to check.
	e.SetType(sig.Return)
	return sig.Return, nil
}

func (a *Annotator) annotateCast(e *ast.CastExpr) (*types.Type, error) {
	fromTy, err := a.annotateExpr(e.Value)
	if err != nil {
		return nil, err
	}
	toTy, ok := a.table.Lookup(e.TargetName)
	if !ok {
		pos := e.Pos()
		return nil, &types.Error{Kind: types.Unknown, Symbol: e.TargetName, File: pos.File, Line: pos.Line, Column: pos.Column}
	}
	switch {
	case fromTy.IsInteger() && toTy.IsInteger():
	case fromTy.IsInteger() && toTy.IsFloat():
	case fromTy.Shape == types.ShapePointer && toTy.Shape == types.ShapePointer:
	default:
		return nil, mismatchErr("a castable type", fmt.Sprintf("%s as %s", fromTy, toTy), e.Pos())
	}
	e.SetType(toTy)
	return toTy, nil
}

// addressableType annotates expr and additionally requires it to denote a
// storage location: a variable read, an index/field extraction, or a
// dereference (spec.md §4.7 "expression_address"). Anything else fails
// with types.NotAddressable, matching spec.md §7's NotAddressable kind.
func (a *Annotator) addressableType(expr ast.Expression) (*types.Type, error) {
	ty, err := a.annotateExpr(expr)
	if err != nil {
		return nil, err
	}
	switch e := expr.(type) {
	case *ast.VariableRead, *ast.IndexExtract, *ast.FieldExtract:
		return ty, nil
	case *ast.UnaryExpr:
		if e.Op == token.STAR {
			return ty, nil
		}
	}
	pos := expr.Pos()
	return nil, &types.Error{Kind: types.NotAddressable, File: pos.File, Line: pos.Line, Column: pos.Column}
}
