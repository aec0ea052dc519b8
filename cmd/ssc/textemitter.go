package main

import (
	"fmt"
	"io"

	"github.com/Sherif-Abdou/simplescript/internal/ir"
	"github.com/Sherif-Abdou/simplescript/internal/types"
)

// textEmitter is a demonstration ir.Emitter that prints every operation
// it receives as a readable trace, standing in for the real IR
// builder/JIT engine spec.md §1 keeps out of scope. It is wired up only
// by this command, never imported by any package under internal/.
type textEmitter struct {
	out      io.Writer
	funcSeq  int
	blockSeq int
	valueSeq int
}

func newTextEmitter(out io.Writer) *textEmitter { return &textEmitter{out: out} }

func (e *textEmitter) nextValue(format string, args ...any) string {
	e.valueSeq++
	label := fmt.Sprintf("%%v%d", e.valueSeq)
	fmt.Fprintf(e.out, "  %s = "+format+"\n", append([]any{label}, args...)...)
	return label
}

func (e *textEmitter) CreateFunction(name string, paramTypes []*types.Type, returnType *types.Type, variadic bool) (ir.Function, error) {
	e.funcSeq++
	ret := "void"
	if returnType != nil {
		ret = returnType.Symbol
	}
	fmt.Fprintf(e.out, "func %s(%d params, variadic=%v) -> %s {\n", name, len(paramTypes), variadic, ret)
	return name, nil
}

func (e *textEmitter) EnterBlock(fn ir.Function, label string) (ir.Block, error) {
	e.blockSeq++
	id := fmt.Sprintf("%s.%s%d", fn, label, e.blockSeq)
	fmt.Fprintf(e.out, "  block %s:\n", id)
	return id, nil
}

func (e *textEmitter) PositionAtEnd(b ir.Block) error {
	fmt.Fprintf(e.out, "  ; at %s\n", b)
	return nil
}

func (e *textEmitter) Branch(cond ir.Value, thenBlock, elseBlock ir.Block) error {
	fmt.Fprintf(e.out, "  br %v ? %s : %s\n", cond, thenBlock, elseBlock)
	return nil
}

func (e *textEmitter) Jump(b ir.Block) error {
	fmt.Fprintf(e.out, "  jmp %s\n", b)
	return nil
}

func (e *textEmitter) ConstInt(v int64) (ir.Value, error) {
	return e.nextValue("const i64 %d", v), nil
}

func (e *textEmitter) ConstFloat(v float64) (ir.Value, error) {
	return e.nextValue("const f64 %g", v), nil
}

func (e *textEmitter) ConstBool(v bool) (ir.Value, error) {
	return e.nextValue("const bool %v", v), nil
}

func (e *textEmitter) ConstChar(v byte) (ir.Value, error) {
	return e.nextValue("const char %q", v), nil
}

func (e *textEmitter) BinaryOp(op ir.BinOp, operandType *types.Type, lhs, rhs ir.Value) (ir.Value, error) {
	return e.nextValue("%s %s %v, %v", op, operandType, lhs, rhs), nil
}

func (e *textEmitter) Compare(op ir.CmpOp, lhs, rhs ir.Value) (ir.Value, error) {
	return e.nextValue("%s %v, %v", op, lhs, rhs), nil
}

func (e *textEmitter) Negate(v ir.Value, ty *types.Type) (ir.Value, error) {
	return e.nextValue("neg %s %v", ty, v), nil
}

func (e *textEmitter) Alloca(ty *types.Type, name string) (ir.Value, error) {
	return e.nextValue("alloca %s ; %s", ty, name), nil
}

func (e *textEmitter) Load(addr ir.Value, ty *types.Type) (ir.Value, error) {
	return e.nextValue("load %s, %v", ty, addr), nil
}

func (e *textEmitter) Store(addr, value ir.Value) error {
	fmt.Fprintf(e.out, "  store %v -> %v\n", value, addr)
	return nil
}

func (e *textEmitter) ElementPtr(base, index ir.Value, elemType *types.Type) (ir.Value, error) {
	return e.nextValue("gep %s, %v[%v]", elemType, base, index), nil
}

func (e *textEmitter) FieldPtr(base ir.Value, fieldIndex int, recordType *types.Type) (ir.Value, error) {
	return e.nextValue("fieldptr %s, %v.%d", recordType, base, fieldIndex), nil
}

func (e *textEmitter) Bitcast(v ir.Value, to *types.Type) (ir.Value, error) {
	return e.nextValue("bitcast %v to %s", v, to), nil
}

func (e *textEmitter) IntToFloat(v ir.Value) (ir.Value, error) {
	return e.nextValue("sitofp %v", v), nil
}

func (e *textEmitter) Param(fn ir.Function, index int) (ir.Value, error) {
	return e.nextValue("param %s[%d]", fn, index), nil
}

func (e *textEmitter) Call(fn ir.Function, args []ir.Value) (ir.Value, error) {
	return e.nextValue("call %s(%v)", fn, args), nil
}

func (e *textEmitter) EmitReturn(value ir.Value) error {
	if value == nil {
		fmt.Fprintln(e.out, "  ret void")
	} else {
		fmt.Fprintf(e.out, "  ret %v\n", value)
	}
	return nil
}
