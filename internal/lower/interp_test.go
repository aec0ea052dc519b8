package lower

import (
	"fmt"

	"github.com/Sherif-Abdou/simplescript/internal/ir"
	"github.com/Sherif-Abdou/simplescript/internal/types"
)

// interpEmitter is a test-only ir.Emitter that records every operation as an
// instruction in a small block graph, then actually executes that graph
// (interpEmitter.Run) so a lowered program's scenarios can be asserted by
// their real output value rather than by a recorded call trace. It is not a
// stand-in for a production backend: it exists only so internal/lower's
// tests can check the IR it drives is not just well-formed but correct.
type interpEmitter struct {
	funcs    map[string]*irFunc
	curBlock *irBlock
	nextRef  int
}

func newInterpEmitter() *interpEmitter {
	return &interpEmitter{funcs: make(map[string]*irFunc)}
}

type irFunc struct {
	name       string
	paramTypes []*types.Type
	returnType *types.Type
	variadic   bool
	blocks     []*irBlock
}

type irBlock struct {
	label  string
	instrs []*instr
}

type regRef int

type opcode int

const (
	opConstInt opcode = iota
	opConstFloat
	opConstBool
	opConstChar
	opBinOp
	opCompare
	opNegate
	opAlloca
	opLoad
	opStore
	opElementPtr
	opFieldPtr
	opBitcast
	opIntToFloat
	opParam
	opCall
	opBranch
	opJump
	opReturn
)

type instr struct {
	op   opcode
	dest regRef
	a, b regRef

	ty       *types.Type
	binOp    ir.BinOp
	cmpOp    ir.CmpOp
	fieldIdx int
	args     []regRef

	intImm   int64
	floatImm float64
	boolImm  bool
	charImm  byte

	target               *irFunc
	thenBlock, elseBlock *irBlock
	jumpBlock            *irBlock
	hasValue             bool
}

func (e *interpEmitter) emit(in *instr) regRef {
	e.nextRef++
	in.dest = regRef(e.nextRef)
	e.curBlock.instrs = append(e.curBlock.instrs, in)
	return in.dest
}

func (e *interpEmitter) CreateFunction(name string, paramTypes []*types.Type, returnType *types.Type, variadic bool) (ir.Function, error) {
	fn := &irFunc{name: name, paramTypes: paramTypes, returnType: returnType, variadic: variadic}
	e.funcs[name] = fn
	return fn, nil
}

func (e *interpEmitter) EnterBlock(fn ir.Function, label string) (ir.Block, error) {
	f := fn.(*irFunc)
	b := &irBlock{label: label}
	f.blocks = append(f.blocks, b)
	return b, nil
}

func (e *interpEmitter) PositionAtEnd(b ir.Block) error {
	e.curBlock = b.(*irBlock)
	return nil
}

func (e *interpEmitter) Branch(cond ir.Value, thenBlock, elseBlock ir.Block) error {
	e.emit(&instr{op: opBranch, a: cond.(regRef), thenBlock: thenBlock.(*irBlock), elseBlock: elseBlock.(*irBlock)})
	return nil
}

func (e *interpEmitter) Jump(b ir.Block) error {
	e.emit(&instr{op: opJump, jumpBlock: b.(*irBlock)})
	return nil
}

func (e *interpEmitter) ConstInt(v int64) (ir.Value, error) {
	return e.emit(&instr{op: opConstInt, intImm: v}), nil
}

func (e *interpEmitter) ConstFloat(v float64) (ir.Value, error) {
	return e.emit(&instr{op: opConstFloat, floatImm: v}), nil
}

func (e *interpEmitter) ConstBool(v bool) (ir.Value, error) {
	return e.emit(&instr{op: opConstBool, boolImm: v}), nil
}

func (e *interpEmitter) ConstChar(v byte) (ir.Value, error) {
	return e.emit(&instr{op: opConstChar, charImm: v}), nil
}

func (e *interpEmitter) BinaryOp(op ir.BinOp, operandType *types.Type, lhs, rhs ir.Value) (ir.Value, error) {
	return e.emit(&instr{op: opBinOp, binOp: op, ty: operandType, a: lhs.(regRef), b: rhs.(regRef)}), nil
}

func (e *interpEmitter) Compare(op ir.CmpOp, lhs, rhs ir.Value) (ir.Value, error) {
	return e.emit(&instr{op: opCompare, cmpOp: op, a: lhs.(regRef), b: rhs.(regRef)}), nil
}

func (e *interpEmitter) Negate(v ir.Value, ty *types.Type) (ir.Value, error) {
	return e.emit(&instr{op: opNegate, ty: ty, a: v.(regRef)}), nil
}

func (e *interpEmitter) Alloca(ty *types.Type, name string) (ir.Value, error) {
	return e.emit(&instr{op: opAlloca, ty: ty}), nil
}

func (e *interpEmitter) Load(addr ir.Value, ty *types.Type) (ir.Value, error) {
	return e.emit(&instr{op: opLoad, ty: ty, a: addr.(regRef)}), nil
}

func (e *interpEmitter) Store(addr, value ir.Value) error {
	e.emit(&instr{op: opStore, a: addr.(regRef), b: value.(regRef)})
	return nil
}

func (e *interpEmitter) ElementPtr(base, index ir.Value, elemType *types.Type) (ir.Value, error) {
	return e.emit(&instr{op: opElementPtr, ty: elemType, a: base.(regRef), b: index.(regRef)}), nil
}

func (e *interpEmitter) FieldPtr(base ir.Value, fieldIndex int, recordType *types.Type) (ir.Value, error) {
	return e.emit(&instr{op: opFieldPtr, ty: recordType, a: base.(regRef), fieldIdx: fieldIndex}), nil
}

func (e *interpEmitter) Bitcast(v ir.Value, to *types.Type) (ir.Value, error) {
	return e.emit(&instr{op: opBitcast, ty: to, a: v.(regRef)}), nil
}

func (e *interpEmitter) IntToFloat(v ir.Value) (ir.Value, error) {
	return e.emit(&instr{op: opIntToFloat, a: v.(regRef)}), nil
}

func (e *interpEmitter) Param(fn ir.Function, index int) (ir.Value, error) {
	return e.emit(&instr{op: opParam, fieldIdx: index}), nil
}

func (e *interpEmitter) Call(fn ir.Function, args []ir.Value) (ir.Value, error) {
	refs := make([]regRef, len(args))
	for i, a := range args {
		refs[i] = a.(regRef)
	}
	return e.emit(&instr{op: opCall, target: fn.(*irFunc), args: refs}), nil
}

func (e *interpEmitter) EmitReturn(value ir.Value) error {
	in := &instr{op: opReturn}
	if value != nil {
		in.a = value.(regRef)
		in.hasValue = true
	}
	e.emit(in)
	return nil
}

// --- execution ---

// runtimeSlot is an addressable storage location: the runtime counterpart
// of an ir.Value produced by Alloca/ElementPtr/FieldPtr. Arrays and records
// are represented the same by-reference way internal/lower documents for
// its own Value convention: a runtimeSlot for a composite type owns its
// element/field slots directly, and Store on one copies the other's
// elems/fields wholesale rather than its scalar.
type runtimeSlot struct {
	ty     *types.Type
	scalar any
	elems  []*runtimeSlot
	fields []*runtimeSlot
}

func zeroSlot(ty *types.Type) *runtimeSlot {
	switch ty.Shape {
	case types.ShapeArray:
		elems := make([]*runtimeSlot, ty.Length)
		for i := range elems {
			elems[i] = zeroSlot(ty.Elem)
		}
		return &runtimeSlot{ty: ty, elems: elems}
	case types.ShapeRecord:
		fields := make([]*runtimeSlot, len(ty.Fields))
		for i, f := range ty.Fields {
			fields[i] = zeroSlot(f.Type)
		}
		return &runtimeSlot{ty: ty, fields: fields}
	case types.ShapePointer:
		return &runtimeSlot{ty: ty}
	default:
		switch ty.Symbol {
		case "f64":
			return &runtimeSlot{ty: ty, scalar: float64(0)}
		case "bool":
			return &runtimeSlot{ty: ty, scalar: false}
		case "char":
			return &runtimeSlot{ty: ty, scalar: byte(0)}
		default:
			return &runtimeSlot{ty: ty, scalar: int64(0)}
		}
	}
}

// Run executes funcName with args (already the right Go-native type for
// each parameter: int64, float64, bool, byte) and returns its result.
func (e *interpEmitter) Run(funcName string, args ...any) (any, error) {
	fn, ok := e.funcs[funcName]
	if !ok {
		return nil, fmt.Errorf("interp: no such function %q", funcName)
	}
	return e.call(fn, args)
}

func (e *interpEmitter) call(fn *irFunc, args []any) (any, error) {
	if len(fn.blocks) == 0 {
		return nil, fmt.Errorf("interp: %s has no blocks (extern function)", fn.name)
	}
	regs := make(map[regRef]any)
	cur := fn.blocks[0]
	for {
		next, ret, done, err := e.execBlock(cur, regs, args)
		if err != nil {
			return nil, err
		}
		if done {
			return ret, nil
		}
		cur = next
	}
}

func (e *interpEmitter) execBlock(b *irBlock, regs map[regRef]any, args []any) (*irBlock, any, bool, error) {
	for _, in := range b.instrs {
		switch in.op {
		case opConstInt:
			regs[in.dest] = in.intImm
		case opConstFloat:
			regs[in.dest] = in.floatImm
		case opConstBool:
			regs[in.dest] = in.boolImm
		case opConstChar:
			regs[in.dest] = in.charImm
		case opAlloca:
			regs[in.dest] = zeroSlot(in.ty)
		case opLoad:
			addr := regs[in.a].(*runtimeSlot)
			regs[in.dest] = addr.scalar
		case opStore:
			addr := regs[in.a].(*runtimeSlot)
			val := regs[in.b]
			switch addr.ty.Shape {
			case types.ShapeArray, types.ShapeRecord:
				vs := val.(*runtimeSlot)
				addr.elems = vs.elems
				addr.fields = vs.fields
			default:
				// Scalars and pointers alike: a pointer's value IS the
				// pointee's runtimeSlot reference, stored as-is rather than
				// copied through.
				addr.scalar = val
			}
		case opElementPtr:
			base := regs[in.a].(*runtimeSlot)
			idx, _ := asInt64(regs[in.b])
			regs[in.dest] = base.elems[idx]
		case opFieldPtr:
			base := regs[in.a].(*runtimeSlot)
			regs[in.dest] = base.fields[in.fieldIdx]
		case opBinOp:
			regs[in.dest] = evalBinOp(in.binOp, in.ty, regs[in.a], regs[in.b])
		case opCompare:
			regs[in.dest] = evalCompare(in.cmpOp, regs[in.a], regs[in.b])
		case opNegate:
			regs[in.dest] = evalNegate(in.ty, regs[in.a])
		case opBitcast:
			regs[in.dest] = regs[in.a]
		case opIntToFloat:
			f, _ := asInt64(regs[in.a])
			regs[in.dest] = float64(f)
		case opParam:
			regs[in.dest] = args[in.fieldIdx]
		case opCall:
			callArgs := make([]any, len(in.args))
			for i, r := range in.args {
				callArgs[i] = regs[r]
			}
			result, err := e.call(in.target, callArgs)
			if err != nil {
				return nil, nil, false, err
			}
			regs[in.dest] = result
		case opBranch:
			if regs[in.a].(bool) {
				return in.thenBlock, nil, false, nil
			}
			return in.elseBlock, nil, false, nil
		case opJump:
			return in.jumpBlock, nil, false, nil
		case opReturn:
			if !in.hasValue {
				return nil, nil, true, nil
			}
			return nil, regs[in.a], true, nil
		}
	}
	return nil, nil, false, fmt.Errorf("interp: block %q fell off the end with no terminator", b.label)
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case byte:
		return int64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case byte:
		return float64(t), true
	}
	return 0, false
}

func evalBinOp(op ir.BinOp, ty *types.Type, lhs, rhs any) any {
	if ty != nil && ty.IsFloat() {
		l, _ := asFloat64(lhs)
		r, _ := asFloat64(rhs)
		switch op {
		case ir.Add:
			return l + r
		case ir.Sub:
			return l - r
		case ir.Mul:
			return l * r
		case ir.Div:
			return l / r
		}
	}
	l, _ := asInt64(lhs)
	r, _ := asInt64(rhs)
	switch op {
	case ir.Add:
		return l + r
	case ir.Sub:
		return l - r
	case ir.Mul:
		return l * r
	case ir.Div:
		if r == 0 {
			return int64(0)
		}
		return l / r
	}
	return nil
}

func evalNegate(ty *types.Type, v any) any {
	if ty != nil && ty.IsFloat() {
		f, _ := asFloat64(v)
		return -f
	}
	i, _ := asInt64(v)
	return -i
}

func evalCompare(op ir.CmpOp, lhs, rhs any) bool {
	if lf, lok := asFloat64(lhs); lok {
		if rf, rok := asFloat64(rhs); rok {
			switch op {
			case ir.CmpEQ:
				return lf == rf
			case ir.CmpNEQ:
				return lf != rf
			case ir.CmpLT:
				return lf < rf
			case ir.CmpLTE:
				return lf <= rf
			case ir.CmpGT:
				return lf > rf
			case ir.CmpGTE:
				return lf >= rf
			}
		}
	}
	lb, _ := lhs.(bool)
	rb, _ := rhs.(bool)
	switch op {
	case ir.CmpEQ:
		return lb == rb
	case ir.CmpNEQ:
		return lb != rb
	}
	return false
}
