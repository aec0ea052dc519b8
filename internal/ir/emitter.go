// Package ir declares the abstract builder interface the lowerer drives.
// Concrete IR construction and machine-code emission are an external
// collaborator (spec.md §1, §6): this package never implements Emitter,
// it only names the operations internal/lower calls in order, so that a
// downstream code generator (an LLVM builder, a bytecode VM, anything)
// can satisfy it however it likes.
package ir

import "github.com/Sherif-Abdou/simplescript/internal/types"

// Value, Block, and Function are opaque handles owned entirely by the
// concrete Emitter implementation. internal/lower never inspects them; it
// only threads them back into later Emitter calls.
type (
	Value    = any
	Block    = any
	Function = any
)

// BinOp is the closed set of binary arithmetic operations lowering emits
// (spec.md §4.4 precedence table, excluding comparisons, which go through
// Compare).
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
)

func (op BinOp) String() string {
	switch op {
	case Add:
		return "Add"
	case Sub:
		return "Sub"
	case Mul:
		return "Mul"
	case Div:
		return "Div"
	default:
		return "UnknownBinOp"
	}
}

// CmpOp is the closed set of comparison operations (spec.md §9 resolved
// Open Question: signed comparison for every integer type, char included).
type CmpOp int

const (
	CmpEQ CmpOp = iota
	CmpNEQ
	CmpLT
	CmpLTE
	CmpGT
	CmpGTE
)

func (op CmpOp) String() string {
	switch op {
	case CmpEQ:
		return "CmpEQ"
	case CmpNEQ:
		return "CmpNEQ"
	case CmpLT:
		return "CmpLT"
	case CmpLTE:
		return "CmpLTE"
	case CmpGT:
		return "CmpGT"
	case CmpGTE:
		return "CmpGTE"
	default:
		return "UnknownCmpOp"
	}
}

// Emitter is the complete set of operations the lowerer needs from a
// backend (spec.md §4.7): function/block construction, control flow,
// constants, arithmetic, stack allocation, loads/stores, element
// addressing into arrays and records, pointer bitcasts, calls, and return.
//
// Every method that a real backend can plausibly reject (a malformed GEP
// base, an unsupported bitcast, too many blocks for a function that was
// never created) returns an error so the lowerer can report it as
// Lower::BackendError rather than panicking; a backend that can never
// fail a given operation is free to always return a nil error.
type Emitter interface {
	// CreateFunction declares a function with the given parameter types,
	// optional return type (nil means void), and variadic flag, returning
	// a handle lowering threads through EnterBlock, Param, and Call.
	CreateFunction(name string, paramTypes []*types.Type, returnType *types.Type, variadic bool) (Function, error)

	// EnterBlock creates a new basic block belonging to fn and returns a
	// handle to it. The block is empty until PositionAtEnd makes it the
	// active insertion point and lowering emits instructions into it.
	EnterBlock(fn Function, label string) (Block, error)

	// PositionAtEnd makes b the active insertion point: every subsequent
	// constant/arithmetic/memory/call operation appends to it until the
	// next PositionAtEnd call.
	PositionAtEnd(b Block) error

	// Branch terminates the active block with a conditional branch.
	Branch(cond Value, thenBlock, elseBlock Block) error

	// Jump terminates the active block with an unconditional branch.
	Jump(b Block) error

	ConstInt(v int64) (Value, error)
	ConstFloat(v float64) (Value, error)
	ConstBool(v bool) (Value, error)
	ConstChar(v byte) (Value, error)

	// BinaryOp computes an arithmetic result of operandType (spec.md §9:
	// integer overflow wraps, never traps).
	BinaryOp(op BinOp, operandType *types.Type, lhs, rhs Value) (Value, error)

	// Compare always yields a bool value; operand typing is validated
	// upstream by the annotator.
	Compare(op CmpOp, lhs, rhs Value) (Value, error)

	// Negate computes the arithmetic negation of v, which must have
	// numeric type ty.
	Negate(v Value, ty *types.Type) (Value, error)

	// Alloca reserves stack storage for ty, zero-initialized, and returns
	// its address. Used for every local variable, parameter, and
	// composite literal temporary.
	Alloca(ty *types.Type, name string) (Value, error)

	Load(addr Value, ty *types.Type) (Value, error)
	Store(addr, value Value) error

	// ElementPtr computes the address of base[index] where base has array
	// element type elemType.
	ElementPtr(base, index Value, elemType *types.Type) (Value, error)

	// FieldPtr computes the address of the fieldIndex'th field of the
	// record addressed by base.
	FieldPtr(base Value, fieldIndex int, recordType *types.Type) (Value, error)

	// Bitcast reinterprets a pointer value as pointing to a different
	// type, used for pointer-to-pointer casts and array-to-pointer decay
	// (e.g. string literals lowering to &char).
	Bitcast(v Value, to *types.Type) (Value, error)

	// IntToFloat converts an integer value to the floating-point
	// representation (spec.md §4.6 cast rule: integer-to-float only, never
	// the reverse).
	IntToFloat(v Value) (Value, error)

	// Param returns the index'th incoming argument of fn, read at the top
	// of its entry block before being stored into its parameter alloca.
	Param(fn Function, index int) (Value, error)

	Call(fn Function, args []Value) (Value, error)

	// EmitReturn terminates the active block. value is nil for a void
	// return.
	EmitReturn(value Value) error
}
