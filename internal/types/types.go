// Package types implements the canonical type descriptor graph: the
// symbol table of types seeded with primitives, plus the memoizing
// constructors the parser's type-expression state machine drives
// (spec.md §3, §4.2).
package types

import "fmt"

// Shape is the closed set of type descriptor shapes.
type Shape int

const (
	ShapePrimitive Shape = iota
	ShapeArray
	ShapeRecord
	ShapePointer
	ShapePlaceholder
)

// Field is one named, ordered field of a record type.
type Field struct {
	Name string
	Type *Type
}

// Type is a canonical type descriptor. Its Symbol is its identity: two
// descriptors with equal Symbol are semantically identical (spec.md §3,
// testable property 1).
type Type struct {
	Symbol string
	Shape  Shape

	// ShapeArray
	Elem   *Type
	Length int64

	// ShapeRecord
	Fields     []Field
	FieldIndex map[string]int

	// ShapePointer
	Pointee *Type

	// ShapePlaceholder: names a record not yet fully constructed.
	PlaceholderName string
}

func (t *Type) String() string { return t.Symbol }

// IsInteger reports whether t is the i64 primitive.
func (t *Type) IsInteger() bool { return t.Shape == ShapePrimitive && t.Symbol == "i64" }

// IsFloat reports whether t is the f64 primitive.
func (t *Type) IsFloat() bool { return t.Shape == ShapePrimitive && t.Symbol == "f64" }

// IsNumeric reports whether t supports arithmetic (§4.6).
func (t *Type) IsNumeric() bool { return t.IsInteger() || t.IsFloat() }

// IsBool reports whether t is the bool primitive.
func (t *Type) IsBool() bool { return t.Shape == ShapePrimitive && t.Symbol == "bool" }

// Table owns every type descriptor ever constructed during parsing. Entries
// are never removed (spec.md §3: "grows monotonically").
type Table struct {
	bySymbol map[string]*Type
}

// NewTable returns a Table seeded with the four primitives (spec.md §3).
func NewTable() *Table {
	t := &Table{bySymbol: make(map[string]*Type)}
	for _, name := range []string{"i64", "f64", "bool", "char"} {
		t.bySymbol[name] = &Type{Symbol: name, Shape: ShapePrimitive}
	}
	return t
}

// Lookup returns the descriptor registered under symbol, if any.
func (t *Table) Lookup(symbol string) (*Type, bool) {
	ty, ok := t.bySymbol[symbol]
	return ty, ok
}

// Pointer returns the canonical &T descriptor for elem, constructing and
// memoizing it if this is the first time it has been seen.
func (t *Table) Pointer(elem *Type) *Type {
	symbol := "&" + elem.Symbol
	if existing, ok := t.bySymbol[symbol]; ok {
		return existing
	}
	ty := &Type{Symbol: symbol, Shape: ShapePointer, Pointee: elem}
	t.bySymbol[symbol] = ty
	return ty
}

// Array returns the canonical [T:N] descriptor, constructing and memoizing
// it if this is the first time it has been seen.
func (t *Table) Array(elem *Type, length int64) *Type {
	symbol := fmt.Sprintf("[%s:%d]", elem.Symbol, length)
	if existing, ok := t.bySymbol[symbol]; ok {
		return existing
	}
	ty := &Type{Symbol: symbol, Shape: ShapeArray, Elem: elem, Length: length}
	t.bySymbol[symbol] = ty
	return ty
}

// Placeholder returns a not-yet-resolved self-reference to a record named
// name (spec.md §3, §9: "cyclic type references"). It is never memoized by
// symbol, since its meaning depends entirely on later resolution.
func (t *Table) Placeholder(name string) *Type {
	return &Type{Symbol: name, Shape: ShapePlaceholder, PlaceholderName: name}
}

// DeclareRecord installs the canonical descriptor for a struct declaration.
// fields may contain placeholders for self-references; those are resolved
// in place once the record itself is registered, so `&Name` fields inside
// `Name` resolve to the very descriptor being built.
func (t *Table) DeclareRecord(name string, fields []Field) *Type {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.Name] = i
	}
	rec := &Type{Symbol: name, Shape: ShapeRecord, Fields: fields, FieldIndex: index}
	t.bySymbol[name] = rec
	t.resolvePlaceholders(rec, rec)
	return rec
}

// resolvePlaceholders walks ty's structure looking for placeholder leaves
// naming target and rewrites them in place to point at target directly,
// without ever constructing a cyclic ownership graph (spec.md §3, §9): the
// placeholder is replaced by a pointer descriptor whose Pointee is target
// itself, never a copy.
func (t *Table) resolvePlaceholders(ty *Type, target *Type) {
	for i := range ty.Fields {
		f := &ty.Fields[i]
		if f.Type.Shape == ShapePointer && f.Type.Pointee.Shape == ShapePlaceholder && f.Type.Pointee.PlaceholderName == target.Symbol {
			// f.Type is itself the memoized "&Name" entry (constructed by
			// Pointer() against the placeholder while the record was still
			// being parsed); t.Pointer(target) would just hand that same
			// stale entry back by symbol. Rebuild it in place instead, so
			// every other field or later Lookup of this symbol also sees
			// the resolved pointee.
			resolved := &Type{Symbol: f.Type.Symbol, Shape: ShapePointer, Pointee: target}
			t.bySymbol[f.Type.Symbol] = resolved
			f.Type = resolved
		}
	}
}

// Resolve turns a placeholder descriptor into the real, fully built type it
// names, looking it up in the table. Used at any point a placeholder is
// read back out of the AST (e.g. during annotation or lowering) rather than
// only at record-declaration time.
func (t *Table) Resolve(ty *Type) (*Type, error) {
	if ty.Shape != ShapePlaceholder {
		return ty, nil
	}
	resolved, ok := t.bySymbol[ty.PlaceholderName]
	if !ok {
		return nil, &Error{Kind: Unknown, Symbol: ty.PlaceholderName}
	}
	return resolved, nil
}

// Equal reports whether two descriptors are the same canonical type
// (spec.md testable property 1: symbol equality is the identity).
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Symbol == b.Symbol
}
