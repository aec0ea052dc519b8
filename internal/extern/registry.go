// Package extern catalogs the native function signatures a host
// environment is expected to provide for `extern def` bindings
// (spec.md §3, §4.5). It mirrors the teacher's stdlib packages
// (stdlib/cast, stdlib/iter, ...), each of which exposes a small, fixed
// set of named functions with fixed signatures, generalized here to this
// language's own type system: a name, parameter type symbols, a return
// type symbol (empty for void), and a variadic flag.
//
// The registry is consulted only to cross-check an extern declaration's
// written signature against a known host binding; it never backs the
// declaration with an actual implementation; that is the emitter's
// backend, explicitly out of scope (spec.md §1).
package extern

// Signature is one catalogued native function's call shape.
type Signature struct {
	Name       string
	Params     []string // type symbols, e.g. "i64", "&char"
	ReturnType string   // empty means void
	Variadic   bool
}

// catalog lists signatures commonly offered by a minimal C-like runtime,
// the natural host for this language's `extern` bindings (spec.md §3:
// "foreign calls").
var catalog = map[string]Signature{
	"printf":  {Name: "printf", Params: []string{"&char"}, ReturnType: "i64", Variadic: true},
	"malloc":  {Name: "malloc", Params: []string{"i64"}, ReturnType: "&char"},
	"free":    {Name: "free", Params: []string{"&char"}},
	"exit":    {Name: "exit", Params: []string{"i64"}},
	"strlen":  {Name: "strlen", Params: []string{"&char"}, ReturnType: "i64"},
	"memcpy":  {Name: "memcpy", Params: []string{"&char", "&char", "i64"}, ReturnType: "&char"},
}

// Lookup returns the catalogued signature for name, if any. A declaration
// whose name is absent from the catalog is not an error: spec.md's
// grammar lets a program declare any extern function it likes, with the
// source itself as the sole source of truth for its signature. Lookup
// exists so semantic analysis can optionally flag a mismatch when a
// well-known name is declared with a surprising signature.
func Lookup(name string) (Signature, bool) {
	sig, ok := catalog[name]
	return sig, ok
}

// Matches reports whether decl's written parameter/return symbols agree
// with the catalogued signature for name. It is only meaningful when
// Lookup(name) already reported ok; callers are not required to use it.
func (s Signature) Matches(params []string, returnType string, variadic bool) bool {
	if s.Variadic != variadic || s.ReturnType != returnType || len(s.Params) != len(params) {
		return false
	}
	for i, p := range s.Params {
		if p != params[i] {
			return false
		}
	}
	return true
}
