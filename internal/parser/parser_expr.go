package parser

import (
	"strconv"

	"github.com/Sherif-Abdou/simplescript/internal/ast"
	"github.com/Sherif-Abdou/simplescript/internal/token"
	"github.com/Sherif-Abdou/simplescript/internal/types"
)

// The expression grammar is parsed in two phases (spec.md §4.4), rather
// than the teacher's direct recursive-descent precedence cascade, because
// the grammar mixes left-associative infix operators with prefix `-`/`*`
// and a postfix chain, and getting the prefix/infix split right for `*`
// and `-` needs to see the whole flat run of top-level slots at once:
//
//  1. slotize flattens the run of tokens up to the statement terminator
//     into "slots" — either a single already-classified atom (a literal,
//     a parenthesized group, an array literal, or a call with its
//     arguments) or a raw operator token. The contents of a bracketed
//     group are parsed recursively, as soon as the group is met, into the
//     single atom that stands for it; no depth counter is kept and no
//     bracket token is ever left in the slot list.
//  2. parseRange recursively splits a slot range on the lowest-precedence,
//     rightmost occurrence of a binary operator at local depth 0 (slots
//     are already depth-0 by construction), producing correct precedence
//     and left-associativity; it bottoms out in parseLocal, which handles
//     prefix operators and single atoms. Every atom is already complete by
//     the time it becomes a slot: slotize applies the postfix chain (`[]`,
//     `.`, `->`, `as`) to each atom the instant it finishes building it,
//     which is also what disambiguates a literal `[` that starts a fresh
//     array-literal atom from one that indexes the atom just built.
type slotKind int

const (
	slotAtom slotKind = iota // a fully parsed leaf or bracketed group
	slotOp                   // a single operator token
)

type slot struct {
	kind slotKind
	atom ast.Expression
	op   token.Type
	tok  token.Token
}

// precedence groups, lowest first (spec.md §4.4 step 1): comparisons bind
// loosest, then additive, then multiplicative.
var precedenceGroups = [][]token.Type{
	{token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE},
	{token.PLUS, token.MINUS},
	{token.STAR, token.SLASH},
}

// isComparison answers spec.md §9's resolved Open Question: comparison
// operators do not chain. `a < b < c` is rejected once parseRange finds a
// second comparison operator to the left of the one it just split on.
func isComparison(op token.Type) bool {
	switch op {
	case token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE:
		return true
	default:
		return false
	}
}

// parseExpression is the parser's public expression entry point.
func (p *Parser) parseExpression() (ast.Expression, error) {
	slots, err := p.slotize()
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, &Error{Kind: EmptyExpression, File: p.cur.File, Line: p.cur.Line, Column: p.cur.Column}
	}
	return p.parseRange(slots)
}

// slotize consumes tokens from the cursor up to (but not including) the
// statement terminator, turning each bracketed construct into a single
// atom slot by parsing its contents recursively, and leaving every
// top-level operator as its own slot.
func (p *Parser) slotize() ([]slot, error) {
	var slots []slot
	for {
		switch p.cur.Type {
		case token.EOL, token.EOF, token.RBRACE, token.LBRACE, token.COMMA, token.RPAREN, token.RBRACKET, token.ASSIGN:
			return slots, nil
		case token.LPAREN:
			updated, err := p.slotizeParenOrCall(slots)
			if err != nil {
				return nil, err
			}
			slots = updated
		case token.LBRACKET:
			tok := p.cur
			atom, err := p.parseArrayLiteral()
			if err != nil {
				return nil, err
			}
			finished, err := p.parsePostfix(atom, tok)
			if err != nil {
				return nil, err
			}
			slots = append(slots, slot{kind: slotAtom, atom: finished, tok: tok})
		case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE, token.AMP:
			slots = append(slots, slot{kind: slotOp, op: p.cur.Type, tok: p.cur})
			if err := p.advance(); err != nil {
				return nil, err
			}
		case token.IDENT:
			atom, err := p.slotizeIdentifier()
			if err != nil {
				return nil, err
			}
			slots = append(slots, atom)
		case token.INTEGER:
			tok := p.cur
			n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
			if err != nil {
				return nil, &Error{Kind: UnexpectedToken, Found: "malformed integer literal", File: tok.File, Line: tok.Line, Column: tok.Column}
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			finished, err := p.parsePostfix(&ast.IntegerLiteral{Token: tok, Value: n}, tok)
			if err != nil {
				return nil, err
			}
			slots = append(slots, slot{kind: slotAtom, atom: finished, tok: tok})
		case token.FLOAT:
			tok := p.cur
			f, err := strconv.ParseFloat(tok.Lexeme, 64)
			if err != nil {
				return nil, &Error{Kind: UnexpectedToken, Found: "malformed float literal", File: tok.File, Line: tok.Line, Column: tok.Column}
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			finished, err := p.parsePostfix(&ast.FloatLiteral{Token: tok, Value: f}, tok)
			if err != nil {
				return nil, err
			}
			slots = append(slots, slot{kind: slotAtom, atom: finished, tok: tok})
		case token.STRING:
			tok := p.cur
			if err := p.advance(); err != nil {
				return nil, err
			}
			finished, err := p.parsePostfix(&ast.StringLiteral{Token: tok, Value: tok.Lexeme}, tok)
			if err != nil {
				return nil, err
			}
			slots = append(slots, slot{kind: slotAtom, atom: finished, tok: tok})
		case token.CHAR:
			tok := p.cur
			if err := p.advance(); err != nil {
				return nil, err
			}
			finished, err := p.parsePostfix(&ast.CharLiteral{Token: tok, Value: tok.Lexeme[0]}, tok)
			if err != nil {
				return nil, err
			}
			slots = append(slots, slot{kind: slotAtom, atom: finished, tok: tok})
		default:
			return nil, p.unexpectedToken()
		}
	}
}

// slotizeParenOrCall handles `(` two ways: as a grouped sub-expression, or,
// when immediately preceded by a pendingCall slot, as that call's argument
// list (spec.md §4.4 step 2d/3) — in which case the pendingCall slot is
// replaced in place by the resolved CallExpr rather than appended after it.
func (p *Parser) slotizeParenOrCall(prior []slot) ([]slot, error) {
	if len(prior) > 0 && prior[len(prior)-1].kind == slotAtom {
		if call, ok := prior[len(prior)-1].atom.(*pendingCall); ok {
			if err := p.advance(); err != nil {
				return nil, err
			}
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			expr := &ast.CallExpr{Token: call.tok, Name: call.name, Args: args}
			finished, err := p.parsePostfix(expr, call.tok)
			if err != nil {
				return nil, err
			}
			prior[len(prior)-1] = slot{kind: slotAtom, atom: finished, tok: call.tok}
			return prior, nil
		}
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}
	inner, err := p.parseExpressionUntilCloseParen()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN, "')'"); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	finished, err := p.parsePostfix(inner, tok)
	if err != nil {
		return nil, err
	}
	return append(prior, slot{kind: slotAtom, atom: finished, tok: tok}), nil
}

func (p *Parser) parseArgList() ([]ast.Expression, error) {
	var args []ast.Expression
	if p.cur.Type == token.RPAREN {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return args, nil
	}
	for {
		arg, err := p.parseExpressionUntilCloseParen()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur.Type == token.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expect(token.RPAREN, "')'"); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return args, nil
}

// parseExpressionUntilCloseParen parses one full expression whose extent is
// bounded by a `)`, `]` or `,` at the current bracket depth (used inside
// grouping parens, call argument lists, and array literals).
func (p *Parser) parseExpressionUntilCloseParen() (ast.Expression, error) {
	slots, err := p.slotizeBounded()
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, &Error{Kind: EmptyExpression, File: p.cur.File, Line: p.cur.Line, Column: p.cur.Column}
	}
	return p.parseRange(slots)
}

// slotizeBounded is slotize under the name used for a nested bracketed
// context; slotize already stops before `)`, `]` and `,`.
func (p *Parser) slotizeBounded() ([]slot, error) {
	return p.slotize()
}

// parseArrayLiteral parses `[e1, e2, ...]`.
func (p *Parser) parseArrayLiteral() (ast.Expression, error) {
	tok := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}
	var elems []ast.Expression
	if p.cur.Type != token.RBRACKET {
		for {
			e, err := p.parseExpressionUntilCloseBracket()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if p.cur.Type == token.COMMA {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if err := p.expect(token.RBRACKET, "']'"); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &ast.ArrayLiteral{Token: tok, Elements: elems}, nil
}

func (p *Parser) parseExpressionUntilCloseBracket() (ast.Expression, error) {
	return p.parseExpressionUntilCloseParen()
}

// pendingCall is a sentinel atom produced by slotizeIdentifier when an
// identifier is immediately followed by `(` and does not name a record
// type: it is replaced by the real CallExpr once slotizeParenOrCall
// sees the following `(`. It never survives past slotize.
type pendingCall struct {
	ast.Expression
	tok  token.Token
	name string
}

// slotizeIdentifier classifies a bare identifier the moment it is seen, per
// spec.md §4.4 step 2d: a variable read, the start of a call, or the start
// of a zero-argument record literal. A name followed by `(` that is not a
// record type always starts a call, whether or not a function of that name
// is declared yet; the annotator rejects a call to an undeclared function.
// Any other name that is not a bound variable is Unresolved.
func (p *Parser) slotizeIdentifier() (slot, error) {
	tok := p.cur
	name := tok.Lexeme
	if err := p.advance(); err != nil {
		return slot{}, err
	}
	if p.cur.Type == token.LPAREN {
		if p.recordExists(name) {
			if err := p.advance(); err != nil {
				return slot{}, err
			}
			if err := p.expect(token.RPAREN, "')'"); err != nil {
				return slot{}, err
			}
			if err := p.advance(); err != nil {
				return slot{}, err
			}
			finished, err := p.parsePostfix(&ast.RecordLiteral{Token: tok, Name: name}, tok)
			if err != nil {
				return slot{}, err
			}
			return slot{kind: slotAtom, atom: finished, tok: tok}, nil
		}
		return slot{kind: slotAtom, atom: &pendingCall{tok: tok, name: name}, tok: tok}, nil
	}
	if _, ok := p.scopes.LookupVariable(name); ok {
		finished, err := p.parsePostfix(&ast.VariableRead{Token: tok, Name: name}, tok)
		if err != nil {
			return slot{}, err
		}
		return slot{kind: slotAtom, atom: finished, tok: tok}, nil
	}
	if p.scopes.HasFunction(name) {
		// A bare function name with no following `(` never appears in this
		// grammar; it is rejected here as Unresolved, the same as an
		// unknown variable read.
		return slot{}, p.unresolved(name, tok)
	}
	if _, ok := p.table.Lookup(name); ok {
		return slot{}, p.unresolved(name, tok)
	}
	return slot{}, p.unresolved(name, tok)
}

// recordExists reports whether name names a declared record type (as
// opposed to a primitive or array/pointer symbol, which can never be
// called).
func (p *Parser) recordExists(name string) bool {
	ty, ok := p.table.Lookup(name)
	return ok && ty.Shape == types.ShapeRecord
}

// --- phase 2: precedence-climbing over the slot range ---

// parseRange parses the expression described by slots, recursing on
// the lowest-precedence, rightmost eligible operator slot found at this
// level (every slot is already local-depth 0 by construction: slotize
// never emits a slot for anything inside brackets).
func (p *Parser) parseRange(slots []slot) (ast.Expression, error) {
	for _, group := range precedenceGroups {
		if idx, ok := rightmostInfix(slots, group); ok {
			left, err := p.parseRange(slots[:idx])
			if err != nil {
				return nil, err
			}
			right, err := p.parseRange(slots[idx+1:])
			if err != nil {
				return nil, err
			}
			opTok := slots[idx].tok
			if isComparison(opTok.Type) {
				if _, chained := rightmostInfix(slots[:idx], group); chained {
					return nil, &Error{Kind: UnexpectedToken, Found: "chained comparison", File: opTok.File, Line: opTok.Line, Column: opTok.Column}
				}
			}
			return &ast.BinaryExpr{Token: opTok, Left: left, Op: opTok.Type, Right: right}, nil
		}
	}
	return p.parseLocal(slots)
}

// rightmostInfix scans slots right-to-left for the last operator slot
// whose type is in group and that is usable as an infix operator at this
// position (i.e. not a leading prefix use): position 0 is always prefix
// (spec.md §4.4 step 1b), and an operator is prefix whenever the slot
// immediately before it is itself an operator or absent, rather than an
// atom (endsOperand).
func rightmostInfix(slots []slot, group []token.Type) (int, bool) {
	for i := len(slots) - 1; i >= 0; i-- {
		if slots[i].kind != slotOp {
			continue
		}
		if !containsOp(group, slots[i].op) {
			continue
		}
		if i == 0 {
			continue // always prefix in this position
		}
		if !endsOperand(slots[i-1]) {
			continue // prefix use (e.g. `a - -b`), not this infix occurrence
		}
		return i, true
	}
	return -1, false
}

func containsOp(group []token.Type, op token.Type) bool {
	for _, g := range group {
		if g == op {
			return true
		}
	}
	return false
}

// endsOperand reports whether s can be the left operand of a following
// infix operator, i.e. s is an atom rather than another operator.
func endsOperand(s slot) bool { return s.kind == slotAtom }

// parseLocal bottoms out a slot range with no remaining infix occurrence:
// a single atom, or a leading prefix `-`/`*`/`&` applied to the rest of the
// range.
func (p *Parser) parseLocal(slots []slot) (ast.Expression, error) {
	if len(slots) == 0 {
		return nil, &Error{Kind: EmptyExpression}
	}
	first := slots[0]
	if first.kind == slotOp {
		switch first.op {
		case token.MINUS, token.STAR, token.AMP:
			operand, err := p.parseRange(slots[1:])
			if err != nil {
				return nil, err
			}
			return &ast.UnaryExpr{Token: first.tok, Op: first.op, Operand: operand}, nil
		default:
			return nil, &Error{Kind: UnexpectedToken, Found: first.tok.Type.String(), File: first.tok.File, Line: first.tok.Line, Column: first.tok.Column}
		}
	}
	if len(slots) != 1 {
		// A run of two or more atoms with no operator between them (e.g. a
		// stray pendingCall never turned into a CallExpr because no `(`
		// followed) is a syntax error.
		bad := slots[1]
		return nil, &Error{Kind: UnexpectedToken, Found: bad.tok.Type.String(), File: bad.tok.File, Line: bad.tok.Line, Column: bad.tok.Column}
	}
	if pc, ok := first.atom.(*pendingCall); ok {
		return nil, p.unresolved(pc.name, pc.tok)
	}
	return first.atom, nil
}

// parsePostfix threads index/field/arrow/cast postfix operators onto base,
// left to right, applied by slotize at the moment each atom finishes
// building (spec.md §4.4 step 3).
func (p *Parser) parsePostfix(base ast.Expression, tok token.Token) (ast.Expression, error) {
	for {
		switch p.cur.Type {
		case token.LBRACKET:
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpressionUntilCloseBracket()
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.RBRACKET, "']'"); err != nil {
				return nil, err
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			base = &ast.IndexExtract{Token: tok, Base: base, Index: idx}
		case token.DOT:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.Type != token.IDENT {
				return nil, p.missingToken("a field name")
			}
			field := p.cur.Lexeme
			if err := p.advance(); err != nil {
				return nil, err
			}
			base = &ast.FieldExtract{Token: tok, Base: base, Field: field}
		case token.ARROW:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.Type != token.IDENT {
				return nil, p.missingToken("a field name")
			}
			field := p.cur.Lexeme
			if err := p.advance(); err != nil {
				return nil, err
			}
			base = &ast.FieldExtract{Token: tok, Base: base, Field: field, ArrowSugar: true}
		case token.AS:
			if err := p.advance(); err != nil {
				return nil, err
			}
			ty, err := p.parseType()
			if err != nil {
				return nil, err
			}
			base = &ast.CastExpr{Token: tok, Value: base, TargetName: ty.Symbol}
		default:
			return base, nil
		}
	}
}
