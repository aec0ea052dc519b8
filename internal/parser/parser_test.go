package parser

import (
	"testing"

	"github.com/Sherif-Abdou/simplescript/internal/ast"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p, err := New(src, "test.ss")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return prog
}

func mustFailParse(t *testing.T, src string) error {
	t.Helper()
	p, err := New(src, "test.ss")
	if err != nil {
		return err
	}
	_, err = p.Parse()
	if err == nil {
		t.Fatalf("Parse(%q) succeeded, want error", src)
	}
	return err
}

func firstExprStmt(t *testing.T, prog *ast.Program) ast.Expression {
	t.Helper()
	if len(prog.Statements) == 0 {
		t.Fatal("empty program")
	}
	switch s := prog.Statements[0].(type) {
	case *ast.ExpressionStmt:
		return s.Value
	case *ast.DeclareOrAssignStmt:
		return s.Value
	default:
		t.Fatalf("statement 0 is %T, want ExpressionStmt or DeclareOrAssignStmt", s)
		return nil
	}
}

func TestArithmeticPrecedence(t *testing.T) {
	// 1 + 2 * 3 should parse as 1 + (2 * 3), not (1 + 2) * 3.
	prog := mustParse(t, "x = 1 + 2 * 3\n")
	bin, ok := firstExprStmt(t, prog).(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.BinaryExpr", firstExprStmt(t, prog))
	}
	if bin.Op.String() != "PLUS" {
		t.Fatalf("top op = %s, want PLUS", bin.Op)
	}
	right, ok := bin.Right.(*ast.BinaryExpr)
	if !ok || right.Op.String() != "STAR" {
		t.Fatalf("right = %+v, want a STAR BinaryExpr", bin.Right)
	}
}

func TestSubtractionIsLeftAssociative(t *testing.T) {
	// 10 - 3 - 2 should parse as (10 - 3) - 2.
	prog := mustParse(t, "x = 10 - 3 - 2\n")
	bin, ok := firstExprStmt(t, prog).(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.BinaryExpr", firstExprStmt(t, prog))
	}
	left, ok := bin.Left.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("left = %+v, want nested BinaryExpr (10 - 3)", bin.Left)
	}
	if _, ok := left.Left.(*ast.IntegerLiteral); !ok {
		t.Fatalf("innermost left operand = %+v, want IntegerLiteral(10)", left.Left)
	}
	if _, ok := bin.Right.(*ast.IntegerLiteral); !ok {
		t.Fatalf("outer right operand = %+v, want IntegerLiteral(2)", bin.Right)
	}
}

func TestUnaryMinusBindsTighterThanBinaryMinus(t *testing.T) {
	// a - -b should parse as a - (-b), not (a - -) - b.
	prog := mustParse(t, "a = 1\nb = 2\nx = a - -b\n")
	stmt := prog.Statements[2].(*ast.DeclareOrAssignStmt)
	bin, ok := stmt.Value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.BinaryExpr", stmt.Value)
	}
	unary, ok := bin.Right.(*ast.UnaryExpr)
	if !ok {
		t.Fatalf("right = %+v, want UnaryExpr(-b)", bin.Right)
	}
	if unary.Op.String() != "MINUS" {
		t.Fatalf("unary op = %s, want MINUS", unary.Op)
	}
}

func TestLeadingUnaryMinus(t *testing.T) {
	// -a - 1 should parse as (-a) - 1.
	prog := mustParse(t, "a = 1\nx = -a - 1\n")
	stmt := prog.Statements[1].(*ast.DeclareOrAssignStmt)
	bin, ok := stmt.Value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.BinaryExpr", stmt.Value)
	}
	if _, ok := bin.Left.(*ast.UnaryExpr); !ok {
		t.Fatalf("left = %+v, want UnaryExpr(-a)", bin.Left)
	}
}

func TestPostfixBindsTighterThanPrefix(t *testing.T) {
	// *a as i64 should deref the cast, i.e. *(a as i64), since postfix is
	// applied to an atom the moment it is built, before any prefix wraps it.
	prog := mustParse(t, "struct Pair { left: i64, right: i64 }\na = Pair()\nx = *a as i64\n")
	stmt := prog.Statements[2].(*ast.DeclareOrAssignStmt)
	unary, ok := stmt.Value.(*ast.UnaryExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.UnaryExpr", stmt.Value)
	}
	if _, ok := unary.Operand.(*ast.CastExpr); !ok {
		t.Fatalf("operand = %+v, want CastExpr (postfix `as` applied before the prefix `*`)", unary.Operand)
	}
}

func TestChainedComparisonIsRejected(t *testing.T) {
	mustFailParse(t, "a = 1\nb = 2\nc = 3\nif a < b < c {\n}\n")
}

func TestCallExpression(t *testing.T) {
	src := "def add(a: i64, b: i64) : i64 {\n  return a + b\n}\nx = add(1, 2)\n"
	prog := mustParse(t, src)
	stmt := prog.Statements[1].(*ast.DeclareOrAssignStmt)
	call, ok := stmt.Value.(*ast.CallExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.CallExpr", stmt.Value)
	}
	if call.Name != "add" || len(call.Args) != 2 {
		t.Fatalf("call = %+v, want add(1, 2)", call)
	}
}

func TestFieldAndIndexPostfix(t *testing.T) {
	src := "struct Node { value: i64 }\nn = Node()\nv = n.value\n"
	prog := mustParse(t, src)
	stmt := prog.Statements[2].(*ast.DeclareOrAssignStmt)
	field, ok := stmt.Value.(*ast.FieldExtract)
	if !ok {
		t.Fatalf("got %T, want *ast.FieldExtract", stmt.Value)
	}
	if field.Field != "value" || field.ArrowSugar {
		t.Fatalf("field = %+v, want .value (no arrow sugar)", field)
	}
}

func TestArrowIsFieldSugar(t *testing.T) {
	src := "struct Node { value: i64, next: &Node }\nn = Node()\np = &n\nv = p->value\n"
	prog := mustParse(t, src)
	stmt := prog.Statements[3].(*ast.DeclareOrAssignStmt)
	field, ok := stmt.Value.(*ast.FieldExtract)
	if !ok {
		t.Fatalf("got %T, want *ast.FieldExtract", stmt.Value)
	}
	if !field.ArrowSugar {
		t.Fatal("expected ArrowSugar to be set for `->`")
	}
}

func TestSelfReferentialStructDeclares(t *testing.T) {
	src := "struct Node {\n  value: i64\n  next: &Node\n}\n"
	prog := mustParse(t, src)
	decl, ok := prog.Statements[0].(*ast.TypeDeclStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.TypeDeclStmt", prog.Statements[0])
	}
	if decl.Fields[1].Type != "&Node" {
		t.Fatalf("next field type = %q, want &Node", decl.Fields[1].Type)
	}
}

func TestDeclareThenReassign(t *testing.T) {
	prog := mustParse(t, "x = 1\nx = 2\n")
	if len(prog.Statements) != 2 {
		t.Fatalf("got %d statements, want 2", len(prog.Statements))
	}
	if _, ok := prog.Statements[0].(*ast.DeclareOrAssignStmt); !ok {
		t.Fatalf("statement 0 = %T, want DeclareOrAssignStmt", prog.Statements[0])
	}
	if _, ok := prog.Statements[1].(*ast.DeclareOrAssignStmt); !ok {
		t.Fatalf("statement 1 = %T, want DeclareOrAssignStmt", prog.Statements[1])
	}
}

func TestIndexAssignment(t *testing.T) {
	prog := mustParse(t, "a = [1, 2, 3]\na[0] = 9\n")
	assign, ok := prog.Statements[1].(*ast.LValueAssignStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.LValueAssignStmt", prog.Statements[1])
	}
	if _, ok := assign.Target.(*ast.IndexExtract); !ok {
		t.Fatalf("target = %+v, want IndexExtract", assign.Target)
	}
}

func TestIfElseChain(t *testing.T) {
	// `else if` / `else` clauses are parsed as their own ConditionalStmt,
	// appended as siblings of the leading `if` rather than nested inside it
	// (see parseIf's comment on why: the AST has no Else field).
	src := "x = 1\nif x == 1 {\n  y = 1\n} else if x == 2 {\n  y = 2\n} else {\n  y = 3\n}\n"
	prog := mustParse(t, src)
	if len(prog.Statements) != 4 {
		t.Fatalf("got %d top-level statements, want 4 (decl + if + else-if + else)", len(prog.Statements))
	}
	for i := 1; i <= 3; i++ {
		cond, ok := prog.Statements[i].(*ast.ConditionalStmt)
		if !ok {
			t.Fatalf("statement %d = %T, want ConditionalStmt", i, prog.Statements[i])
		}
		if i == 3 && cond.Condition != nil {
			t.Fatalf("final else clause has Condition = %+v, want nil", cond.Condition)
		}
	}
}

func TestWhileLoop(t *testing.T) {
	src := "i = 0\nwhile i < 10 {\n  i = i + 1\n}\n"
	prog := mustParse(t, src)
	loop, ok := prog.Statements[1].(*ast.LoopStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.LoopStmt", prog.Statements[1])
	}
	if len(loop.Body) != 1 {
		t.Fatalf("loop body has %d statements, want 1", len(loop.Body))
	}
}

func TestExternDeclaration(t *testing.T) {
	prog := mustParse(t, "extern def printf(fmt: &char) : i64\n")
	decl, ok := prog.Statements[0].(*ast.FunctionDecl)
	if !ok {
		t.Fatalf("got %T, want *ast.FunctionDecl", prog.Statements[0])
	}
	if !decl.Extern || decl.Body != nil {
		t.Fatalf("decl = %+v, want Extern with no Body", decl)
	}
}

func TestUnresolvedIdentifierIsRejected(t *testing.T) {
	err := mustFailParse(t, "x = undeclaredname\n")
	pe, ok := err.(*Error)
	if !ok || pe.Kind != Unresolved {
		t.Fatalf("err = %v, want Unresolved", err)
	}
}

func TestArrayLiteralAndType(t *testing.T) {
	prog := mustParse(t, "xs: [i64:3] = [1, 2, 3]\n")
	decl, ok := prog.Statements[0].(*ast.DeclareOrAssignStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.DeclareOrAssignStmt", prog.Statements[0])
	}
	if decl.DeclaredType != "[i64:3]" {
		t.Fatalf("declared type = %q, want [i64:3]", decl.DeclaredType)
	}
	arr, ok := decl.Value.(*ast.ArrayLiteral)
	if !ok || len(arr.Elements) != 3 {
		t.Fatalf("value = %+v, want a 3-element ArrayLiteral", decl.Value)
	}
}
