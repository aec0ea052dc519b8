package lower

import (
	"testing"

	"github.com/Sherif-Abdou/simplescript/internal/parser"
	"github.com/Sherif-Abdou/simplescript/internal/semantic"
)

// runProgram parses, annotates, and lowers src, then executes funcName
// through the resulting IR via the interpreting fake emitter, returning its
// result.
func runProgram(t *testing.T, src, funcName string, args ...any) any {
	t.Helper()
	p, err := parser.New(src, "test.ss")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	table := p.Types()
	if err := semantic.New(table).Annotate(prog); err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	emitter := newInterpEmitter()
	if err := New(table, emitter).Lower(prog); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	result, err := emitter.Run(funcName, args...)
	if err != nil {
		t.Fatalf("Run(%s): %v", funcName, err)
	}
	return result
}

func TestLowerArithmeticPrecedence(t *testing.T) {
	got := runProgram(t, "def main() : i64 {\nreturn 2 + 3 * 4\n}\n", "main")
	if got != int64(14) {
		t.Fatalf("main() = %v, want 14", got)
	}
}

func TestLowerFunctionCall(t *testing.T) {
	src := "def add(a: i64, b: i64) : i64 {\nreturn a + b\n}\ndef main() : i64 {\nreturn add(7, 35)\n}\n"
	got := runProgram(t, src, "main")
	if got != int64(42) {
		t.Fatalf("main() = %v, want 42", got)
	}
}

func TestLowerArraySum(t *testing.T) {
	src := "def main() : i64 {\nx: [i64:4] = [10, 20, 15, 5]\ni: i64 = 0\nsum: i64 = 0\nwhile i < 4 {\nsum = sum + x[i]\ni = i + 1\n}\nreturn sum\n}\n"
	got := runProgram(t, src, "main")
	if got != int64(50) {
		t.Fatalf("main() = %v, want 50", got)
	}
}

func TestLowerStructSumOfSquares(t *testing.T) {
	src := "struct P {\nx: i64,\ny: i64\n}\ndef main() : i64 {\np: P = P()\np.x = 3\np.y = 4\nreturn p.x * p.x + p.y * p.y\n}\n"
	got := runProgram(t, src, "main")
	if got != int64(25) {
		t.Fatalf("main() = %v, want 25", got)
	}
}

func TestLowerWhileLoopSum(t *testing.T) {
	src := "def main() : i64 {\ni: i64 = 1\nsum: i64 = 0\nwhile i <= 4 {\nsum = sum + i\ni = i + 1\n}\nreturn sum\n}\n"
	got := runProgram(t, src, "main")
	if got != int64(10) {
		t.Fatalf("main() = %v, want 10", got)
	}
}

func TestLowerConditionalAbs(t *testing.T) {
	src := "def abs(n: i64) : i64 {\nif n < 0 {\nreturn -n\n} else {\nreturn n\n}\n}\ndef main() : i64 {\nreturn abs(-7)\n}\n"
	got := runProgram(t, src, "main")
	if got != int64(7) {
		t.Fatalf("main() = %v, want 7", got)
	}
}

func TestLowerCastIntToFloat(t *testing.T) {
	src := "def main() : f64 {\nreturn 3 as f64\n}\n"
	got := runProgram(t, src, "main")
	if got != float64(3) {
		t.Fatalf("main() = %v, want 3.0", got)
	}
}

func TestLowerPointerDereference(t *testing.T) {
	src := "def main() : i64 {\nx: i64 = 41\np: &i64 = &x\nreturn *p + 1\n}\n"
	got := runProgram(t, src, "main")
	if got != int64(42) {
		t.Fatalf("main() = %v, want 42", got)
	}
}
