package compiler

import (
	"fmt"
	"strings"
	"testing"

	"nilan/chunk"
	"nilan/gc"
)

func withGC(t *testing.T, fn func()) {
	t.Helper()
	active := gc.Acquire()
	defer active.Release()
	fn()
}

func TestCompileArithmeticExpression(t *testing.T) {
	withGC(t, func() {
		c, err := Compile(`1 + 2 * 3;`)
		if err != nil {
			t.Fatalf("Compile() returned error: %v", err)
		}

		wantOps := []chunk.OpCode{chunk.Constant, chunk.Constant, chunk.Constant, chunk.Multiply, chunk.Add, chunk.Pop, chunk.Return}
		assertOps(t, c, wantOps)
	})
}

func TestCompilePrintStatement(t *testing.T) {
	withGC(t, func() {
		c, err := Compile(`print "hi";`)
		if err != nil {
			t.Fatalf("Compile() returned error: %v", err)
		}
		assertOps(t, c, []chunk.OpCode{chunk.Constant, chunk.Print, chunk.Return})
	})
}

func TestCompileGlobalVariable(t *testing.T) {
	withGC(t, func() {
		c, err := Compile(`var x = 1; x = 2; print x;`)
		if err != nil {
			t.Fatalf("Compile() returned error: %v", err)
		}
		assertOps(t, c, []chunk.OpCode{
			chunk.Constant, chunk.DefineGlobal,
			chunk.Constant, chunk.SetGlobal, chunk.Pop,
			chunk.GetGlobal, chunk.Print,
			chunk.Return,
		})
	})
}

func TestCompileLocalScope(t *testing.T) {
	withGC(t, func() {
		c, err := Compile(`{ var x = 1; print x; }`)
		if err != nil {
			t.Fatalf("Compile() returned error: %v", err)
		}
		assertOps(t, c, []chunk.OpCode{
			chunk.Constant,
			chunk.GetLocal, chunk.Print,
			chunk.Pop,
			chunk.Return,
		})
	})
}

func TestCompileComparisonLowering(t *testing.T) {
	withGC(t, func() {
		c, err := Compile(`1 <= 2;`)
		if err != nil {
			t.Fatalf("Compile() returned error: %v", err)
		}
		assertOps(t, c, []chunk.OpCode{chunk.Constant, chunk.Constant, chunk.Greater, chunk.Not, chunk.Pop, chunk.Return})
	})
}

func TestCompileMissingSemicolonReportsError(t *testing.T) {
	withGC(t, func() {
		_, err := Compile(`print 1`)
		if err == nil {
			t.Fatal("Compile() returned nil error, want a syntax error")
		}
		if !strings.Contains(err.Error(), "expect ';'") {
			t.Errorf("error = %v, want it to mention a missing ';'", err)
		}
	})
}

func TestCompileInvalidAssignmentTargetReportsError(t *testing.T) {
	withGC(t, func() {
		_, err := Compile(`1 + 2 = 3;`)
		if err == nil {
			t.Fatal("Compile() returned nil error, want an invalid assignment target error")
		}
		if !strings.Contains(err.Error(), "invalid assignment target") {
			t.Errorf("error = %v, want it to mention an invalid assignment target", err)
		}
	})
}

func TestCompileSelfReferentialLocalInitializerReportsError(t *testing.T) {
	withGC(t, func() {
		_, err := Compile(`{ var a = a; }`)
		if err == nil {
			t.Fatal("Compile() returned nil error, want a self-reference error")
		}
		if !strings.Contains(err.Error(), "Cannot use `a` in its own initializer") {
			t.Errorf("error = %v, want it to contain %q", err, "Cannot use `a` in its own initializer")
		}
	})
}

// TestCompileSelfReferentialGlobalInitializerReportsError is spec.md
// §8's boundary behavior and E2E scenario 7: a global's own
// initializer referencing itself is a compile error, not merely a
// runtime undefined-variable lookup.
func TestCompileSelfReferentialGlobalInitializerReportsError(t *testing.T) {
	withGC(t, func() {
		_, err := Compile(`var a = a;`)
		if err == nil {
			t.Fatal("Compile() returned nil error, want a self-reference error")
		}
		if !strings.Contains(err.Error(), "Cannot use `a` in its own initializer") {
			t.Errorf("error = %v, want it to contain %q", err, "Cannot use `a` in its own initializer")
		}
	})
}

func TestCompileTooManyConstantsReportsError(t *testing.T) {
	withGC(t, func() {
		var src strings.Builder
		for i := 0; i < 257; i++ {
			src.WriteString(fmt.Sprintf("var v%d = %d;\n", i, i))
		}

		_, err := Compile(src.String())
		if err == nil {
			t.Fatal("Compile() returned nil error, want a too-many-constants error")
		}
		if !strings.Contains(err.Error(), "Too many constants") {
			t.Errorf("error = %v, want it to contain %q", err, "Too many constants")
		}
	})
}

func TestCompileAccumulatesMultipleErrors(t *testing.T) {
	withGC(t, func() {
		_, err := Compile(`print 1 print 2 print 3;`)
		if err == nil {
			t.Fatal("Compile() returned nil error, want at least one syntax error")
		}
		if count := strings.Count(err.Error(), "[line"); count < 2 {
			t.Errorf("error mentions %d lines, want at least 2 accumulated diagnostics: %v", count, err)
		}
	})
}

// assertOps walks the chunk from offset 0, comparing each decoded
// opcode (skipping operand bytes) against want.
func assertOps(t *testing.T, c *chunk.Chunk, want []chunk.OpCode) {
	t.Helper()
	var got []chunk.OpCode
	offset := 0
	for {
		view, ok := c.Get(offset)
		if !ok {
			break
		}
		op := view.AsOpcode()
		got = append(got, op)
		offset++
		if op.HasOperand() {
			offset++
		}
	}

	if len(got) != len(want) {
		t.Fatalf("opcodes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("opcodes = %v, want %v", got, want)
		}
	}
}
