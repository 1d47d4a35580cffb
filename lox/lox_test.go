package lox

import (
	"strings"
	"testing"

	"nilan/vm"
)

func TestInterpretSuccess(t *testing.T) {
	if err := Interpret(`print 1 + 2;`, vm.New()); err != nil {
		t.Fatalf("Interpret() returned error: %v", err)
	}
}

func TestInterpretCompileError(t *testing.T) {
	err := Interpret(`print 1 +;`, vm.New())
	if err == nil {
		t.Fatal("Interpret() returned nil error, want a compile error")
	}
	if !IsCompileError(err) {
		t.Errorf("IsCompileError() = false for %v, want true", err)
	}
	if ExitCode(err) != 65 {
		t.Errorf("ExitCode() = %d, want 65", ExitCode(err))
	}
}

func TestInterpretRuntimeError(t *testing.T) {
	err := Interpret(`print x;`, vm.New())
	if err == nil {
		t.Fatal("Interpret() returned nil error, want a runtime error")
	}
	if !IsRuntimeError(err) {
		t.Errorf("IsRuntimeError() = false for %v, want true", err)
	}
	if ExitCode(err) != 70 {
		t.Errorf("ExitCode() = %d, want 70", ExitCode(err))
	}
	if want := "undefined global variable: x"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %v, want it to contain %q", err, want)
	}
}

// TestInterpretNegateTypeMismatchMessage is spec.md §8 scenario 5:
// `print -true;` must produce stderr containing "Operand must be a
// number" and exit 70.
func TestInterpretNegateTypeMismatchMessage(t *testing.T) {
	err := Interpret(`print -true;`, vm.New())
	if err == nil {
		t.Fatal("Interpret() returned nil error, want a runtime error")
	}
	if ExitCode(err) != 70 {
		t.Errorf("ExitCode() = %d, want 70", ExitCode(err))
	}
	if want := "Operand must be a number"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %v, want it to contain %q", err, want)
	}
}

// TestInterpretSelfInitializerMessage is spec.md §8 scenario 7:
// `var a = a;` must produce stderr containing
// "Cannot use `a` in its own initializer" and exit 65.
func TestInterpretSelfInitializerMessage(t *testing.T) {
	err := Interpret(`var a = a;`, vm.New())
	if err == nil {
		t.Fatal("Interpret() returned nil error, want a compile error")
	}
	if ExitCode(err) != 65 {
		t.Errorf("ExitCode() = %d, want 65", ExitCode(err))
	}
	if want := "Cannot use `a` in its own initializer"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %v, want it to contain %q", err, want)
	}
}

func TestInterpretGlobalsPersistAcrossCalls(t *testing.T) {
	machine := vm.New()
	if err := Interpret(`var x = 10;`, machine); err != nil {
		t.Fatalf("first Interpret() returned error: %v", err)
	}
	if err := Interpret(`print x;`, machine); err != nil {
		t.Fatalf("second Interpret() returned error: %v", err)
	}
}
