package token

import (
	"testing"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name      string
		tokenType TokenType
		lexeme    string
		line      int
		want      Token
	}{
		{
			name:      "Create ASSIGN token",
			tokenType: ASSIGN,
			lexeme:    "=",
			line:      1,
			want:      Token{TokenType: ASSIGN, Lexeme: "=", Line: 1},
		},
		{
			name:      "Create IDENTIFIER token",
			tokenType: IDENTIFIER,
			lexeme:    "myVar",
			line:      3,
			want:      Token{TokenType: IDENTIFIER, Lexeme: "myVar", Line: 3},
		},
		{
			name:      "Create NUMBER token",
			tokenType: NUMBER,
			lexeme:    "42",
			line:      1,
			want:      Token{TokenType: NUMBER, Lexeme: "42", Line: 1},
		},
		{
			name:      "Create MULT token",
			tokenType: MULT,
			lexeme:    "*",
			line:      2,
			want:      Token{TokenType: MULT, Lexeme: "*", Line: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Make(tt.tokenType, tt.lexeme, tt.line)
			if got != tt.want {
				t.Errorf("Make() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeywordsMatchSpec(t *testing.T) {
	want := []string{
		"and", "class", "else", "false", "for", "fun", "if", "nil",
		"or", "print", "return", "super", "this", "true", "var", "while",
	}
	if len(Keywords) != len(want) {
		t.Fatalf("Keywords has %d entries, want %d", len(Keywords), len(want))
	}
	for _, w := range want {
		if _, ok := Keywords[w]; !ok {
			t.Errorf("Keywords missing %q", w)
		}
	}
}
