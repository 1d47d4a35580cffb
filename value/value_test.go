package value

import (
	"math"
	"testing"
)

func TestFalsy(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil is falsy", Nil, true},
		{"false is falsy", Bool(false), true},
		{"true is truthy", Bool(true), false},
		{"zero is truthy", Number(0), false},
		{"empty string is truthy", String(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Falsy(); got != tt.want {
				t.Errorf("Falsy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil equals nil", Nil, Nil, true},
		{"equal numbers", Number(1), Number(1), true},
		{"unequal numbers", Number(1), Number(2), false},
		{"equal strings", String("x"), String("x"), true},
		{"different kinds never equal", Number(0), Bool(false), false},
		{"NaN is not equal to itself", Number(math.NaN()), Number(math.NaN()), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStringRendering(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Nil, "nil"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Number(3), "3"},
		{Number(3.5), "3.5"},
		{String("hi"), "hi"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
