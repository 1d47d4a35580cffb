// Package gc owns the string interner: the single place canonical
// copies of string values live so that two equal Lox strings compare
// equal by a plain Go string comparison with no rune-by-rune walk.
//
// This mirrors the original Rust implementation's GC type (its name is
// a joke: "just garbage", not a tracing collector) but drops its
// unsafe static and into_active_gc/Drop dance in favor of an ordinary
// package-level variable guarded by Acquire/Release.
package gc

import "github.com/josharian/intern"

// GC holds the set of strings interned during one interpretation.
// Go's garbage collector already reclaims the backing memory once the
// GC value itself is dropped, so unlike its Rust namesake this type
// only needs to dedupe, not to manage lifetimes.
type GC struct {
	strings map[string]string
}

// New returns an empty string table.
func New() *GC {
	return &GC{strings: make(map[string]string)}
}

// Store interns s, returning the canonical copy. Calling Store twice
// with equal strings returns the same backing string both times, so
// repeated identifiers and repeated string literals share storage
// instead of allocating once per occurrence.
func (g *GC) Store(s string) string {
	if canonical, ok := g.strings[s]; ok {
		return canonical
	}
	canonical := intern.String(s)
	g.strings[canonical] = canonical
	return canonical
}

// Count reports how many distinct strings have been interned, used by
// tests to assert on deduplication.
func (g *GC) Count() int {
	return len(g.strings)
}

// active is the process-wide installed GC, or nil when none is
// installed. A single global is only safe because one GC lives for the
// duration of one lox.Interpret call, and nothing in this repo calls
// Interpret concurrently from multiple goroutines.
var active *GC

// Active is the handle returned by Acquire. Its only purpose is to
// let the caller release the GC it acquired; it carries no data of
// its own.
type Active struct{}

// Acquire installs a fresh GC as the process-wide active one and
// returns a handle for releasing it. Acquire panics if a GC is already
// installed: interpretations must not nest.
func Acquire() *Active {
	if active != nil {
		panic("gc: tried to acquire, but a GC is already active")
	}
	active = New()
	return &Active{}
}

// Release uninstalls the active GC. Release panics if no GC is
// installed, which would indicate a double-release or a call to
// Store/Count outside of an Acquire/Release pair.
func (a *Active) Release() {
	if active == nil {
		panic("gc: tried to release, but no GC is active")
	}
	active = nil
}

// Store interns s in the active GC. It panics if no GC is installed.
func Store(s string) string {
	if active == nil {
		panic("gc: tried to store a string, but no GC is active")
	}
	return active.Store(s)
}

// Count reports the active GC's string count. It panics if no GC is
// installed.
func Count() int {
	if active == nil {
		panic("gc: tried to count strings, but no GC is active")
	}
	return active.Count()
}
