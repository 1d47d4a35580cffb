//go:build !trace

package debug

// TraceEnabled reports whether per-instruction VM tracing is compiled
// in. Build with -tags trace to flip this on; it is a compile-time
// switch rather than a flag so the tracing code costs nothing in a
// normal build.
const TraceEnabled = false
