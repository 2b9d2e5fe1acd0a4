// Package build runs the source tree's build entry point and reports pass/fail.
//
// Output is captured rather than streamed. Only the exit status decides the
// result; stdout and stderr are kept for diagnostics.
package build
