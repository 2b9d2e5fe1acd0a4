// Package pipeline runs the checkout → build → harvest → publish sequence for
// one RunConfig and reduces it to an Outcome.
//
// Stages run strictly in order on the calling goroutine. The first failing
// stage aborts every later stage; cleanup, when enabled, always runs and
// never changes the outcome.
package pipeline
