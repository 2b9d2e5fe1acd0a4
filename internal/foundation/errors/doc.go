// Package errors provides the classified error primitives used across artifactpub.
//
// Every pipeline failure is a ClassifiedError whose category names the stage
// taxonomy (auth, checkout, build, harvest, publish, cleanup) or a
// pre-pipeline concern (config, validation, internal). Errors are created with
// the fluent ErrorBuilder:
//
//	err := errors.CheckoutError("clone failed").
//		WithCause(cloneErr).
//		WithContext("url", repoURL).
//		Build()
//
// The CLIErrorAdapter turns a classified error into a printed diagnostic and
// a process exit code.
package errors
