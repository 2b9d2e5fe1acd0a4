// Package harvest discovers build artifacts in the source tree and moves them
// into the distribution tree.
package harvest
