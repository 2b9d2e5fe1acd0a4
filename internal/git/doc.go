// Package git performs the source-control operations of a run: cloning the
// source repository at a branch, preparing the distribution working tree, and
// staging, committing, tagging and pushing harvested artifacts.
//
// Every network operation receives the run's auth.Identity explicitly and
// honours the caller's context. Failures are returned as ClassifiedErrors in
// the checkout or publish category with op, url and reason context.
package git
