package pipeline

import (
	"context"
	"fmt"
)

// Stage is a discrete unit of work in a publish run.
type Stage func(ctx context.Context, rs *RunState) error

// StageName is a strongly-typed identifier for a pipeline stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageAuthenticate        StageName = "authenticate"
	StageCheckout            StageName = "checkout"
	StageBuild               StageName = "build"
	StagePrepareDistribution StageName = "prepare_distribution"
	StageHarvest             StageName = "harvest"
	StagePublish             StageName = "publish"
	StageCleanup             StageName = "cleanup"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the failing stage and cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// NewFatalStageError creates a new fatal stage error.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

// NewCanceledStageError creates a stage error for a cancelled context.
func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// StagePlan is a fluent builder for ordered stage definitions.
type StagePlan struct{ Defs []StageDef }

// NewStagePlan creates an empty plan.
func NewStagePlan() *StagePlan { return &StagePlan{Defs: make([]StageDef, 0, 6)} }

// Add appends a stage unconditionally.
func (p *StagePlan) Add(name StageName, fn Stage) *StagePlan {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn})
	return p
}

// Build returns a copy of the stage definitions slice.
func (p *StagePlan) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}
