package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	ferrors "git.home.luguber.info/inful/artifactpub/internal/foundation/errors"
)

// Failure reasons recorded under the "reason" context key.
const (
	ReasonAuth         = "auth_rejected"
	ReasonNotFound     = "repository_not_found"
	ReasonBranch       = "branch_not_found"
	ReasonHeadMismatch = "head_mismatch"
	ReasonNotEmpty     = "target_not_empty"
	ReasonTagExists    = "tag_exists"
	ReasonRejected     = "push_rejected"
	ReasonCanceled     = "canceled"
	ReasonUnreachable  = "unreachable"
	ReasonLocal        = "local"
)

// reasonFor maps go-git and transport errors onto a failure reason.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod):
		return ReasonAuth
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return ReasonNotFound
	case errors.Is(err, git.ErrTagExists):
		return ReasonTagExists
	case errors.Is(err, git.ErrNonFastForwardUpdate):
		return ReasonRejected
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return ReasonBranch
	}

	var noMatch git.NoMatchingRefSpecError
	if errors.As(err, &noMatch) {
		return ReasonBranch
	}

	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "unable to authenticate"), strings.Contains(l, "permission denied"),
		strings.Contains(l, "authentication"), strings.Contains(l, "handshake failed"):
		return ReasonAuth
	case strings.Contains(l, "couldn't find remote ref"):
		return ReasonBranch
	case strings.Contains(l, "not found"), strings.Contains(l, "does not exist"):
		return ReasonNotFound
	case strings.Contains(l, "non-fast-forward"), strings.Contains(l, "rejected"), strings.Contains(l, "already exists"):
		return ReasonRejected
	case strings.Contains(l, "dial"), strings.Contains(l, "connection"), strings.Contains(l, "timeout"),
		strings.Contains(l, "no such host"):
		return ReasonUnreachable
	}
	return ReasonLocal
}

func checkoutFailure(op, url string, err error) error {
	return ferrors.CheckoutError(fmt.Sprintf("%s of %s failed", op, url)).
		WithCause(err).
		WithContext("op", op).
		WithContext("url", url).
		WithContext("reason", reasonFor(err)).
		Build()
}

func publishFailure(op, url string, err error) error {
	return ferrors.PublishError(fmt.Sprintf("%s of %s failed", op, url)).
		WithCause(err).
		WithContext("op", op).
		WithContext("url", url).
		WithContext("reason", reasonFor(err)).
		Build()
}

// Reason returns the failure reason recorded on a git error, or "".
func Reason(err error) string {
	ce, ok := ferrors.AsClassified(err)
	if !ok {
		return ""
	}
	reason, _ := ce.Context().GetString("reason")
	return reason
}
