// Package verification drives the reviewer state machine over a submitted
// audit: approve, reject with mandatory corrective action, and reset. The
// package computes transitions only; it performs no authorization lookups,
// no persistence and no logging. The caller supplies the authorization
// decision and applies the returned patch as one atomic update.
package verification

import (
	"errors"
	"strings"
	"time"

	"complyflow/internal/models"
)

var (
	// ErrPermissionDenied is returned when a transition is attempted
	// without verify capability.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when the audit submission id does not
	// resolve.
	ErrNotFound = errors.New("audit submission not found")

	// ErrConflict is returned when a transition loses the optimistic-lock
	// race against a concurrent reviewer.
	ErrConflict = errors.New("audit submission was modified concurrently")
)

// ValidationError is a recoverable input problem, surfaced to the reviewer
// for correction.
type ValidationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Reason
}

// Patch is the verification update produced by a transition. It is applied
// as a single atomic write keyed by the audit submission id; nil pointer
// fields are written as NULL, clearing the column.
type Patch struct {
	Status           models.VerificationStatus
	VerifiedBy       *uint
	VerifiedAt       *time.Time
	CorrectiveAction *string
}

// Approve transitions an audit to Accepted, recording the verifier and
// clearing any corrective action. Approving an already accepted audit is a
// no-op re-assertion, not an error; approving a rejected audit overturns
// the rejection.
func Approve(current models.VerificationStatus, verifierID uint, isAuthorized bool, now time.Time) (Patch, error) {
	if !isAuthorized {
		return Patch{}, ErrPermissionDenied
	}
	_ = current // every state may be (re-)approved
	return Patch{
		Status:     models.VerificationAccepted,
		VerifiedBy: &verifierID,
		VerifiedAt: &now,
	}, nil
}

// Reject transitions an audit to Rejected. The corrective action text is
// mandatory; rejecting with empty or whitespace-only text fails with a
// ValidationError and performs no mutation. Rejecting an already rejected
// audit re-asserts it with the new corrective action.
func Reject(current models.VerificationStatus, verifierID uint, correctiveAction string, isAuthorized bool, now time.Time) (Patch, error) {
	if !isAuthorized {
		return Patch{}, ErrPermissionDenied
	}
	correctiveAction = strings.TrimSpace(correctiveAction)
	if correctiveAction == "" {
		return Patch{}, &ValidationError{Reason: "corrective action is required when rejecting an audit"}
	}
	_ = current
	return Patch{
		Status:           models.VerificationRejected,
		VerifiedBy:       &verifierID,
		VerifiedAt:       &now,
		CorrectiveAction: &correctiveAction,
	}, nil
}

// Reset returns an audit to the unreviewed state from any prior state,
// clearing verifier, timestamp and corrective action.
func Reset(current models.VerificationStatus, isAuthorized bool) (Patch, error) {
	if !isAuthorized {
		return Patch{}, ErrPermissionDenied
	}
	_ = current
	return Patch{Status: models.VerificationUnreviewed}, nil
}
