package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mj1618/desktop-replay/internal/model"
)

// Stage names a step of the resolution pipeline.
type Stage string

const (
	StageInput      Stage = "input"
	StageApp        Stage = "app"
	StageIdentity   Stage = "identity"
	StageProjection Stage = "projection"
	StagePredict    Stage = "predict"
	StagePreflight  Stage = "preflight"
	StageRefine     Stage = "refine"
	StageSearch     Stage = "search"
	StageHover      Stage = "hover"
	StageExecute    Stage = "execute"
	StageBypass     Stage = "bypass"
	StageEscalation Stage = "escalation"
)

var (
	// ErrNoElement means no live element was found after every phase.
	ErrNoElement = errors.New("no element found")

	// ErrIdentityMismatch means an element was found but does not match the recording.
	ErrIdentityMismatch = errors.New("identity mismatch")

	// ErrAppNotFound means neither the recorded application nor a fallback could be resolved.
	ErrAppNotFound = errors.New("application not found")

	// ErrNoAnchor means neither a recorded nor a live geometry anchor exists.
	ErrNoAnchor = errors.New("no geometry anchor")

	// ErrExecution means every execution strategy failed.
	ErrExecution = errors.New("execution failed")

	// ErrSafetyGate means safe-click mode blocked the action.
	ErrSafetyGate = errors.New("blocked by safety gate")

	// ErrEscalationRequired is returned once all attempts are exhausted.
	ErrEscalationRequired = errors.New("escalation required")

	// ErrInvalidStep means the recorded step cannot be replayed as given.
	ErrInvalidStep = errors.New("invalid recorded step")
)

// Error describes a pipeline failure: where it happened, what kind it is and
// the match state at that moment.
type Error struct {
	// Stage is the pipeline step that failed.
	Stage Stage

	// Code is one of the sentinel errors above.
	Code error

	// Message is a short human explanation.
	Message string

	// Mismatches is the comparison state when the failure was raised.
	Mismatches model.MismatchSet

	// Score is the best match score seen, or 0.
	Score float64

	// Cause is the underlying error if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Stage))
	b.WriteString(": ")
	if e.Code != nil {
		b.WriteString(e.Code.Error())
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Mismatches) > 0 {
		fmt.Fprintf(&b, " [mismatches: %s]", e.Mismatches)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both the sentinel code and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Code != nil {
		errs = append(errs, e.Code)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func stageErr(stage Stage, code error, msg string) *Error {
	return &Error{Stage: stage, Code: code, Message: msg}
}

// StageOf returns the stage of the first *Error in err's chain, or "".
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}
