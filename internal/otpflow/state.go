package otpflow

import (
	"errors"
	"fmt"
)

// State is a step of the verification wizard.
type State int

const (
	StateCollectingIdentifier State = iota
	StateAwaitingCode
	StateCompleting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateCollectingIdentifier:
		return "COLLECTING_IDENTIFIER"
	case StateAwaitingCode:
		return "AWAITING_CODE"
	case StateCompleting:
		return "COMPLETING"
	case StateDone:
		return "DONE"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrInvalidTransition rejects an operation the current state does not allow.
	ErrInvalidTransition = errors.New("otpflow: operation not allowed in current state")
	// ErrResendUnavailable rejects a resend before the countdown has elapsed.
	ErrResendUnavailable = errors.New("otpflow: resend not available yet")
	// ErrFlowDone rejects every operation once the flow has completed.
	ErrFlowDone = errors.New("otpflow: flow already completed")
	// ErrNoPendingRegistration means the signup form was not found in the credential store.
	ErrNoPendingRegistration = errors.New("otpflow: no pending registration")
	// ErrNoPendingFlow means there is no persisted flow to resume.
	ErrNoPendingFlow = errors.New("otpflow: no flow to resume")
)

// stageCompleting marks a signup whose code was accepted but whose account is not created yet.
const stageCompleting = "completing"

// Action is the recovery affordance offered with a failure.
type Action string

const (
	ActionNone   Action = "none"
	ActionResend Action = "resend"
	ActionRetry  Action = "retry"
	ActionLogin  Action = "login"
)

// FlowError wraps a failed step with the action the user should be offered.
type FlowError struct {
	Err    error
	Action Action
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%v (action: %s)", e.Err, e.Action)
}

func (e *FlowError) Unwrap() error { return e.Err }

// ActionOf returns the offered action for err.
func ActionOf(err error) Action {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Action
	}
	return ActionNone
}
