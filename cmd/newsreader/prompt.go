package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tayyabfareed009/newswatch/internal/domain"
	"github.com/tayyabfareed009/newswatch/internal/otpflow"
)

// errAbandoned ends a command after the user backed out of the code screen.
var errAbandoned = errors.New("verification abandoned")

// terminal reads answers line by line and serializes output with the countdown goroutine.
type terminal struct {
	in *bufio.Scanner

	mu  sync.Mutex
	out io.Writer
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	return &terminal{in: bufio.NewScanner(in), out: out}
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// ask prints label and returns the trimmed answer. io.EOF means the input is closed.
func (t *terminal) ask(label string) (string, error) {
	t.printf("%s: ", label)
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(t.in.Text()), nil
}

// value returns preset when set, otherwise asks for it.
func (t *terminal) value(preset, label string) (string, error) {
	if preset != "" {
		return preset, nil
	}
	return t.ask(label)
}

func (t *terminal) confirm(label string) bool {
	answer, err := t.ask(label + " [Y/n]")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "", "y", "yes":
		return true
	}
	return false
}

// onTick announces when resending becomes available.
func (t *terminal) onTick(remaining int) {
	if remaining == 0 {
		t.printf("\nYou can request a new code now (type r).\n")
	}
}

func (t *terminal) renderCode(v otpflow.View) {
	slots := make([]string, len(v.Digits))
	for i, d := range v.Digits {
		if d == "" {
			d = "_"
		}
		slots[i] = d
	}
	status := "resend in " + v.Countdown
	if v.CanResend {
		status = "type r to resend"
	}
	t.printf("Code sent to %s  [%s]  %s\n", v.Email, strings.Join(slots, " "), status)
	if v.DevCode != "" {
		t.printf("(development code: %s)\n", v.DevCode)
	}
}

// enterCode runs the code screen until the controller leaves AWAITING_CODE. Digits may be
// typed one line at a time or pasted as a whole; "-" deletes, "r" resends, "b" goes back.
func enterCode(ctx context.Context, t *terminal, ctrl *otpflow.Controller) error {
	for ctrl.State() == otpflow.StateAwaitingCode {
		view := ctrl.Snapshot()
		t.renderCode(view)

		line, err := t.ask("code")
		if err != nil {
			ctrl.Close()
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("input closed; run verify to resume")
			}
			return err
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "r", "resend":
			err = ctrl.Resend(ctx)
		case "b", "back":
			if err := ctrl.Abandon(ctx); err != nil {
				return err
			}
			return errAbandoned
		case "-":
			err = ctrl.Backspace(view.Focus)
		default:
			err = ctrl.EnterDigit(ctx, view.Focus, line)
		}
		if err == nil {
			continue
		}
		if ctrl.State() != otpflow.StateAwaitingCode {
			return err
		}
		t.printf("%s\n", describe(err))
	}
	return nil
}

// describe turns a flow failure into a message plus the offered next step.
func describe(err error) string {
	switch {
	case errors.Is(err, otpflow.ErrResendUnavailable):
		return "Please wait for the countdown before requesting a new code."
	case errors.Is(err, otpflow.ErrFlowDone):
		return "This verification is already complete."
	case errors.Is(err, otpflow.ErrNoPendingFlow):
		return "There is no verification in progress."
	case errors.Is(err, otpflow.ErrNoPendingRegistration):
		return "Your signup details were not found. Please start the signup again."
	}

	msg := domain.UserMessage(err)
	switch otpflow.ActionOf(err) {
	case otpflow.ActionResend:
		msg += " Type the code again or r to request a new one."
	case otpflow.ActionRetry:
		if !domain.IsKind(err, domain.KindNetwork) {
			msg += " Please try again."
		}
	case otpflow.ActionLogin:
		msg += " Sign in with login instead."
	}
	return msg
}
