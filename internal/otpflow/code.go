package otpflow

import (
	"strings"

	"github.com/tayyabfareed009/newswatch/internal/domain"
)

// CodeInput models the six single-digit boxes of the code screen.
type CodeInput struct {
	digits [domain.OTPCodeLength]string
	focus  int
}

// Set writes text into slot. Non-digits are dropped and only the last digit typed is kept,
// except that a full pasted code fills every slot. Empty input clears the slot. It reports
// whether all slots are filled.
func (in *CodeInput) Set(slot int, text string) bool {
	if slot < 0 || slot >= len(in.digits) {
		return in.Complete()
	}
	digits := onlyDigits(text)
	switch {
	case digits == "":
		in.digits[slot] = ""
		in.focus = slot
		return false
	case len(digits) == len(in.digits):
		for i := range in.digits {
			in.digits[i] = digits[i : i+1]
		}
		in.focus = len(in.digits) - 1
		return true
	}
	in.digits[slot] = digits[len(digits)-1:]
	in.focus = min(slot+1, len(in.digits)-1)
	return in.Complete()
}

// Backspace clears slot, or moves focus back when the slot is already empty.
func (in *CodeInput) Backspace(slot int) {
	if slot < 0 || slot >= len(in.digits) {
		return
	}
	if in.digits[slot] != "" {
		in.digits[slot] = ""
		in.focus = slot
		return
	}
	if slot > 0 {
		in.focus = slot - 1
	}
}

// Clear empties every slot and focuses the first one.
func (in *CodeInput) Clear() {
	in.digits = [domain.OTPCodeLength]string{}
	in.focus = 0
}

// Complete reports whether every slot holds a digit.
func (in *CodeInput) Complete() bool {
	for _, d := range in.digits {
		if d == "" {
			return false
		}
	}
	return true
}

// Code joins the digits.
func (in *CodeInput) Code() string {
	return strings.Join(in.digits[:], "")
}

// Digits returns a copy of the slots.
func (in *CodeInput) Digits() [domain.OTPCodeLength]string {
	return in.digits
}

// Focus is the slot that receives the next keystroke.
func (in *CodeInput) Focus() int {
	return in.focus
}

func onlyDigits(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
