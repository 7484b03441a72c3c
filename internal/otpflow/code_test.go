package otpflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeInputDigitByDigit(t *testing.T) {
	var in CodeInput
	for i, d := range []string{"1", "2", "3", "4", "5"} {
		require.False(t, in.Set(i, d))
		require.Equal(t, i+1, in.Focus())
	}
	require.True(t, in.Set(5, "6"))
	require.Equal(t, "123456", in.Code())
	require.Equal(t, 5, in.Focus())
}

func TestCodeInputKeepsLastDigitAndDropsNonDigits(t *testing.T) {
	var in CodeInput
	require.False(t, in.Set(0, "a"))
	require.Equal(t, "", in.Digits()[0])

	in.Set(0, "1")
	in.Set(0, "17")
	require.Equal(t, "7", in.Digits()[0])
	require.Equal(t, 1, in.Focus())

	in.Set(1, " 4x")
	require.Equal(t, "4", in.Digits()[1])
}

func TestCodeInputPasteFillsEverySlot(t *testing.T) {
	var in CodeInput
	require.True(t, in.Set(3, "12-34-56"))
	require.Equal(t, "123456", in.Code())
}

func TestCodeInputBackspace(t *testing.T) {
	var in CodeInput
	in.Set(0, "1")
	in.Set(1, "2")

	in.Backspace(1)
	require.Equal(t, "", in.Digits()[1])
	require.Equal(t, 1, in.Focus())

	in.Backspace(1)
	require.Equal(t, 0, in.Focus())
	require.Equal(t, "1", in.Digits()[0])

	in.Backspace(0)
	in.Backspace(0)
	require.Equal(t, 0, in.Focus())
	require.Equal(t, "", in.Code())
}

func TestCodeInputClear(t *testing.T) {
	var in CodeInput
	in.Set(0, "123456")
	in.Clear()
	require.False(t, in.Complete())
	require.Equal(t, 0, in.Focus())
	require.Equal(t, [6]string{}, in.Digits())
}

func TestCodeInputOutOfRangeSlot(t *testing.T) {
	var in CodeInput
	require.False(t, in.Set(-1, "1"))
	require.False(t, in.Set(6, "1"))
	in.Backspace(9)
	require.Equal(t, "", in.Code())
}
