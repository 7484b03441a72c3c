package validate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tayyabfareed009/newswatch/internal/domain"
	"github.com/tayyabfareed009/newswatch/internal/validate"
)

func TestEmail(t *testing.T) {
	require.NoError(t, validate.Email("user@test.com"))
	require.NoError(t, validate.Email("  User@Test.com "))

	for _, bad := range []string{"", "user", "user@", "Name <user@test.com>", "user@localhost"} {
		err := validate.Email(bad)
		require.Error(t, err, bad)
		require.True(t, domain.IsKind(err, domain.KindValidation), bad)
	}
}

func TestPasswordRules(t *testing.T) {
	require.Error(t, validate.Password(""))
	require.Error(t, validate.Password("12345"))
	require.NoError(t, validate.Password("123456"))

	require.NoError(t, validate.PasswordsMatch("secret1", "secret1"))
	require.Error(t, validate.PasswordsMatch("secret1", "secret2"))
}

func TestPhoneAndRole(t *testing.T) {
	require.NoError(t, validate.Phone(""))
	require.NoError(t, validate.Phone("+1 555-123-4567"))
	require.Error(t, validate.Phone("12345"))
	require.Error(t, validate.Phone("555-abc-1234"))
	require.Error(t, validate.Phone("1+5551234567"))

	require.NoError(t, validate.Role(""))
	require.NoError(t, validate.Role("Reporter"))
	require.Error(t, validate.Role("admin"))
}

func TestCode(t *testing.T) {
	require.NoError(t, validate.Code("123456"))
	require.Error(t, validate.Code("12345"))
	require.Error(t, validate.Code("12345a"))
}

func TestRegistration(t *testing.T) {
	ok := domain.PendingRegistration{Name: "A", Email: "user@test.com", Password: "secret1"}
	require.NoError(t, validate.Registration(ok))

	missingName := ok
	missingName.Name = " "
	err := validate.Registration(missingName)
	require.Error(t, err)
	require.Equal(t, "Name is required.", domain.UserMessage(err))
}
