package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tayyabfareed009/newswatch/internal/domain"
	"github.com/tayyabfareed009/newswatch/internal/gateway"
)

type recorded struct {
	path string
	body map[string]any
	auth string
}

func newTestServer(t *testing.T, status int, response any) (*gateway.HTTPClient, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{path: r.URL.Path, auth: r.Header.Get("Authorization")}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		calls = append(calls, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		switch v := response.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		default:
			_ = json.NewEncoder(w).Encode(v)
		}
	}))
	t.Cleanup(srv.Close)
	return gateway.NewHTTPClient(srv.URL+"/", srv.Client(), zap.NewNop()), &calls
}

func TestSendCodeRoutesByPurpose(t *testing.T) {
	client, calls := newTestServer(t, http.StatusOK, gateway.Envelope{Success: true, DevOTP: "123456"})
	ctx := context.Background()

	res, err := client.SendCode(ctx, "user@test.com", domain.PurposeSignup)
	require.NoError(t, err)
	require.Equal(t, "123456", res.DevCode)

	_, err = client.SendCode(ctx, "user@test.com", domain.PurposeResetPassword)
	require.NoError(t, err)

	require.Len(t, *calls, 2)
	require.Equal(t, gateway.PathResendOTP, (*calls)[0].path)
	require.Equal(t, "signup", (*calls)[0].body["purpose"])
	require.Equal(t, gateway.PathForgotPassword, (*calls)[1].path)
	require.Equal(t, "user@test.com", (*calls)[1].body["email"])
}

func TestVerifyCodeRequiresFinalization(t *testing.T) {
	client, calls := newTestServer(t, http.StatusOK, gateway.Envelope{Success: true, RequiresRegistration: true})

	res, err := client.VerifyCode(context.Background(), "user@test.com", "123456", domain.PurposeSignup)
	require.NoError(t, err)
	require.True(t, res.RequiresFinalization)
	require.False(t, res.Session.Valid())
	require.Equal(t, "123456", (*calls)[0].body["otp"])
}

func TestFinalizeReturnsSession(t *testing.T) {
	client, calls := newTestServer(t, http.StatusCreated, gateway.Envelope{Success: true, Token: "abc", User: &domain.User{Name: "A"}})

	reg := domain.PendingRegistration{Name: "A", Email: "user@test.com", Password: "secret1", Role: "reader"}
	session, err := client.Finalize(context.Background(), reg)
	require.NoError(t, err)
	require.Equal(t, "abc", session.Token)
	require.Equal(t, "A", session.User.Name)
	require.Equal(t, gateway.PathRegister, (*calls)[0].path)
	require.Equal(t, "secret1", (*calls)[0].body["password"])
}

func TestLoginMissingTokenIsMalformed(t *testing.T) {
	client, _ := newTestServer(t, http.StatusOK, gateway.Envelope{Success: true})

	_, err := client.Login(context.Background(), "user@test.com", "secret1")
	require.Error(t, err)
	require.True(t, domain.IsKind(err, domain.KindUnknown))
}

func TestProfileSendsBearer(t *testing.T) {
	client, calls := newTestServer(t, http.StatusOK, gateway.Envelope{Success: true, User: &domain.User{ID: 3, Name: "A"}})

	user, err := client.Profile(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, int64(3), user.ID)
	require.Equal(t, "Bearer abc", (*calls)[0].auth)
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   any
		kind   domain.ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, gateway.Envelope{Message: "Invalid email or password", Error: gateway.CodeInvalidCredentials}, domain.KindAuth},
		{"conflict", http.StatusConflict, gateway.Envelope{Message: "Email already registered"}, domain.KindConflict},
		{"conflict by message", http.StatusBadRequest, gateway.Envelope{Message: "User already exists"}, domain.KindConflict},
		{"expired code", http.StatusBadRequest, gateway.Envelope{Message: "OTP expired", Error: gateway.CodeCodeExpired}, domain.KindInvalidCode},
		{"invalid code by message", http.StatusBadRequest, gateway.Envelope{Message: "Invalid OTP"}, domain.KindInvalidCode},
		{"validation", http.StatusBadRequest, gateway.Envelope{Message: "Email is required"}, domain.KindValidation},
		{"server", http.StatusBadGateway, "<html>bad gateway</html>", domain.KindServer},
		{"rate limited", http.StatusTooManyRequests, gateway.Envelope{Error: gateway.CodeRateLimited}, domain.KindServer},
		{"success false", http.StatusOK, gateway.Envelope{Success: false, Message: "Nope"}, domain.KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestServer(t, tc.status, tc.body)
			_, err := client.Login(context.Background(), "user@test.com", "secret1")
			require.Error(t, err)
			require.Equal(t, tc.kind, domain.KindOf(err))
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := gateway.NewHTTPClient(url, nil, zap.NewNop())
	_, err := client.SendCode(context.Background(), "user@test.com", domain.PurposeSignup)
	require.Error(t, err)
	require.True(t, domain.IsKind(err, domain.KindNetwork))
}

func TestMalformedSuccessBody(t *testing.T) {
	client, _ := newTestServer(t, http.StatusOK, "not json")
	_, err := client.SendCode(context.Background(), "user@test.com", domain.PurposeSignup)
	require.Error(t, err)
	require.True(t, domain.IsKind(err, domain.KindUnknown))
}
