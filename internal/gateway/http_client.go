package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tayyabfareed009/newswatch/internal/domain"
)

const maxResponseBytes = 1 << 20

// HTTPClient is the default Gateway implementation talking JSON over HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	tracer     trace.Tracer
}

var _ Gateway = (*HTTPClient)(nil)

// NewHTTPClient constructs the default Gateway.
func NewHTTPClient(baseURL string, client *http.Client, logger *zap.Logger) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.L()
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     logger,
		tracer:     otel.Tracer("github.com/tayyabfareed009/newswatch/internal/gateway"),
	}
}

// SendCode issues a new code. Reset-password codes go through forgot-password.
func (c *HTTPClient) SendCode(ctx context.Context, email string, purpose domain.Purpose) (SendResult, error) {
	path := PathResendOTP
	body := map[string]string{"email": email, "purpose": purpose.String()}
	if purpose == domain.PurposeResetPassword {
		path = PathForgotPassword
		body = map[string]string{"email": email}
	}
	env, err := c.post(ctx, path, "", body)
	if err != nil {
		return SendResult{}, err
	}
	return SendResult{DevCode: env.DevOTP}, nil
}

// VerifyCode checks a code for email.
func (c *HTTPClient) VerifyCode(ctx context.Context, email, code string, purpose domain.Purpose) (VerifyResult, error) {
	env, err := c.post(ctx, PathVerifyOTP, "", map[string]string{
		"email":   email,
		"otp":     code,
		"purpose": purpose.String(),
	})
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{RequiresFinalization: env.RequiresRegistration, Session: env.session()}, nil
}

// Finalize creates the account from a verified registration.
func (c *HTTPClient) Finalize(ctx context.Context, reg domain.PendingRegistration) (domain.Session, error) {
	env, err := c.post(ctx, PathRegister, "", reg)
	if err != nil {
		return domain.Session{}, err
	}
	return requireSession(env)
}

// ResetPassword sets a new password using a verified reset code.
func (c *HTTPClient) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	_, err := c.post(ctx, PathResetPassword, "", map[string]string{
		"email":       email,
		"otp":         code,
		"newPassword": newPassword,
	})
	return err
}

// Login exchanges credentials for a session.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (domain.Session, error) {
	env, err := c.post(ctx, PathLogin, "", map[string]string{"email": email, "password": password})
	if err != nil {
		return domain.Session{}, err
	}
	return requireSession(env)
}

// Profile loads the current user for a bearer token.
func (c *HTTPClient) Profile(ctx context.Context, token string) (domain.User, error) {
	env, err := c.do(ctx, http.MethodGet, PathMe, token, nil)
	if err != nil {
		return domain.User{}, err
	}
	if env.User == nil {
		return domain.User{}, domain.NewError(domain.KindUnknown, "malformed_response", "Profile missing from response.", http.StatusOK)
	}
	return *env.User, nil
}

func requireSession(env Envelope) (domain.Session, error) {
	s := env.session()
	if !s.Valid() {
		return domain.Session{}, domain.NewError(domain.KindUnknown, "malformed_response", "Token missing from response.", http.StatusOK)
	}
	return s, nil
}

func (c *HTTPClient) post(ctx context.Context, path, token string, payload any) (Envelope, error) {
	return c.do(ctx, http.MethodPost, path, token, payload)
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, payload any) (Envelope, error) {
	ctx, span := c.tracer.Start(ctx, "gateway "+method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Envelope{}, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		c.logger.Debug("gateway request failed", zap.String("path", path), zap.Error(err))
		if errors.Is(err, context.Canceled) {
			return Envelope{}, err
		}
		return Envelope{}, &domain.Error{Kind: domain.KindNetwork, Code: "network_error", Message: "Network request failed.", Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.Debug("gateway request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(started)),
	)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		span.RecordError(err)
		return Envelope{}, &domain.Error{Kind: domain.KindNetwork, Code: "network_error", Message: "Network request failed.", Err: err}
	}

	var env Envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode >= 300 || (decodeErr == nil && !env.Success) {
		classified := Classify(resp.StatusCode, env)
		span.SetStatus(codes.Error, classified.Code)
		return Envelope{}, classified
	}
	if decodeErr != nil {
		span.RecordError(decodeErr)
		return Envelope{}, &domain.Error{Kind: domain.KindUnknown, Code: "malformed_response", Message: "Unexpected response from server.", Status: resp.StatusCode, Err: decodeErr}
	}
	return env, nil
}
