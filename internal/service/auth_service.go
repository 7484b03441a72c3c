package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tayyabfareed009/newswatch/internal/config"
	"github.com/tayyabfareed009/newswatch/internal/domain"
	"github.com/tayyabfareed009/newswatch/internal/jwt"
	pw "github.com/tayyabfareed009/newswatch/internal/password"
	"github.com/tayyabfareed009/newswatch/internal/repository"
	"github.com/tayyabfareed009/newswatch/internal/validate"
)

const userStatusActive = "active"

// AuthService implements the OTP signup, login and password reset flows of the auth API.
type AuthService struct {
	users      repository.UserRepository
	challenges repository.ChallengeRepository
	snowflake  *snowflake.Node
	jwt        *jwt.Generator
	cfg        config.Config
	logger     *zap.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewAuthService wires dependencies.
func NewAuthService(users repository.UserRepository, challenges repository.ChallengeRepository, node *snowflake.Node, generator *jwt.Generator, cfg config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		challenges: challenges,
		snowflake:  node,
		jwt:        generator,
		cfg:        cfg,
		logger:     logger,
		tracer:     otel.Tracer("github.com/tayyabfareed009/newswatch/internal/service"),
		now:        time.Now,
	}
}

// RequestOTP issues a code for purpose, replacing any earlier one.
func (s *AuthService) RequestOTP(ctx context.Context, email string, purpose domain.Purpose) (OTPIssue, error) {
	ctx, span := s.startSpan(ctx, "AuthService.RequestOTP")
	defer span.End()

	normalized, err := normalizeEmail(email)
	if err != nil {
		return OTPIssue{}, err
	}

	switch purpose {
	case domain.PurposeResetPassword:
		return s.ForgotPassword(ctx, normalized)
	case domain.PurposeSignup:
		if _, err := s.users.GetByEmail(ctx, normalized); err == nil {
			return OTPIssue{}, ErrAlreadyRegistered
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			span.RecordError(err)
			return OTPIssue{}, fmt.Errorf("check existing user: %w", err)
		}
	case domain.PurposeVerifyEmail:
		if _, err := s.users.GetByEmail(ctx, normalized); errors.Is(err, repository.ErrUserNotFound) {
			return OTPIssue{}, ErrUnknownAccount
		} else if err != nil {
			span.RecordError(err)
			return OTPIssue{}, fmt.Errorf("load user: %w", err)
		}
	}

	issue, err := s.issueChallenge(ctx, normalized, purpose)
	if err != nil {
		span.RecordError(err)
		return OTPIssue{}, err
	}
	return issue, nil
}

// ForgotPassword issues a reset code when the account exists. Unknown addresses succeed
// silently so the endpoint cannot be used to probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (OTPIssue, error) {
	ctx, span := s.startSpan(ctx, "AuthService.ForgotPassword")
	defer span.End()

	normalized, err := normalizeEmail(email)
	if err != nil {
		return OTPIssue{}, err
	}

	if _, err := s.users.GetByEmail(ctx, normalized); err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			span.RecordError(err)
			return OTPIssue{}, fmt.Errorf("load user: %w", err)
		}
		s.log().Warn("password reset requested for unknown user", zap.String("email", normalized))
		s.audit("password.forgot.unknown", "email", normalized)
		return OTPIssue{}, nil
	}

	issue, err := s.issueChallenge(ctx, normalized, domain.PurposeResetPassword)
	if err != nil {
		span.RecordError(err)
		return OTPIssue{}, err
	}
	return issue, nil
}

// VerifyOTP checks code. Signup codes for new addresses mark the address verified and ask
// the client to register; verify-email codes sign the user in; reset codes stay redeemable
// for ResetPassword.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string, purpose domain.Purpose) (VerifyOutcome, error) {
	ctx, span := s.startSpan(ctx, "AuthService.VerifyOTP")
	defer span.End()

	normalized, err := normalizeEmail(email)
	if err != nil {
		return VerifyOutcome{}, err
	}
	if err := validate.Code(code); err != nil {
		return VerifyOutcome{}, ErrInvalidOTP
	}

	if err := s.checkChallenge(ctx, normalized, purpose, code, purpose != domain.PurposeResetPassword); err != nil {
		span.RecordError(err)
		s.audit("otp.verify.failed", "email", normalized, "purpose", purpose.String())
		return VerifyOutcome{}, err
	}
	s.audit("otp.verify.success", "email", normalized, "purpose", purpose.String())

	if purpose == domain.PurposeResetPassword {
		return VerifyOutcome{}, nil
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	switch {
	case errors.Is(err, repository.ErrUserNotFound) && purpose == domain.PurposeSignup:
		if err := s.challenges.MarkVerified(ctx, normalized, domain.PurposeSignup, s.cfg.VerifiedSignupTTL); err != nil {
			span.RecordError(err)
			return VerifyOutcome{}, fmt.Errorf("mark verified: %w", err)
		}
		return VerifyOutcome{RequiresRegistration: true}, nil
	case errors.Is(err, repository.ErrUserNotFound):
		return VerifyOutcome{}, ErrUnknownAccount
	case err != nil:
		span.RecordError(err)
		return VerifyOutcome{}, fmt.Errorf("load user: %w", err)
	}

	if !user.EmailVerified {
		if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
			span.RecordError(err)
			return VerifyOutcome{}, fmt.Errorf("mark email verified: %w", err)
		}
		user.EmailVerified = true
	}
	result, err := s.issueSession(user)
	if err != nil {
		span.RecordError(err)
		return VerifyOutcome{}, err
	}
	return VerifyOutcome{Auth: &result}, nil
}

// Register creates the account for an address verified through a signup code.
func (s *AuthService) Register(ctx context.Context, reg domain.PendingRegistration) (AuthResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Register")
	defer span.End()

	reg = reg.Normalized()
	if err := validate.Registration(reg); err != nil {
		return AuthResult{}, invalidRequest(domain.UserMessage(err))
	}

	if _, err := s.users.GetByEmail(ctx, reg.Email); err == nil {
		return AuthResult{}, ErrAlreadyRegistered
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		span.RecordError(err)
		return AuthResult{}, fmt.Errorf("check existing user: %w", err)
	}

	verified, err := s.challenges.IsVerified(ctx, reg.Email, domain.PurposeSignup)
	if err != nil {
		span.RecordError(err)
		return AuthResult{}, fmt.Errorf("load verification: %w", err)
	}
	if !verified {
		return AuthResult{}, ErrEmailNotVerified
	}

	hashed, err := pw.Hash(reg.Password)
	if err != nil {
		span.RecordError(err)
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Create(ctx, domain.User{
		ID:            s.snowflake.Generate().Int64(),
		Name:          reg.Name,
		Email:         reg.Email,
		Phone:         reg.Phone,
		Role:          reg.Role,
		EmailVerified: true,
		PasswordHash:  hashed,
		Status:        userStatusActive,
	})
	if errors.Is(err, repository.ErrEmailTaken) {
		return AuthResult{}, ErrAlreadyRegistered
	}
	if err != nil {
		span.RecordError(err)
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	if err := s.challenges.ClearVerified(ctx, reg.Email, domain.PurposeSignup); err != nil {
		s.log().Warn("clear signup verification", zap.String("email", reg.Email), zap.Error(err))
	}

	result, err := s.issueSession(created)
	if err != nil {
		span.RecordError(err)
		return AuthResult{}, err
	}
	s.audit("register.success", "user_id", created.ID, "role", created.Role)
	return result, nil
}

// Login authenticates with email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	normalized, err := normalizeEmail(email)
	if err != nil {
		return AuthResult{}, err
	}
	if password == "" {
		return AuthResult{}, invalidRequest("Password is required.")
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			span.RecordError(err)
			return AuthResult{}, fmt.Errorf("load user: %w", err)
		}
		s.audit("login.failed", "email", normalized)
		return AuthResult{}, ErrInvalidCredentials
	}

	valid, err := pw.Verify(password, user.PasswordHash)
	if err != nil || !valid {
		span.RecordError(fmt.Errorf("invalid password"))
		s.audit("login.failed", "email", normalized)
		return AuthResult{}, ErrInvalidCredentials
	}

	result, err := s.issueSession(user)
	if err != nil {
		span.RecordError(err)
		return AuthResult{}, err
	}
	s.audit("login.success", "user_id", user.ID)
	return result, nil
}

// ResetPassword redeems a reset code and replaces the password hash.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	ctx, span := s.startSpan(ctx, "AuthService.ResetPassword")
	defer span.End()

	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if err := validate.Password(newPassword); err != nil {
		return invalidRequest(domain.UserMessage(err))
	}
	if err := validate.Code(code); err != nil {
		return ErrInvalidOTP
	}

	if err := s.checkChallenge(ctx, normalized, domain.PurposeResetPassword, code, true); err != nil {
		span.RecordError(err)
		return err
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUnknownAccount
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("load user: %w", err)
	}

	hashed, err := pw.Hash(newPassword)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		span.RecordError(err)
		return fmt.Errorf("update password: %w", err)
	}

	s.audit("password.reset.success", "user_id", user.ID)
	return nil
}

// Authenticate resolves a bearer token to a user id.
func (s *AuthService) Authenticate(token string) (int64, error) {
	userID, _, err := s.jwt.Validate(token)
	if err != nil {
		return 0, ErrUnauthorized
	}
	return userID, nil
}

// Me loads the profile of the signed-in user.
func (s *AuthService) Me(ctx context.Context, userID int64) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Me")
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return domain.User{}, ErrUnauthorized
	}
	if err != nil {
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueSession(user domain.User) (AuthResult, error) {
	token, err := s.jwt.Generate(user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session token: %w", err)
	}
	return AuthResult{Token: token, User: user}, nil
}

func normalizeEmail(email string) (string, error) {
	if err := validate.Email(email); err != nil {
		return "", invalidRequest(domain.UserMessage(err))
	}
	return domain.NormalizeEmail(email), nil
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *AuthService) audit(event string, attrs ...any) {
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", s.now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	s.log().Info("audit", fields...)
}

func (s *AuthService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}

// PurposeOf parses a wire purpose, mapping unknown values to an invalid_request error.
func PurposeOf(raw string) (domain.Purpose, error) {
	p, err := domain.ParsePurpose(raw)
	if err != nil {
		return "", invalidRequest(fmt.Sprintf("Unsupported purpose %q.", strings.TrimSpace(raw)))
	}
	return p, nil
}
