package otpflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tayyabfareed009/newswatch/internal/credstore"
	"github.com/tayyabfareed009/newswatch/internal/domain"
	"github.com/tayyabfareed009/newswatch/internal/gateway"
	"github.com/tayyabfareed009/newswatch/internal/session"
	"github.com/tayyabfareed009/newswatch/internal/validate"
)

// Options tune a Controller. Zero values select production defaults.
type Options struct {
	Countdown time.Duration
	NewTicker TickerFactory
	Now       func() time.Time
	Logger    *zap.Logger
	// OnTick is called from the countdown goroutine after every second.
	OnTick func(remaining int)
}

// View is a render-ready snapshot of the wizard.
type View struct {
	State     State
	Purpose   domain.Purpose
	Email     string
	Digits    [domain.OTPCodeLength]string
	Focus     int
	Remaining int
	Countdown string
	CanResend bool
	DevCode   string
}

// Controller drives one verification wizard: collect the e-mail, verify the code, then
// finish the purpose-specific step. Each screen instance owns its own Controller.
type Controller struct {
	gw       gateway.Gateway
	store    credstore.Store
	sessions *session.Manager
	purpose  domain.Purpose
	now      func() time.Time
	logger   *zap.Logger
	tracer   trace.Tracer

	countdown *Countdown

	mu           sync.Mutex
	state        State
	email        string
	code         CodeInput
	verifiedCode string
	devCode      string
}

// New creates a controller in COLLECTING_IDENTIFIER.
func New(gw gateway.Gateway, store credstore.Store, sessions *session.Manager, purpose domain.Purpose, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		gw:        gw,
		store:     store,
		sessions:  sessions,
		purpose:   purpose,
		now:       opts.Now,
		logger:    opts.Logger.With(zap.String("purpose", purpose.String())),
		tracer:    otel.Tracer("github.com/tayyabfareed009/newswatch/internal/otpflow"),
		countdown: NewCountdown(opts.Countdown, opts.NewTicker, opts.OnTick),
		state:     StateCollectingIdentifier,
	}
}

// BeginSignup validates and holds the signup form, then sends the first code.
func (c *Controller) BeginSignup(ctx context.Context, reg domain.PendingRegistration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateCollectingIdentifier); err != nil {
		return err
	}
	if c.purpose != domain.PurposeSignup {
		return ErrInvalidTransition
	}
	reg = reg.Normalized()
	if err := validate.Registration(reg); err != nil {
		return err
	}
	if err := credstore.SetJSON(ctx, c.store, credstore.KeyPendingSignup, reg); err != nil {
		return fmt.Errorf("hold pending registration: %w", err)
	}
	return c.sendLocked(ctx, reg.Email)
}

// SendCode requests the first code for email.
func (c *Controller) SendCode(ctx context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateCollectingIdentifier); err != nil {
		return err
	}
	if c.purpose == domain.PurposeSignup {
		var reg domain.PendingRegistration
		if err := credstore.GetJSON(ctx, c.store, credstore.KeyPendingSignup, &reg); err != nil {
			if errors.Is(err, credstore.ErrNotFound) {
				return ErrNoPendingRegistration
			}
			return fmt.Errorf("load pending registration: %w", err)
		}
	}
	return c.sendLocked(ctx, email)
}

// Resume re-enters a flow persisted by an earlier screen. The countdown continues from the
// time the last code was sent. A signup whose code was already accepted resumes in
// COMPLETING so account creation can be retried with RetryFinalize.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateCollectingIdentifier); err != nil {
		return err
	}
	email, err := c.store.Get(ctx, credstore.KeyPendingEmail)
	if errors.Is(err, credstore.ErrNotFound) {
		return ErrNoPendingFlow
	}
	if err != nil {
		return fmt.Errorf("load pending email: %w", err)
	}
	purpose, err := c.store.Get(ctx, credstore.KeyFlowPurpose)
	if err != nil && !errors.Is(err, credstore.ErrNotFound) {
		return fmt.Errorf("load flow purpose: %w", err)
	}
	if domain.Purpose(purpose) != c.purpose {
		return ErrNoPendingFlow
	}

	c.email = email
	c.code.Clear()

	if c.purpose == domain.PurposeSignup {
		stage, err := c.store.Get(ctx, credstore.KeyFlowStage)
		if err != nil && !errors.Is(err, credstore.ErrNotFound) {
			return fmt.Errorf("load flow stage: %w", err)
		}
		if stage == stageCompleting {
			c.countdown.Stop()
			c.state = StateCompleting
			c.logger.Debug("flow resumed after verification", zap.String("email", email))
			return nil
		}
	}

	c.state = StateAwaitingCode
	c.countdown.ResetTo(c.remainingLocked(ctx, c.countdown.total))
	c.logger.Debug("flow resumed", zap.String("email", email), zap.Int("remaining", c.countdown.Remaining()))
	return nil
}

// EnterDigit types text into slot. Filling the last empty slot verifies the code.
func (c *Controller) EnterDigit(ctx context.Context, slot int, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateAwaitingCode); err != nil {
		return err
	}
	if !c.code.Set(slot, text) {
		return nil
	}
	return c.verifyLocked(ctx)
}

// Backspace handles the delete key on slot.
func (c *Controller) Backspace(slot int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateAwaitingCode); err != nil {
		return err
	}
	c.code.Backspace(slot)
	return nil
}

// Resend requests a new code once the countdown has elapsed. The previous code is void.
func (c *Controller) Resend(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateAwaitingCode); err != nil {
		return err
	}
	if !c.countdown.CanResend() {
		return ErrResendUnavailable
	}
	return c.sendLocked(ctx, c.email)
}

// RetryFinalize repeats account creation after a failed finalization.
func (c *Controller) RetryFinalize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateCompleting); err != nil {
		return err
	}
	if c.purpose != domain.PurposeSignup {
		return ErrInvalidTransition
	}
	return c.finalizeLocked(ctx)
}

// CompleteReset sets the new password after the reset code was verified.
func (c *Controller) CompleteReset(ctx context.Context, newPassword, confirm string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateCompleting); err != nil {
		return err
	}
	if c.purpose != domain.PurposeResetPassword {
		return ErrInvalidTransition
	}
	if err := validate.Password(newPassword); err != nil {
		return err
	}
	if err := validate.PasswordsMatch(newPassword, confirm); err != nil {
		return err
	}

	ctx, span := c.startSpan(ctx, "otpflow.CompleteReset")
	defer span.End()

	if err := c.gw.ResetPassword(ctx, c.email, c.verifiedCode, newPassword); err != nil {
		span.RecordError(err)
		if domain.IsKind(err, domain.KindInvalidCode) {
			c.verifiedCode = ""
			c.code.Clear()
			c.state = StateAwaitingCode
			c.countdown.ResetTo(c.remainingLocked(ctx, c.countdown.Remaining()))
		}
		return &FlowError{Err: err, Action: actionFor(err)}
	}

	c.finishLocked(ctx)
	c.audit("otpflow.reset.completed")
	return nil
}

// Abandon is back navigation: the flow-scoped state is dropped, the server challenge is left
// to expire on its own.
func (c *Controller) Abandon(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.countdown.Stop()
	c.state = StateCollectingIdentifier
	c.email = ""
	c.verifiedCode = ""
	c.devCode = ""
	c.code.Clear()
	return credstore.RemoveAll(ctx, c.store, flowKeys(c.purpose)...)
}

// Close releases the countdown when the screen is torn down. Persisted state is kept so the
// flow can be resumed.
func (c *Controller) Close() {
	c.countdown.Stop()
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	remaining := c.countdown.Remaining()
	return View{
		State:     c.state,
		Purpose:   c.purpose,
		Email:     c.email,
		Digits:    c.code.Digits(),
		Focus:     c.code.Focus(),
		Remaining: remaining,
		Countdown: FormatMMSS(remaining),
		CanResend: c.state == StateAwaitingCode && remaining == 0,
		DevCode:   c.devCode,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) require(want State) error {
	if c.state == StateDone {
		return ErrFlowDone
	}
	if c.state != want {
		return ErrInvalidTransition
	}
	return nil
}

func (c *Controller) sendLocked(ctx context.Context, email string) error {
	if err := validate.Email(email); err != nil {
		return err
	}
	email = domain.NormalizeEmail(email)

	ctx, span := c.startSpan(ctx, "otpflow.SendCode")
	defer span.End()

	res, err := c.gw.SendCode(ctx, email, c.purpose)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("send code failed", zap.String("email", email), zap.Error(err))
		return &FlowError{Err: err, Action: sendActionFor(err)}
	}

	if err := c.persistFlow(ctx, email); err != nil {
		c.logger.Warn("persist flow state", zap.Error(err))
	}

	c.email = email
	c.devCode = res.DevCode
	c.verifiedCode = ""
	c.code.Clear()
	c.state = StateAwaitingCode
	c.countdown.Reset()
	c.audit("otpflow.code.sent", zap.String("email", email))
	return nil
}

func (c *Controller) verifyLocked(ctx context.Context) error {
	code := c.code.Code()

	ctx, span := c.startSpan(ctx, "otpflow.VerifyCode")
	defer span.End()

	res, err := c.gw.VerifyCode(ctx, c.email, code, c.purpose)
	if err != nil {
		span.RecordError(err)
		c.code.Clear()
		c.logger.Info("code rejected", zap.String("email", c.email), zap.String("kind", string(domain.KindOf(err))))
		return &FlowError{Err: err, Action: actionFor(err)}
	}

	c.countdown.Stop()
	c.state = StateCompleting
	c.verifiedCode = code
	c.audit("otpflow.code.verified", zap.String("email", c.email))

	switch c.purpose {
	case domain.PurposeSignup:
		if !res.RequiresFinalization && res.Session.Valid() {
			return c.establishLocked(ctx, res.Session)
		}
		if err := c.store.Set(ctx, credstore.KeyFlowStage, stageCompleting); err != nil {
			c.logger.Warn("persist flow stage", zap.Error(err))
		}
		return c.finalizeLocked(ctx)
	case domain.PurposeResetPassword:
		return nil
	default:
		if res.Session.Valid() {
			return c.establishLocked(ctx, res.Session)
		}
		c.finishLocked(ctx)
		return nil
	}
}

func (c *Controller) finalizeLocked(ctx context.Context) error {
	var reg domain.PendingRegistration
	if err := credstore.GetJSON(ctx, c.store, credstore.KeyPendingSignup, &reg); err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return &FlowError{Err: ErrNoPendingRegistration, Action: ActionNone}
		}
		return &FlowError{Err: fmt.Errorf("load pending registration: %w", err), Action: ActionRetry}
	}

	ctx, span := c.startSpan(ctx, "otpflow.Finalize")
	defer span.End()

	s, err := c.gw.Finalize(ctx, reg)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("finalize registration failed", zap.String("email", reg.Email), zap.Error(err))
		action := ActionRetry
		switch domain.KindOf(err) {
		case domain.KindConflict:
			action = ActionLogin
		case domain.KindValidation, domain.KindAuth:
			action = ActionNone
		}
		return &FlowError{Err: err, Action: action}
	}
	return c.establishLocked(ctx, s)
}

func (c *Controller) establishLocked(ctx context.Context, s domain.Session) error {
	if err := c.sessions.Establish(ctx, s); err != nil {
		return &FlowError{Err: err, Action: ActionRetry}
	}
	c.finishLocked(ctx)
	return nil
}

func (c *Controller) finishLocked(ctx context.Context) {
	c.countdown.Stop()
	c.state = StateDone
	c.verifiedCode = ""
	c.code.Clear()
	if err := credstore.RemoveAll(ctx, c.store, flowKeys(c.purpose)...); err != nil {
		c.logger.Warn("clear flow state", zap.Error(err))
	}
	c.audit("otpflow.done", zap.String("email", c.email))
}

func (c *Controller) persistFlow(ctx context.Context, email string) error {
	if err := c.store.Remove(ctx, credstore.KeyFlowStage); err != nil {
		return err
	}
	if err := c.store.Set(ctx, credstore.KeyPendingEmail, email); err != nil {
		return err
	}
	if err := c.store.Set(ctx, credstore.KeyFlowPurpose, c.purpose.String()); err != nil {
		return err
	}
	return c.store.Set(ctx, credstore.KeyFlowSentAt, c.now().UTC().Format(time.RFC3339))
}

// remainingLocked derives the seconds left to resend from flow.sent_at, or returns fallback
// when no send time is stored.
func (c *Controller) remainingLocked(ctx context.Context, fallback int) int {
	raw, err := c.store.Get(ctx, credstore.KeyFlowSentAt)
	if err != nil {
		return fallback
	}
	sentAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fallback
	}
	return c.countdown.total - int(c.now().Sub(sentAt)/time.Second)
}

func flowKeys(purpose domain.Purpose) []string {
	keys := []string{credstore.KeyPendingEmail, credstore.KeyFlowPurpose, credstore.KeyFlowSentAt, credstore.KeyFlowStage}
	if purpose == domain.PurposeSignup {
		keys = append(keys, credstore.KeyPendingSignup)
	}
	return keys
}

func actionFor(err error) Action {
	switch domain.KindOf(err) {
	case domain.KindInvalidCode:
		return ActionResend
	case domain.KindNetwork:
		return ActionRetry
	}
	return ActionNone
}

func sendActionFor(err error) Action {
	switch domain.KindOf(err) {
	case domain.KindNetwork:
		return ActionRetry
	case domain.KindConflict:
		return ActionLogin
	}
	return ActionNone
}

func (c *Controller) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := c.tracer.Start(ctx, name)
	span.SetAttributes(attribute.String("otp.purpose", c.purpose.String()))
	return ctx, span
}

func (c *Controller) audit(event string, fields ...zap.Field) {
	all := make([]zap.Field, 0, len(fields)+2)
	all = append(all, zap.String("event", event), zap.Time("timestamp", c.now().UTC()))
	all = append(all, fields...)
	c.logger.Info("audit", all...)
}
