package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tayyabfareed009/newswatch/internal/domain"
	"github.com/tayyabfareed009/newswatch/internal/otpflow"
	"github.com/tayyabfareed009/newswatch/internal/session"
)

func newRootCommand() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "newsreader",
		Short:         "Sign up, verify and sign in to the newswatch reader",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log the audit trail to stderr")
	root.PersistentFlags().StringVar(&flags.apiURL, "api", "", "auth API base URL (overrides API_BASE_URL)")
	root.PersistentFlags().StringVar(&flags.store, "store", "", "credential store: file, redis or memory (overrides STORE_DRIVER)")

	root.AddCommand(
		newSignupCommand(&flags),
		newVerifyCommand(&flags),
		newResendCommand(&flags),
		newResetCommand(&flags),
		newVerifyEmailCommand(&flags),
		newLoginCommand(&flags),
		newLogoutCommand(&flags),
		newWhoamiCommand(&flags),
	)
	return root
}

func newController(c client, t *terminal, purpose domain.Purpose) *otpflow.Controller {
	return otpflow.New(c.Gateway, c.Store, c.Sessions, purpose, otpflow.Options{
		Countdown: c.Config.OTPCountdown,
		Logger:    c.Logger,
		OnTick:    t.onTick,
	})
}

func newSignupCommand(flags *globalFlags) *cobra.Command {
	var reg domain.PendingRegistration

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account; a code is e-mailed before the account exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := newTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
			return withClient(cmd.Context(), *flags, func(ctx context.Context, c client) error {
				form, err := askRegistration(t, reg)
				if err != nil {
					return err
				}
				ctrl := newController(c, t, domain.PurposeSignup)
				defer ctrl.Close()

				if err := ctrl.BeginSignup(ctx, form); err != nil {
					return errors.New(describe(err))
				}
				return finishSignup(ctx, t, ctrl, c)
			})
		},
	}
	cmd.Flags().StringVar(&reg.Name, "name", "", "full name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "e-mail address")
	cmd.Flags().StringVar(&reg.Password, "password", "", "password")
	cmd.Flags().StringVar(&reg.Phone, "phone", "", "phone number (optional)")
	cmd.Flags().StringVar(&reg.Role, "role", domain.RoleReader, "reader or reporter")
	return cmd
}

func askRegistration(t *terminal, reg domain.PendingRegistration) (domain.PendingRegistration, error) {
	var err error
	if reg.Name, err = t.value(reg.Name, "name"); err != nil {
		return reg, err
	}
	if reg.Email, err = t.value(reg.Email, "e-mail"); err != nil {
		return reg, err
	}
	if reg.Password, err = t.value(reg.Password, "password"); err != nil {
		return reg, err
	}
	return reg, nil
}

// finishSignup runs the code screen and offers a retry when account creation fails. A flow
// resumed after its code was accepted goes straight to account creation.
func finishSignup(ctx context.Context, t *terminal, ctrl *otpflow.Controller, c client) error {
	err := enterCode(ctx, t, ctrl)
	if err == nil && ctrl.State() == otpflow.StateCompleting {
		err = ctrl.RetryFinalize(ctx)
	}
	for err != nil && ctrl.State() == otpflow.StateCompleting {
		if otpflow.ActionOf(err) != otpflow.ActionRetry {
			return errors.New(describe(err))
		}
		t.printf("%s\n", describe(err))
		if !t.confirm("retry") {
			return errors.New("account not created; run verify to try again")
		}
		err = ctrl.RetryFinalize(ctx)
	}
	if err != nil {
		return err
	}
	return welcome(t, c)
}

func welcome(t *terminal, c client) error {
	s, err := c.Sessions.Current()
	if err != nil {
		return err
	}
	t.printf("Welcome, %s. You are signed in as %s.\n", s.User.Name, s.User.Email)
	return nil
}

func newVerifyCommand(flags *globalFlags) *cobra.Command {
	var purpose string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Resume a verification that was interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := domain.ParsePurpose(purpose)
			if err != nil {
				return err
			}
			t := newTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
			return withClient(cmd.Context(), *flags, func(ctx context.Context, c client) error {
				ctrl := newController(c, t, p)
				defer ctrl.Close()

				if err := ctrl.Resume(ctx); err != nil {
					return errors.New(describe(err))
				}
				return runFlow(ctx, t, ctrl, c, p)
			})
		},
	}
	cmd.Flags().StringVar(&purpose, "purpose", string(domain.PurposeSignup), "signup, reset-password or verify-email")
	return cmd
}

func newResendCommand(flags *globalFlags) *cobra.Command {
	var purpose string

	cmd := &cobra.Command{
		Use:   "resend",
		Short: "Request a new code for the verification in progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := domain.ParsePurpose(purpose)
			if err != nil {
				return err
			}
			t := newTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
			return withClient(cmd.Context(), *flags, func(ctx context.Context, c client) error {
				ctrl := newController(c, t, p)
				defer ctrl.Close()

				if err := ctrl.Resume(ctx); err != nil {
					return errors.New(describe(err))
				}
				if err := ctrl.Resend(ctx); err != nil {
					if errors.Is(err, otpflow.ErrResendUnavailable) {
						return fmt.Errorf("a new code can be requested in %s", ctrl.Snapshot().Countdown)
					}
					return errors.New(describe(err))
				}
				return runFlow(ctx, t, ctrl, c, p)
			})
		},
	}
	cmd.Flags().StringVar(&purpose, "purpose", string(domain.PurposeSignup), "signup, reset-password or verify-email")
	return cmd
}

// runFlow completes an already started flow according to its purpose.
func runFlow(ctx context.Context, t *terminal, ctrl *otpflow.Controller, c client, purpose domain.Purpose) error {
	switch purpose {
	case domain.PurposeSignup:
		return finishSignup(ctx, t, ctrl, c)
	case domain.PurposeResetPassword:
		return finishReset(ctx, t, ctrl)
	default:
		if err := enterCode(ctx, t, ctrl); err != nil {
			return err
		}
		return markVerified(ctx, t, c)
	}
}

func newResetCommand(flags *globalFlags) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset a forgotten password with an e-mailed code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := newTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
			return withClient(cmd.Context(), *flags, func(ctx context.Context, c client) error {
				addr, err := t.value(email, "e-mail")
				if err != nil {
					return err
				}
				ctrl := newController(c, t, domain.PurposeResetPassword)
				defer ctrl.Close()

				if err := ctrl.SendCode(ctx, addr); err != nil {
					return errors.New(describe(err))
				}
				return finishReset(ctx, t, ctrl)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "e-mail address of the account")
	return cmd
}

// finishReset verifies the code, then asks for the new password until the server accepts it.
// A code rejected at this point sends the user back to the code screen.
func finishReset(ctx context.Context, t *terminal, ctrl *otpflow.Controller) error {
	for {
		if err := enterCode(ctx, t, ctrl); err != nil {
			return err
		}
		if ctrl.State() == otpflow.StateDone {
			break
		}

		password, err := t.ask("new password")
		if err != nil {
			return err
		}
		confirm, err := t.ask("confirm password")
		if err != nil {
			return err
		}
		err = ctrl.CompleteReset(ctx, password, confirm)
		if err == nil {
			break
		}
		t.printf("%s\n", describe(err))
		if ctrl.State() == otpflow.StateCompleting && otpflow.ActionOf(err) == otpflow.ActionNone && !domain.IsKind(err, domain.KindValidation) {
			return errors.New("password not changed")
		}
	}
	t.printf("Your password was changed. Sign in with login.\n")
	return nil
}

func newVerifyEmailCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email",
		Short: "Confirm the e-mail address of the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := newTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
			return withClient(cmd.Context(), *flags, func(ctx context.Context, c client) error {
				s, err := c.Sessions.Current()
				if err != nil {
					return errors.New("you are not signed in")
				}
				ctrl := newController(c, t, domain.PurposeVerifyEmail)
				defer ctrl.Close()

				if err := ctrl.SendCode(ctx, s.User.Email); err != nil {
					return errors.New(describe(err))
				}
				if err := enterCode(ctx, t, ctrl); err != nil {
					return err
				}
				return markVerified(ctx, t, c)
			})
		},
	}
}

// markVerified refreshes the profile snapshot after a verify-email flow.
func markVerified(ctx context.Context, t *terminal, c client) error {
	s, err := c.Sessions.Current()
	if err != nil {
		t.printf("Your e-mail address is verified.\n")
		return nil
	}
	user, err := c.Gateway.Profile(ctx, s.Token)
	if err != nil {
		c.Logger.Debug("refresh profile after verification", zap.Error(err))
		user = s.User
		user.EmailVerified = true
	}
	if err := c.Sessions.UpdateUser(ctx, user); err != nil {
		return err
	}
	t.printf("Your e-mail address %s is verified.\n", user.Email)
	return nil
}

func newLoginCommand(flags *globalFlags) *cobra.Command {
	var (
		email    string
		password string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with e-mail and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := newTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
			return withClient(cmd.Context(), *flags, func(ctx context.Context, c client) error {
				saved, ok, err := c.Sessions.Remembered(ctx)
				if err != nil {
					return err
				}
				if ok && email == "" {
					email = saved.Email
					if password == "" {
						password = saved.Password
						remember = true
					}
				}
				if email, err = t.value(email, "e-mail"); err != nil {
					return err
				}
				if password, err = t.value(password, "password"); err != nil {
					return err
				}

				if _, err := c.Sessions.Login(ctx, c.Gateway, email, password, remember); err != nil {
					return errors.New(domain.UserMessage(err))
				}
				return welcome(t, c)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "e-mail address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().BoolVar(&remember, "remember", false, "remember the credentials on this device")
	return cmd
}

func newLogoutCommand(flags *globalFlags) *cobra.Command {
	var forget bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out of this device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), *flags, func(ctx context.Context, c client) error {
				if err := c.Sessions.Clear(ctx); err != nil {
					return err
				}
				if forget {
					return c.Sessions.Forget(ctx)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&forget, "forget", false, "also drop remembered credentials")
	return cmd
}

func newWhoamiCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := newTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
			return withClient(cmd.Context(), *flags, func(ctx context.Context, c client) error {
				s, err := c.Sessions.Current()
				if errors.Is(err, session.ErrNoSession) {
					t.printf("Not signed in.\n")
					return nil
				}
				user, err := c.Gateway.Profile(ctx, s.Token)
				switch {
				case domain.IsKind(err, domain.KindAuth):
					if err := c.Sessions.Clear(ctx); err != nil {
						return err
					}
					t.printf("Your session has expired. Sign in again.\n")
					return nil
				case err != nil:
					c.Logger.Warn("profile refresh failed, showing cached profile", zap.Error(err))
					user = s.User
				default:
					if err := c.Sessions.UpdateUser(ctx, user); err != nil {
						return err
					}
				}
				verified := "unverified"
				if user.EmailVerified {
					verified = "verified"
				}
				t.printf("%s <%s> %s, e-mail %s\n", user.Name, user.Email, user.Role, verified)
				return nil
			})
		},
	}
}
