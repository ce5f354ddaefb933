package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/tourtrack/internal/credstore"
	"github.com/me/tourtrack/internal/router"
	"github.com/me/tourtrack/pkg/model"
)

func newLoginCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := application.Navigate(ctx, router.LoginPath)
			if err != nil {
				return err
			}
			if m.Path != router.LoginPath {
				who := "an existing session"
				if u, err := application.Session.FetchUser(ctx); err == nil {
					who = u.Username
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Already logged in as %s. Run 'tourtrack logout' first.\n", who)
				return nil
			}

			username, err = valueOrPrompt(cmd, username, "Username: ")
			if err != nil {
				return err
			}
			password, err := promptPassword(cmd, "Password: ")
			if err != nil {
				return err
			}

			out := application.Session.Login(ctx, username, password)
			if !out.Success {
				return errors.New(out.Message)
			}
			if _, err := application.Navigate(ctx, router.HomePath); err != nil {
				logger.Debug("enter home after login", "error", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s. Welcome, %s.\n", out.Message, username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted if omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			application.Session.Logout(false)
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// whoami is the profile view's header: who is signed in and until when.
type whoami struct {
	User       *model.User `json:"user" yaml:"user"`
	Server     string      `json:"server" yaml:"server"`
	SignedInAt *time.Time  `json:"signed_in_at,omitempty" yaml:"signed_in_at,omitempty"`
	ExpiresAt  *time.Time  `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := enter(cmd, "/profile"); err != nil {
				return err
			}
			u, err := application.Session.FetchUser(cmd.Context())
			if err != nil {
				return userError(err)
			}

			info := whoami{User: u, Server: application.Client.BaseURL()}
			if at, err := application.Creds.UpdatedAt(cmd.Context(), credstore.TokenKey); err == nil && !at.IsZero() {
				info.SignedInAt = &at
			}
			if exp, ok := application.Session.TokenExpiry(); ok {
				info.ExpiresAt = &exp
			}
			return render(cmd, info, func(w io.Writer) {
				fmt.Fprintf(w, "User:     %s\n", u.Username)
				fmt.Fprintf(w, "  Email:  %s\n", u.Email)
				fmt.Fprintf(w, "  Role:   %s\n", u.Role)
				fmt.Fprintf(w, "  Status: %s\n", u.Status)
				fmt.Fprintf(w, "Server:   %s\n", info.Server)
				if info.SignedInAt != nil {
					fmt.Fprintf(w, "Signed in %s\n", humanize.Time(*info.SignedInAt))
				}
				if info.ExpiresAt != nil {
					fmt.Fprintf(w, "Session:  expires %s\n", humanize.Time(*info.ExpiresAt))
				}
			})
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var reg model.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account (requires admin approval)",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := application.Navigate(cmd.Context(), "/register")
			if err != nil {
				return err
			}
			if m.Route.Name != router.NameRegister {
				return errors.New("already logged in: run 'tourtrack logout' first")
			}

			if reg.Username, err = valueOrPrompt(cmd, reg.Username, "Username: "); err != nil {
				return err
			}
			if reg.Email, err = valueOrPrompt(cmd, reg.Email, "Email: "); err != nil {
				return err
			}
			if reg.Password, err = promptNewPassword(cmd); err != nil {
				return err
			}

			out, err := application.Session.Register(cmd.Context(), reg)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reg.Username, "username", "u", "", "Username (prompted if omitted)")
	cmd.Flags().StringVar(&reg.Email, "email", "", "Email address (prompted if omitted)")
	return cmd
}

func newPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := enter(cmd, "/profile"); err != nil {
				return err
			}
			current, err := promptPassword(cmd, "Current password: ")
			if err != nil {
				return err
			}
			next, err := promptNewPassword(cmd)
			if err != nil {
				return err
			}

			out := application.Session.ChangePassword(cmd.Context(), current, next)
			if !out.Success {
				return errors.New(out.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			return nil
		},
	}
}

// promptNewPassword asks for a password twice.
func promptNewPassword(cmd *cobra.Command) (string, error) {
	pw, err := promptPassword(cmd, "New password: ")
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", errors.New("password cannot be empty")
	}
	confirm, err := promptPassword(cmd, "Repeat password: ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}
