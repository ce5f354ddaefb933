package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/tourtrack/pkg/model"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administer accounts (admin only)",
	}
	cmd.AddCommand(
		newUsersListCmd(),
		newUserStatusCmd("approve", "Activate a pending or disabled account", model.StatusActive),
		newUserStatusCmd("disable", "Disable an account", model.StatusDisabled),
		newUsersStatusCmd(),
		newUsersDeleteCmd(),
	)
	return cmd
}

func newUsersListCmd() *cobra.Command {
	var pending bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := enter(cmd, "/admin"); err != nil {
				return err
			}
			store := application.Users
			list := store.FetchUsers(cmd.Context())
			if msg := store.Err(); msg != "" {
				return errors.New(msg)
			}
			if pending {
				list = store.Pending()
			}

			return render(cmd, list, func(w io.Writer) {
				if len(list) == 0 {
					fmt.Fprintln(w, "No users found.")
					return
				}
				fmt.Fprintf(w, "%-20s  %-30s  %-6s  %-9s  %-8s  %s\n", "USERNAME", "EMAIL", "ROLE", "STATUS", "VERIFIED", "LAST LOGIN")
				for _, u := range list {
					fmt.Fprintf(w, "%-20s  %-30s  %-6s  %-9s  %-8s  %s\n",
						truncate(u.Username, 20), truncate(u.Email, 30), u.Role, u.Status, yesNo(u.EmailVerified), lastLogin(u.LastLogin))
				}
			})
		},
	}

	cmd.Flags().BoolVar(&pending, "pending", false, "Only accounts awaiting approval")
	return cmd
}

func lastLogin(t *model.Timestamp) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return humanize.Time(t.Time)
}

func newUserStatusCmd(use, short string, status model.UserStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setUserStatus(cmd, args[0], status)
		},
	}
}

func newUsersStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <username> <pending|active|disabled>",
		Short: "Set an account's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := model.ParseUserStatus(args[1])
			if !ok {
				return fmt.Errorf("unknown status %q: want pending, active or disabled", args[1])
			}
			return setUserStatus(cmd, args[0], status)
		},
	}
}

func setUserStatus(cmd *cobra.Command, username string, status model.UserStatus) error {
	if _, err := enter(cmd, "/admin"); err != nil {
		return err
	}
	u, err := application.Users.UpdateUserStatus(cmd.Context(), username, status)
	if err != nil {
		return userError(err)
	}
	return render(cmd, u, func(w io.Writer) {
		fmt.Fprintf(w, "%s is now %s.\n", u.Username, u.Status)
	})
}

func newUsersDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := enter(cmd, "/admin"); err != nil {
				return err
			}
			if !yes {
				answer, err := promptLine(cmd, fmt.Sprintf("Delete user %s? [y/N]: ", args[0]))
				if err != nil {
					return err
				}
				if answer != "y" && answer != "yes" {
					return errors.New("aborted")
				}
			}
			if err := application.Users.DeleteUser(cmd.Context(), args[0]); err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := enter(cmd, "/profile"); err != nil {
				return err
			}
			u, err := application.Users.FetchProfile(cmd.Context())
			if err != nil {
				return userError(err)
			}
			return render(cmd, u, func(w io.Writer) { printProfile(w, u) })
		},
	}

	var (
		email          string
		changePassword bool
	)
	update := &cobra.Command{
		Use:   "update",
		Short: "Change your email address or password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := enter(cmd, "/profile"); err != nil {
				return err
			}
			upd := model.ProfileUpdate{Email: email}
			if changePassword {
				pw, err := promptNewPassword(cmd)
				if err != nil {
					return err
				}
				upd.Password = pw
			}
			if upd == (model.ProfileUpdate{}) {
				return errors.New("nothing to update: pass --email and/or --password")
			}
			u, err := application.Users.UpdateProfile(cmd.Context(), upd)
			if err != nil {
				return userError(err)
			}
			return render(cmd, u, func(w io.Writer) { printProfile(w, u) })
		},
	}
	update.Flags().StringVar(&email, "email", "", "New email address")
	update.Flags().BoolVar(&changePassword, "password", false, "Prompt for a new password")

	avatar := &cobra.Command{
		Use:   "avatar <image>",
		Short: "Upload a new avatar image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := enter(cmd, "/profile"); err != nil {
				return err
			}
			parts, _, closeAll, err := openFiles(args)
			if err != nil {
				return err
			}
			defer closeAll()
			u, err := application.Users.UploadAvatar(cmd.Context(), parts[0])
			if err != nil {
				return userError(err)
			}
			return render(cmd, u, func(w io.Writer) { printProfile(w, u) })
		},
	}

	cmd.AddCommand(show, update, avatar)
	return cmd
}

func printProfile(w io.Writer, u *model.User) {
	fmt.Fprintf(w, "User:       %s\n", u.Username)
	fmt.Fprintf(w, "  Email:    %s (verified: %s)\n", u.Email, yesNo(u.EmailVerified))
	fmt.Fprintf(w, "  Role:     %s\n", u.Role)
	fmt.Fprintf(w, "  Status:   %s\n", u.Status)
	if u.AvatarURL != "" {
		fmt.Fprintf(w, "  Avatar:   %s\n", u.AvatarURL)
	}
	if u.CreatedAt != nil {
		fmt.Fprintf(w, "  Joined:   %s\n", humanize.Time(u.CreatedAt.Time))
	}
	fmt.Fprintf(w, "  Last seen: %s\n", lastLogin(u.LastLogin))
}

// accountCmd groups the email-token flows, which work without a session.
func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Email verification and password reset",
	}

	simple := func(use, short string, run func(cmd *cobra.Command, arg string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := enter(cmd, "/verify-email"); err != nil {
					return err
				}
				if err := run(cmd, args[0]); err != nil {
					return userError(err)
				}
				return nil
			},
		}
	}

	cmd.AddCommand(
		simple("verify <token>", "Confirm your email address", func(cmd *cobra.Command, token string) error {
			return application.Users.VerifyEmail(cmd.Context(), token)
		}),
		simple("request-verification <email>", "Send a new verification email", func(cmd *cobra.Command, email string) error {
			return application.Users.RequestEmailVerification(cmd.Context(), email)
		}),
		simple("request-reset <email>", "Send a password reset email", func(cmd *cobra.Command, email string) error {
			return application.Users.RequestPasswordReset(cmd.Context(), email)
		}),
		simple("reset-password <token>", "Set a new password with a reset token", func(cmd *cobra.Command, token string) error {
			pw, err := promptNewPassword(cmd)
			if err != nil {
				return err
			}
			return application.Users.ResetPassword(cmd.Context(), token, pw)
		}),
	)
	return cmd
}
