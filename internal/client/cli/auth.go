package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/spf13/cobra"
)

// promptEmail returns flagValue or asks for an email.
func (a *App) promptEmail(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return getSimpleText(a.reader, "Enter email", a.out)
}

// promptNewPassword asks for a password twice.
func (a *App) promptNewPassword(prompt string) ([]byte, error) {
	pw, err := getPassword(a.out, prompt)
	if err != nil {
		return nil, err
	}
	again, err := getPassword(a.out, "Repeat password")
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(again)

	if string(pw) != string(again) {
		common.WipeByteArray(pw)
		return nil, errors.New("passwords do not match")
	}
	return pw, nil
}

func newSignupCommand(a *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an employee account (an admin must approve it)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			addr, err := a.promptEmail(email)
			if err != nil {
				return err
			}
			password, err := a.promptNewPassword("Password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			u, err := a.auth.Signup(ctx, addr, string(password))
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s Account %s created with status %s\n", successMark, u.Email, u.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newLoginCommand(a *App) *cobra.Command {
	var (
		email string
		admin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			addr, err := a.promptEmail(email)
			if err != nil {
				return err
			}
			password, err := getPassword(a.out, "Password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			s, cleanup := a.startSpinner("Logging in...")
			defer cleanup()

			login := a.auth.Login
			if admin {
				login = a.auth.AdminLogin
			}
			session, err := login(ctx, addr, string(password))
			if err != nil {
				return err
			}
			a.session = session

			s.FinalMSG = fmt.Sprintf("%s Logged in as %s (%s)", successMark, session.Email, session.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&admin, "admin", false, "log in to the admin console")
	return cmd
}

func newLogoutCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session (the encryption key stays on this device)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			a.session = nil
			fmt.Fprintf(a.out, "%s Logged out\n", successMark)
			return nil
		},
	}
}

func newPasswdCommand(a *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			addr := email
			if addr == "" {
				if s, err := a.auth.RestoreSession(ctx); err == nil {
					addr = s.Email
				}
			}
			addr, err := a.promptEmail(addr)
			if err != nil {
				return err
			}

			oldPassword, err := getPassword(a.out, "Current password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(oldPassword)

			newPassword, err := a.promptNewPassword("New password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(newPassword)

			if err := a.auth.ChangePassword(ctx, addr, string(oldPassword), string(newPassword)); err != nil {
				return err
			}
			a.session = nil

			fmt.Fprintf(a.out, "%s Password changed\n", successMark)
			fmt.Fprintf(a.out, "%s Log in again with the new password\n", hintMark)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}
