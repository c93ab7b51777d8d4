package cli

import (
	"fmt"

	"github.com/dmitrijs2005/sealdrop/internal/client/models"
	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/spf13/cobra"
)

func newUsersCommand(a *App) *cobra.Command {
	var managed bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List accounts (admin) or your direct reports (--managed)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}

			list := a.api.ListUsers
			if managed {
				list = a.api.ManagedUsers
			}
			users, err := list(ctx)
			if err != nil {
				return err
			}
			printUsers(a.out, users)
			return nil
		},
	}
	cmd.Flags().BoolVar(&managed, "managed", false, "list the employees you manage")
	return cmd
}

func newCreateUserCommand(a *App) *cobra.Command {
	var email, role, manager string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an approved account (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}

			addr, err := a.promptEmail(email)
			if err != nil {
				return err
			}
			password, err := a.promptNewPassword("Password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			u, err := a.api.CreateUser(ctx, models.NewUser{
				Email:        addr,
				Password:     string(password),
				Role:         role,
				ManagerEmail: manager,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s Created %s %s (id %s)\n", successMark, u.Role, u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&role, "role", models.RoleEmployee, "employee, manager or admin")
	cmd.Flags().StringVar(&manager, "manager", "", "manager email (employees only)")
	return cmd
}

func newSetStatusCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <userId> <approved|rejected|pending>",
		Short: "Change the status of an account (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}

			if err := a.api.SetUserStatus(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s Account %s is now %s\n", successMark, args[0], args[1])
			return nil
		},
	}
}

// newAdminFilesCommand lists a user's files. The escrowed keys in the
// response are never printed.
func newAdminFilesCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "admin-files <userId>",
		Short: "List all files of an account (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}

			adminFiles, err := a.api.ListUserFiles(ctx, args[0])
			if err != nil {
				return err
			}

			files := make([]models.File, 0, len(adminFiles))
			for _, f := range adminFiles {
				files = append(files, f.File)
			}
			printFiles(a.out, files, false)
			return nil
		},
	}
}
