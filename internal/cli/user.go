package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/service"
)

func newUserCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage portal accounts",
	}
	cmd.AddCommand(newUserAddCmd(rt))
	cmd.AddCommand(newUserResetPasswordCmd(rt))
	return cmd
}

func newUserAddCmd(rt *runtime) *cobra.Command {
	var in service.UserCreateInput
	var role, status string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Role = domain.Role(role)
			in.Status = domain.UserStatus(status)
			svc, err := rt.openServices(cmd.Context())
			if err != nil {
				return err
			}
			user, err := svc.users.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "%s user %s (id %d, role %s)\n",
				color.New(color.FgHiGreen).Sprint("created"), user.Email, user.ID, user.Role)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "login email")
	f.StringVar(&in.Password, "password", "", "initial password")
	f.StringVar(&in.Lastname, "lastname", "", "last name")
	f.StringVar(&in.Firstname, "firstname", "", "first name")
	f.StringVar(&in.Middlename, "middlename", "", "middle name")
	f.StringVar(&role, "role", string(domain.RoleUser), "admin, hr or user")
	f.StringVar(&status, "status", string(domain.UserStatusActive), "active or blocked")
	f.Int64Var(&in.DepartmentID, "department-id", 0, "department the user belongs to")
	for _, name := range []string{"email", "password", "lastname", "firstname", "department-id"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newUserResetPasswordCmd(rt *runtime) *cobra.Command {
	var (
		email    string
		id       int64
		password string
	)

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for an account found by --email or --id",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" && id == 0 {
				return errors.New("either --email or --id is required")
			}
			svc, err := rt.openServices(cmd.Context())
			if err != nil {
				return err
			}
			if email == "" {
				user, err := svc.users.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if user == nil {
					return fmt.Errorf("user %d not found", id)
				}
				email = user.Email
			}
			if err := svc.users.SetPassword(cmd.Context(), email, password); err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "%s password for %s\n", color.New(color.FgHiGreen).Sprint("updated"), email)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&email, "email", "", "account email")
	f.Int64Var(&id, "id", 0, "account id")
	f.StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("password")
	cmd.MarkFlagsMutuallyExclusive("email", "id")
	return cmd
}
