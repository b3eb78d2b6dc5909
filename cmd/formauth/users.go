package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/99minutos/formauth/internal/core/domain"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect and manage the user registry",
	}
	cmd.AddCommand(
		newUsersListCmd(),
		newUsersAddCmd(),
		newUsersPasswdCmd(),
		newUsersActiveCmd("activate", true),
		newUsersActiveCmd("deactivate", false),
	)
	return cmd
}

func newUsersListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users without their passwords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			users := a.Users.ListUsers()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(users)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tDISPLAY NAME\tROLE\tACTIVE\tPERMISSIONS")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", u.Username, u.DisplayName, u.Role, u.Active, strings.Join(u.Permissions, ","))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print users as JSON")
	return cmd
}

func newUsersAddCmd() *cobra.Command {
	var in domain.NewUser
	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Add a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			in.Username = args[0]
			u, err := a.Users.AddUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			if err := a.Users.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (role %s)\n", u.Username, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&in.DisplayName, "display-name", "", "name shown in the application")
	cmd.Flags().StringVar(&in.Role, "role", domain.RoleUser, "role name")
	cmd.Flags().StringSliceVar(&in.Permissions, "permission", nil, "permission to grant (repeatable)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUsersPasswdCmd() *cobra.Command {
	var oldPassword, newPassword string
	cmd := &cobra.Command{
		Use:   "passwd <username>",
		Short: "Change a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if _, err := a.Users.ChangePassword(cmd.Context(), args[0], oldPassword, newPassword); err != nil {
				return err
			}
			if err := a.Users.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password changed for %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&oldPassword, "old", "", "current password")
	cmd.Flags().StringVar(&newPassword, "new", "", "new password")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}

func newUsersActiveCmd(name string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <username>",
		Short: strings.ToUpper(name[:1]) + name[1:] + " a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if active {
				_, err = a.Users.ActivateUser(cmd.Context(), args[0])
			} else {
				_, err = a.Users.DeactivateUser(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			if err := a.Users.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%sd %s\n", name, args[0])
			return nil
		},
	}
}
