package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/storefront"
)

func (a *app) usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List accounts (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := a.client.Users(cmd.Context())
			if err != nil {
				return err
			}
			return table(cmd.OutOrStdout(), "ID\tUSERNAME\tROLE\tENABLED", func(tw io.Writer) {
				for _, u := range users {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%t\n", u.ID, u.Username, u.Role, u.Enabled)
				}
			})
		},
	}
}

type userAction func(c *storefront.Client, ctx context.Context, id int64) (string, error)

func (a *app) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage an account (admin)",
	}
	cmd.AddCommand(
		a.userActionCmd("enable", "Enable an account", (*storefront.Client).EnableUser),
		a.userActionCmd("disable", "Disable an account", (*storefront.Client).DisableUser),
		a.userActionCmd("promote", "Grant the admin role", (*storefront.Client).MakeAdmin),
	)
	return cmd
}

func (a *app) userActionCmd(name, short string, action userAction) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			msg, err := action(a.client, cmd.Context(), id)
			if err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		},
	}
}
