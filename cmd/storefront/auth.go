package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/storefront/pkg/authz"
)

func (a *app) registerCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "register <username> <password>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.client.Register(cmd.Context(), args[0], args[1], email)
			if err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "address for the verification e-mail")
	return cmd
}

func (a *app) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <link> | verify <user-id> <token>",
		Short: "Confirm the e-mail address of an account",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, token, err := parseVerification(args)
			if err != nil {
				return err
			}
			msg, err := a.client.Verify(cmd.Context(), id, token)
			if err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		},
	}
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.client.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if authz.IsPrivileged(s) {
				cmd.Printf("Logged in as %s (admin)\n", s.Identity)
				return nil
			}
			cmd.Printf("Logged in as %s\n", s.Identity)
			return nil
		},
	}
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Logged out.")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.client.Session(cmd.Context())
			if err != nil {
				return err
			}
			if !s.Authenticated() {
				cmd.Println("Not logged in.")
				return nil
			}
			role := "user"
			if authz.IsPrivileged(s) {
				role = "admin"
			}
			cmd.Printf("%s (%s, %s)\n", s.Identity, role, s.Source)
			return nil
		},
	}
}
