package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (c *cli) loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		Long: `Sign in with a console account. The password is read from standard input when
the --password flag is not set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading the password failed: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			user, err := application.Login.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.MarkFlagRequired("username")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and remove it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			application.Login.Logout(cmd.Context())
			cmd.Println("Logged out.")
			return nil
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a usable session is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), application.Login.Status(cmd.Context()))
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Ask the server who the stored session belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			user, err := application.Login.Verify(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), user)
		},
	}
}
