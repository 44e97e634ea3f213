package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const passwordEnv = "TASKCTL_PASSWORD"

var (
	registerName string
	authEmail    string
	authPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := resolvePassword()
		if err != nil {
			return err
		}
		session, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		if err := session.Register(cmd.Context(), registerName, authEmail, password); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", session.Identity().Email)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := resolvePassword()
		if err != nil {
			return err
		}
		session, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		if err := session.Login(cmd.Context(), authEmail, password); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%d tasks)\n", session.Identity().Email, len(session.Tasks()))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		if err := session.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		identity := session.Identity()
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", labelStyle.Render(identity.Name), mutedStyle.Render("<"+identity.Email+">"))
		return nil
	},
}

// resolvePassword prefers the flag and falls back to TASKCTL_PASSWORD.
func resolvePassword() (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}
	if env := os.Getenv(passwordEnv); env != "" {
		return env, nil
	}
	return "", errors.New("password required, pass --password or set " + passwordEnv)
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name")
	_ = registerCmd.MarkFlagRequired("name")

	for _, cmd := range []*cobra.Command{registerCmd, loginCmd} {
		cmd.Flags().StringVar(&authEmail, "email", "", "account email")
		cmd.Flags().StringVar(&authPassword, "password", "", "account password (or "+passwordEnv+")")
		_ = cmd.MarkFlagRequired("email")
	}

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)
}
