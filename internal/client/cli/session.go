package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/bookshelf/internal/client/auth"
)

func (c *Cli) newRegisterCommand() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userName, err := c.prompt(name, "Name")
			if err != nil {
				return err
			}
			userEmail, err := c.prompt(email, "Email")
			if err != nil {
				return err
			}
			password, err := c.readNewPassword("Password")
			if err != nil {
				return err
			}

			session, err := c.authService.Register(cmd.Context(), userName, userEmail, password)
			if err != nil {
				return err
			}

			c.io.Printf("✓ Registered as %s <%s>\n", session.Name, session.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (c *Cli) newLoginCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userEmail, err := c.prompt(email, "Email")
			if err != nil {
				return err
			}
			password, err := c.io.ReadPassword("Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			session, err := c.authService.Login(cmd.Context(), userEmail, password)
			if err != nil {
				return err
			}

			c.io.Printf("✓ Logged in as %s <%s>\n", session.Name, session.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (c *Cli) newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.authService.Logout(cmd.Context()); err != nil {
				return err
			}
			c.io.Println("✓ Logged out")
			return nil
		},
	}
}

func (c *Cli) newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := c.authService.Session(cmd.Context())
			switch {
			case errors.Is(err, auth.ErrNotAuthenticated):
				c.io.Println("Not logged in")
				return nil
			case errors.Is(err, auth.ErrSessionExpired):
				c.io.Println("Session expired, log in again")
				return nil
			case err != nil:
				return err
			}

			c.io.Printf("Logged in as %s <%s>\n", session.Name, session.Email)
			c.io.Printf("Server: %s\n", c.serverURL)
			c.io.Printf("Access token expires: %s\n", formatExpiry(session.AccessExpiresAt))
			c.io.Printf("Session expires: %s\n", formatExpiry(session.RefreshExpiresAt))
			return nil
		},
	}
}

func (c *Cli) newRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Get a new access token using the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := c.authService.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			c.io.Printf("✓ Access token refreshed, expires %s\n", formatExpiry(session.AccessExpiresAt))
			return nil
		},
	}
}

// formatExpiry печатает unix время из storage.AuthData
func formatExpiry(unix int64) string {
	if unix == 0 {
		return "unknown"
	}
	return time.Unix(unix, 0).Local().Format(time.DateTime)
}
