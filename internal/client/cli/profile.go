package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	pkgapi "github.com/iudanet/bookshelf/pkg/api"
)

func (c *Cli) newProfileCommand() *cobra.Command {
	var (
		name, email, avatar string
		changePassword      bool
	)

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the current user's profile",
		Long: "Without flags prints the profile. With --name, --email, --avatar or --password\n" +
			"updates only the given fields.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			var req pkgapi.UpdateProfileRequest
			if flags.Changed("name") {
				req.Name = &name
			}
			if flags.Changed("email") {
				req.Email = &email
			}
			if flags.Changed("avatar") {
				req.Avatar = &avatar
			}
			if changePassword {
				password, err := c.readNewPassword("New password")
				if err != nil {
					return err
				}
				req.Password = &password
			}

			if req == (pkgapi.UpdateProfileRequest{}) {
				return c.showProfile(cmd.Context())
			}

			user, err := c.authService.UpdateProfile(cmd.Context(), req)
			if err != nil {
				return err
			}
			c.io.Println("✓ Profile updated")
			c.printUser(user)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&email, "email", "", "new email")
	cmd.Flags().StringVar(&avatar, "avatar", "", "new avatar URL")
	cmd.Flags().BoolVar(&changePassword, "password", false, "prompt for a new password")
	return cmd
}

func (c *Cli) showProfile(ctx context.Context) error {
	var user *pkgapi.UserData
	err := c.authService.WithAccessToken(ctx, func(ctx context.Context, token string) error {
		var err error
		user, err = c.apiClient.GetProfile(ctx, token)
		return err
	})
	if err != nil {
		return err
	}
	c.printUser(user)
	return nil
}

func (c *Cli) printUser(user *pkgapi.UserData) {
	if user == nil {
		return
	}
	c.io.Printf("ID:     %s\n", user.ID)
	c.io.Printf("Name:   %s\n", user.Name)
	c.io.Printf("Email:  %s\n", user.Email)
	if user.Avatar != "" {
		c.io.Printf("Avatar: %s\n", user.Avatar)
	}
}

// readNewPassword спрашивает пароль дважды
func (c *Cli) readNewPassword(label string) (string, error) {
	password, err := c.io.ReadPassword(label + ": ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}
