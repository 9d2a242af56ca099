package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"libraryapi/internal/app"
	"libraryapi/internal/authz"
	"libraryapi/internal/user"
)

func newAdminCmd() *cobra.Command {
	var email, name, password string
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create an Admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readPassword(cmd, fmt.Sprintf("Enter password for %s: ", email)); err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
			}
			return withStore(cmd.Context(), func(store *app.Store, logger *slog.Logger) error {
				u, err := createAdmin(cmd.Context(), user.NewService(store.Users), name, email, password)
				if err != nil {
					return err
				}
				logger.Info("admin created", "id", u.ID, "email", u.Email, "driver", store.Driver)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&name, "name", "Administrator", "admin display name")
	cmd.Flags().StringVar(&password, "password", "", "admin password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// readPassword reads a password with masking when stdin is a terminal.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; pass --password")
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func createAdmin(ctx context.Context, users *user.Service, name, email, password string) (user.User, error) {
	if len(password) < 6 {
		return user.User{}, fmt.Errorf("password must be at least 6 characters")
	}
	return users.Register(ctx, user.RegisterInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     authz.RoleAdmin.String(),
	})
}
