/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/campusfound/apiserver/config"
	"github.com/campusfound/apiserver/internal/db"
	"github.com/campusfound/apiserver/internal/store"
	"github.com/campusfound/apiserver/types"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

// createAdminCmd seeds an administrator account. If a user with the given
// email already exists, it is promoted to the admin role instead.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create or promote an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email := strings.ToLower(strings.TrimSpace(adminEmail))
		if email == "" || adminPassword == "" {
			return errors.New("email and password are required")
		}

		cfg := config.LoadConfig()
		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = dbConn.Close()
		}()

		users := store.NewUserRepository(dbConn)

		existing, err := users.GetByEmail(cmd.Context(), email)
		if err == nil {
			existing.Role = types.RoleAdmin
			if _, err := users.Update(cmd.Context(), existing); err != nil {
				return fmt.Errorf("promote user failed: %w", err)
			}
			fmt.Printf("promoted existing user %s to admin\n", email)
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		if _, err := users.Create(cmd.Context(), types.User{
			Name:               adminName,
			Email:              email,
			Role:               types.RoleAdmin,
			PasswordHash:       string(hashed),
			EmailNotifications: true,
		}); err != nil {
			return fmt.Errorf("create admin failed: %w", err)
		}
		fmt.Printf("admin user %s created\n", email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringVar(&adminName, "name", "Admin User", "display name for the admin account")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "email address for the admin account")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "password for the admin account")
}
