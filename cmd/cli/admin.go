package main

import (
	"fmt"

	"github.com/playhuddle/backend/internal/database"
	"github.com/playhuddle/backend/internal/models"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin privileges",
}

var adminPromoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant admin privileges to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAdmin(args[0], true)
	},
}

var adminRevokeCmd = &cobra.Command{
	Use:   "revoke <email>",
	Short: "Revoke admin privileges from a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAdmin(args[0], false)
	},
}

func init() {
	adminCmd.AddCommand(adminPromoteCmd)
	adminCmd.AddCommand(adminRevokeCmd)
}

func setAdmin(email string, grant bool) error {
	var user models.User
	if err := database.DB.Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return fmt.Errorf("user not found: %s", email)
	}

	if user.IsAdmin == grant {
		if grant {
			fmt.Printf("User %s is already an admin\n", user.Username)
		} else {
			fmt.Printf("User %s is not an admin\n", user.Username)
		}
		return nil
	}

	if err := database.DB.Model(&user).Update("is_admin", grant).Error; err != nil {
		return fmt.Errorf("failed to update admin flag: %w", err)
	}

	if grant {
		fmt.Printf("Admin privileges granted to %s (%s)\n", user.Username, user.Email)
		fmt.Println("The user must log in again for the change to take effect")
	} else {
		fmt.Printf("Admin privileges revoked for %s (%s)\n", user.Username, user.Email)
	}
	return nil
}
