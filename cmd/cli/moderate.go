package main

import (
	"fmt"

	"github.com/playhuddle/backend/internal/database"
	"github.com/playhuddle/backend/internal/models"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Moderate user accounts",
}

var userSuspendCmd = &cobra.Command{
	Use:   "suspend <email>",
	Short: "Suspend a user (blocks sharing)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserFlag(args[0], "is_suspended", true, "suspended")
	},
}

var userUnsuspendCmd = &cobra.Command{
	Use:   "unsuspend <email>",
	Short: "Lift a user's suspension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserFlag(args[0], "is_suspended", false, "unsuspended")
	},
}

var userBanCmd = &cobra.Command{
	Use:   "ban <email>",
	Short: "Ban a user (blocks login and sharing)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserFlag(args[0], "is_banned", true, "banned")
	},
}

var userUnbanCmd = &cobra.Command{
	Use:   "unban <email>",
	Short: "Lift a user's ban",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserFlag(args[0], "is_banned", false, "unbanned")
	},
}

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Moderate content items",
}

var contentLockCmd = &cobra.Command{
	Use:   "lock <content-id>",
	Short: "Disable sharing for a content item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setContentSharing(args[0], true)
	},
}

var contentUnlockCmd = &cobra.Command{
	Use:   "unlock <content-id>",
	Short: "Re-enable sharing for a content item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setContentSharing(args[0], false)
	},
}

func init() {
	userCmd.AddCommand(userSuspendCmd)
	userCmd.AddCommand(userUnsuspendCmd)
	userCmd.AddCommand(userBanCmd)
	userCmd.AddCommand(userUnbanCmd)
	contentCmd.AddCommand(contentLockCmd)
	contentCmd.AddCommand(contentUnlockCmd)
}

func setUserFlag(email, column string, value bool, verb string) error {
	var user models.User
	if err := database.DB.Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return fmt.Errorf("user not found: %s", email)
	}

	if err := database.DB.Model(&user).Update(column, value).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	fmt.Printf("User %s (%s) %s\n", user.Username, user.Email, verb)
	return nil
}

func setContentSharing(contentID string, disabled bool) error {
	var content models.Content
	if err := database.DB.Where("id = ?", contentID).First(&content).Error; err != nil {
		return fmt.Errorf("content not found: %s", contentID)
	}

	if err := database.DB.Model(&content).Update("sharing_disabled", disabled).Error; err != nil {
		return fmt.Errorf("failed to update content: %w", err)
	}

	if disabled {
		fmt.Printf("Sharing disabled for content %s\n", contentID)
	} else {
		fmt.Printf("Sharing enabled for content %s\n", contentID)
	}
	return nil
}
