package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Find other users",
}

var usersSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search users by username",
	Long: `Search users whose username contains the given term.

The match is case-insensitive and you are excluded from the results.

Examples:
  parley users search ali`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersSearch,
}

var usernameCmd = &cobra.Command{
	Use:   "username",
	Short: "Manage your username",
}

var usernameSetCmd = &cobra.Command{
	Use:   "set <username>",
	Short: "Claim or change your username",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsernameSet,
}

func init() {
	usersCmd.AddCommand(usersSearchCmd)
	usernameCmd.AddCommand(usernameSetCmd)
}

func runUsersSearch(cmd *cobra.Command, args []string) error {
	if err := requireLogin(); err != nil {
		return err
	}
	ctx := context.Background()

	users, err := gqlClient.SearchUsers(ctx, args[0])
	if err != nil {
		return fmt.Errorf("search users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	fmt.Printf("Users (%d):\n\n", len(users))
	for _, u := range users {
		fmt.Printf("- %s (%s)\n", displayName(u), u.ID)
	}
	return nil
}

func runUsernameSet(cmd *cobra.Command, args []string) error {
	if err := requireLogin(); err != nil {
		return err
	}
	username := args[0]
	ctx := context.Background()

	result, err := gqlClient.CreateUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("set username: %w", err)
	}
	if !result.Success {
		msg := "unknown error"
		if result.Error != nil {
			msg = *result.Error
		}
		return fmt.Errorf("set username: %s", msg)
	}

	clientCfg.Username = username
	if err := saveClientConfig(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to update config: %v\n", err)
	}

	fmt.Printf("Username set to %s\n", username)
	return nil
}
