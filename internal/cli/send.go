package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <conversation-id> <message...>",
	Short: "Send a message to a conversation",
	Long: `Send a message to a conversation.

The message id is generated locally so a retried send is deduplicated
by the server.

Examples:
  parley send 9f1b... "see you at noon"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	if err := requireLogin(); err != nil {
		return err
	}
	conversationID := args[0]
	body := strings.Join(args[1:], " ")
	ctx := context.Background()

	id := uuid.NewString()
	if err := gqlClient.SendMessage(ctx, id, conversationID, clientCfg.UserID, body); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	if verbose {
		fmt.Printf("Sent %s\n", id)
	}
	return nil
}
