package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [conversation-id]",
	Short: "Stream events as they happen",
	Long: `Stream events as they happen over a websocket subscription.

With a conversation id, streams that conversation's new messages.
Without one, streams conversation lifecycle events (created, updated,
deleted) visible to you. Stop with Ctrl-C.

Examples:
  parley watch
  parley watch 9f1b...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requireLogin(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	if len(args) == 1 {
		return watchMessages(ctx, args[0])
	}
	return watchConversations(ctx)
}

func watchMessages(ctx context.Context, conversationID string) error {
	messages, err := gqlClient.WatchMessages(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	fmt.Printf("Watching conversation %s (Ctrl-C to stop)\n", conversationID)
	for msg := range messages {
		fmt.Printf("[%s] %s: %s\n",
			msg.CreatedAt.Local().Format("15:04"),
			displayName(msg.Sender),
			msg.Body)
	}
	return nil
}

func watchConversations(ctx context.Context) error {
	changes, err := gqlClient.WatchConversations(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	fmt.Println("Watching conversations (Ctrl-C to stop)")
	for change := range changes {
		conv := change.Conversation
		fmt.Printf("[%s] %s  %s\n", change.Kind, conv.ID, participantNames(conv, clientCfg.UserID))
		if change.Kind == "updated" && conv.LatestMessage != nil {
			fmt.Printf("    %s: %s\n", displayName(conv.LatestMessage.Sender), conv.LatestMessage.Body)
		}
	}
	return nil
}
