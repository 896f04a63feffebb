package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parley-chat/parley-go/internal/client"
)

var (
	chatsReadLimit  int
	chatsDelForce   bool
	chatsCreateWith []string
)

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "List and manage conversations",
	Long: `List and manage conversations.

Subcommands:
  list    List your conversations (default)
  create  Start a conversation with other users
  read    Show a conversation's messages and mark it as read
  delete  Delete a conversation and all its messages

Examples:
  parley chats
  parley chats create --with <user-id> --with <user-id>
  parley chats read <conversation-id>
  parley chats delete <conversation-id>`,
	RunE: runChatsList,
}

var chatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your conversations",
	RunE:  runChatsList,
}

var chatsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start a conversation with other users",
	RunE:  runChatsCreate,
}

var chatsReadCmd = &cobra.Command{
	Use:   "read <conversation-id>",
	Short: "Show a conversation's messages and mark it as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsRead,
}

var chatsDeleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Delete a conversation and all its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsDelete,
}

func init() {
	chatsCreateCmd.Flags().StringSliceVar(&chatsCreateWith, "with", nil, "user id to include (repeatable)")
	chatsReadCmd.Flags().IntVarP(&chatsReadLimit, "limit", "n", 20, "max messages to show")
	chatsDeleteCmd.Flags().BoolVarP(&chatsDelForce, "force", "f", false, "skip confirmation")

	chatsCmd.AddCommand(chatsListCmd)
	chatsCmd.AddCommand(chatsCreateCmd)
	chatsCmd.AddCommand(chatsReadCmd)
	chatsCmd.AddCommand(chatsDeleteCmd)
}

func runChatsList(cmd *cobra.Command, args []string) error {
	if err := requireLogin(); err != nil {
		return err
	}
	ctx := context.Background()

	conversations, err := gqlClient.Conversations(ctx)
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}

	if len(conversations) == 0 {
		fmt.Println("No conversations yet.")
		return nil
	}

	fmt.Printf("Conversations (%d):\n\n", len(conversations))
	for _, conv := range conversations {
		unreadMark := ""
		if !hasSeen(conv, clientCfg.UserID) {
			unreadMark = " [unread]"
		}
		fmt.Printf("- %s  %s%s\n", conv.ID, participantNames(conv, clientCfg.UserID), unreadMark)
		if conv.LatestMessage != nil {
			fmt.Printf("    %s: %s\n", displayName(conv.LatestMessage.Sender), conv.LatestMessage.Body)
		}
		if verbose {
			fmt.Printf("    updated %s\n", conv.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
	}
	return nil
}

func runChatsCreate(cmd *cobra.Command, args []string) error {
	if err := requireLogin(); err != nil {
		return err
	}
	if len(chatsCreateWith) == 0 {
		return fmt.Errorf("at least one --with user id is required")
	}
	ctx := context.Background()

	participants := append([]string{clientCfg.UserID}, chatsCreateWith...)
	id, err := gqlClient.CreateConversation(ctx, participants)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}

	fmt.Printf("Created conversation %s\n", id)
	return nil
}

func runChatsRead(cmd *cobra.Command, args []string) error {
	if err := requireLogin(); err != nil {
		return err
	}
	conversationID := args[0]
	ctx := context.Background()

	messages, err := gqlClient.Messages(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	if err := gqlClient.MarkConversationAsRead(ctx, clientCfg.UserID, conversationID); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to mark as read: %v\n", err)
	}

	if len(messages) == 0 {
		fmt.Println("No messages yet.")
		return nil
	}

	if chatsReadLimit > 0 && len(messages) > chatsReadLimit {
		messages = messages[:chatsReadLimit]
	}

	// Messages arrive newest first, print oldest first.
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		fmt.Printf("[%s] %s: %s\n",
			msg.CreatedAt.Local().Format("15:04"),
			displayName(msg.Sender),
			msg.Body)
	}
	return nil
}

func runChatsDelete(cmd *cobra.Command, args []string) error {
	if err := requireLogin(); err != nil {
		return err
	}
	conversationID := args[0]
	ctx := context.Background()

	if !chatsDelForce {
		fmt.Printf("About to delete conversation %s and all of its messages.\n", conversationID)
		fmt.Print("\nContinue? [y/N]: ")

		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := gqlClient.DeleteConversation(ctx, conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}

	fmt.Printf("Deleted: %s\n", conversationID)
	return nil
}

func hasSeen(conv client.Conversation, userID string) bool {
	for _, p := range conv.Participants {
		if p.User.ID == userID {
			return p.HasSeenLatestMessage
		}
	}
	return true
}

// participantNames lists the other participants of a conversation.
func participantNames(conv client.Conversation, selfID string) string {
	var names []string
	for _, p := range conv.Participants {
		if p.User.ID == selfID {
			continue
		}
		names = append(names, displayName(p.User))
	}
	if len(names) == 0 {
		return "(just you)"
	}
	return strings.Join(names, ", ")
}

func displayName(u client.User) string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return u.ID
}
