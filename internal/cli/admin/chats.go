package admin

import (
	"context"
	"fmt"
	"io"

	"github.com/escience/sitebot/internal/domain"
	"github.com/escience/sitebot/internal/service"
	"github.com/spf13/cobra"
)

func ChatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Inspect recorded chat exchanges",
	}

	cmd.AddCommand(ChatsListCmd())

	return cmd
}

func ChatsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent chat exchanges",
		Long:  "List the most recent chat exchanges, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			outputFormat, _ := cmd.Flags().GetString("output")

			a, err := connect(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			logs, err := a.chatLogService().ListRecent(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list chat logs: %w", err)
			}
			return printChatLogs(cmd.OutOrStdout(), logs, outputFormat)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultChatLogLimit, "Maximum number of results")

	return cmd
}

func printChatLogs(w io.Writer, logs []*domain.ChatLog, outputFormat string) error {
	if outputFormat == "json" {
		data := make([]map[string]any, len(logs))
		for i, l := range logs {
			data[i] = map[string]any{
				"id":          l.ID,
				"userMessage": l.UserMessage,
				"botResponse": l.BotResponse,
				"createdAt":   l.CreatedAt,
			}
		}
		return writeJSON(w, data)
	}

	if len(logs) == 0 {
		fmt.Fprintln(w, "No chat logs found")
		return nil
	}
	for _, l := range logs {
		fmt.Fprintf(w, "%s  user: %s\n", l.CreatedAt.Format("2006-01-02 15:04:05"), preview(l.UserMessage, 70))
		fmt.Fprintf(w, "%20s bot: %s\n", "", preview(l.BotResponse, 70))
	}
	return nil
}
