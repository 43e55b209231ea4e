package cli

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dingrelay/dingrelay/internal/dingtalk"
	"github.com/dingrelay/dingrelay/internal/domain"
	"github.com/dingrelay/dingrelay/internal/relay"
)

func newSendCmd() *cobra.Command {
	var (
		robotID        string
		conversationID string
		markdown       bool
	)

	cmd := &cobra.Command{
		Use:   "send [message]",
		Short: "Send a message to a conversation using stored credentials",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := strings.Join(args, " ")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			creds, closeStore, err := openCredentialStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			rl := relay.New(creds, dingtalk.NewClient(log), relay.Options{
				Keyword:  cfg.Relay.Keyword,
				Markdown: cfg.Relay.Markdown,
			}, log)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			conv := domain.ConversationRef{ID: conversationID, Kind: domain.ConversationGroup}
			msg := domain.Message{
				Body:         body,
				From:         domain.SenderIdentity{ID: robotID},
				To:           domain.RobotIdentity{Conversation: conv},
				Conversation: conv,
				Markdown:     markdown,
			}
			return rl.Send(ctx, msg)
		},
	}

	cmd.Flags().StringVar(&robotID, "robot", "", "robot id the credentials are stored under")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "target conversation id")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "send as markdown")
	cmd.MarkFlagRequired("robot")
	cmd.MarkFlagRequired("conversation")

	return cmd
}
