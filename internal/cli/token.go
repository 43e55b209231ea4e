package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dingrelay/dingrelay/internal/store"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage permanent robot access tokens",
	}

	cmd.AddCommand(newTokenSetCmd())
	cmd.AddCommand(newTokenGetCmd())
	return cmd
}

func newTokenSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <robot-id> <conversation-id> <token>",
		Short: "Store a permanent access token for a robot in a conversation",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			creds, closeStore, err := openCredentialStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			key := store.CredentialKey{RobotID: args[0], ConversationID: args[1]}
			if err := creds.SetPermanentToken(key, args[2]); err != nil {
				return err
			}
			fmt.Printf("token stored for %s\n", key)
			return nil
		},
	}
}

func newTokenGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <robot-id> <conversation-id>",
		Short: "Show the stored access token for a robot in a conversation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			creds, closeStore, err := openCredentialStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			key := store.CredentialKey{RobotID: args[0], ConversationID: args[1]}
			token, ok := creds.PermanentToken(key)
			if !ok {
				return fmt.Errorf("no token stored for %s", key)
			}
			fmt.Println(token)
			return nil
		},
	}
}
