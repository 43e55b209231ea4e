package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dingrelay/dingrelay/internal/config"
	"github.com/dingrelay/dingrelay/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show dingrelay status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("dingrelay %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			cfg, err := config.Load(paths.Config)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Println("Config:  not found (using defaults)")
				} else {
					fmt.Printf("Config:  error loading: %v\n", err)
				}
				return nil
			}

			signed := "disabled"
			if cfg.Server.Secret != "" {
				signed = "enabled"
			}
			fmt.Printf("Server:  host=%s port=%d path=%s signature=%s\n",
				cfg.Server.Host, cfg.Server.Port, cfg.Server.Path, signed)

			keyword := cfg.Relay.Keyword
			if keyword == "" {
				keyword = "(none)"
			}
			fmt.Printf("Relay:   keyword=%s markdown=%v\n", keyword, cfg.Relay.Markdown)
			fmt.Printf("Store:   %s\n", cfg.Credentials.Store)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
