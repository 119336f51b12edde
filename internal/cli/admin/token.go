package admin

import (
	"fmt"

	"github.com/escience/sitebot/internal/service"
	"github.com/spf13/cobra"
)

func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage admin session tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Generate a new admin token",
		Long:  "Print a new random admin token. Add it to SITEBOT_ADMIN_TOKENS to activate it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := service.GenerateAdminToken()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	})

	return cmd
}
