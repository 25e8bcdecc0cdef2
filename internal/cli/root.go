package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/freightdesk/console/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "freightdesk",
	Short: "Freightdesk - Operator tools for the freight marketplace",
	Long: `Freightdesk CLI - Check admin access and report transporter locations.

Backends are configured per project in freightdesk.json. Run
'freightdesk init <backend-url>' to create one.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("freightdesk version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectEnvCmd())
	rootCmd.AddCommand(commands.NewCheckLoginCmd())
	rootCmd.AddCommand(commands.NewTrackCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
