// Command server runs the event participation API, the decision log
// consumer and schema migrations.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Event participation service",
	Long: `Event participation service.

Organisers publish events through moderation, users request a place and
organisers confirm or reject requests within each event's participant
limit.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, consumeCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
