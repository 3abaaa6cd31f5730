package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pders01/newsagent/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "newsagent",
	Short: "News feed aggregator with keyword and time-window filtering",
	Long: `newsagent pulls many RSS/Atom feeds at once, keeps the entries that fall
inside a time window and match a parent keyword plus optional child keywords,
and prints, exports, serves or browses the result.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), tui.Banner(Version))
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error or off (overrides config)")

	rootCmd.AddCommand(searchCmd, browseCmd, serveCmd, groupsCmd, cacheCmd, configCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
