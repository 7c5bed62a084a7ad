package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hamed0406/livestatus/internal/config"
)

var (
	envFile    string
	origin     string
	apiBase    string
	jsonOut    bool
	notifyDown bool
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&origin, "origin", "", "override UPSTREAM_ORIGIN")
	rootCmd.PersistentFlags().StringVar(&apiBase, "api-base", "", "override API_BASE")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for probe diagnostics")

	checkCmd.Flags().BoolVar(&jsonOut, "json", false, "print the cards as JSON")
	checkCmd.Flags().BoolVar(&notifyDown, "notify", false, "post a report to SLACK_WEBHOOK_URL when a service is down")

	rootCmd.AddCommand(checkCmd, preflightCmd)
}

var rootCmd = &cobra.Command{
	Use:           "livestatus",
	Short:         "livestatus - probe the profile service and the frontend BFF",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// loadConfig reads the environment the same way the web server does, then applies flags.
func loadConfig() config.Config {
	_ = godotenv.Load(envFile)
	cfg := config.FromEnv()
	if origin != "" {
		cfg.UpstreamOrigin = origin
	}
	if apiBase != "" {
		cfg.APIBase = apiBase
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleFailed.Render("✖"), err)
		os.Exit(1)
	}
}
