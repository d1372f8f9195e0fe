package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/dnsops/cmd/dnsops/commands"
	"github.com/systmms/dnsops/internal/config"
	"github.com/systmms/dnsops/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	cfg := &config.Config{}
	commands.AppVersion = version

	rootCmd := &cobra.Command{
		Use:   "dnsops",
		Short: "Multi-vendor DNS account and record management",
		Long: `dnsops manages DNS accounts across Aliyun, DNSPod, Huawei Cloud and
Cloudflare: zones, records, encrypted credential storage, and
password-protected backup and restore.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "dnsops.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewAccountsCommand(cfg),
		commands.NewDomainsCommand(cfg),
		commands.NewRecordsCommand(cfg),
		commands.NewExportCommand(cfg),
		commands.NewImportCommand(cfg),
		commands.NewProvidersCommand(cfg),
	)

	return rootCmd.Execute()
}
