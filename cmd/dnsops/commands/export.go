package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/dnsops/internal/config"
)

func NewExportCommand(cfg *config.Config) *cobra.Command {
	var (
		output   string
		password string
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "export [account-id...]",
		Short: "Export accounts with their credentials to a backup file",
		Long: `Export the selected accounts, credentials included, to a JSON backup
file. With --password the payload is encrypted; without it the file
contains credentials in the clear, so handle it accordingly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, cleanup, err := buildOrchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ids := args
			if all {
				list, err := o.List(cmd.Context())
				if err != nil {
					return err
				}
				ids = ids[:0]
				for _, a := range list {
					ids = append(ids, a.ID)
				}
			}

			file, err := o.Export(cmd.Context(), ids, password)
			if err != nil {
				return err
			}

			raw, err := json.MarshalIndent(file, "", "  ")
			if err != nil {
				return err
			}

			if output == "" {
				output = o.SuggestedExportFilename()
			}
			if err := os.WriteFile(output, raw, 0o600); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			fmt.Printf("Exported to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default dnsops-backup-<timestamp>.json)")
	cmd.Flags().StringVar(&password, "password", "", "Encrypt the export with this password")
	cmd.Flags().BoolVar(&all, "all", false, "Export every account")
	return cmd
}
