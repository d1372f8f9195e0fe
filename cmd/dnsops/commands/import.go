package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/dnsops/internal/config"
)

func NewImportCommand(cfg *config.Config) *cobra.Command {
	var (
		password string
		preview  bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import accounts from a backup file",
		Long: `Import accounts from a dnsops backup file. Each account is imported
independently; failures are reported per account and do not abort the
rest. Use --preview to inspect the file without changing anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}

			o, cleanup, err := buildOrchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if preview {
				p, err := o.PreviewImport(cmd.Context(), raw, password)
				if err != nil {
					return err
				}
				if p.Encrypted && p.AccountCount == 0 && len(p.Accounts) == 0 {
					fmt.Println("File is encrypted; supply --password to preview its contents")
					return nil
				}
				w := newTabWriter()
				fmt.Fprintln(w, "NAME\tPROVIDER\tCONFLICT")
				for _, e := range p.Accounts {
					conflict := ""
					if e.HasConflict {
						conflict = "name already in use"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Provider, conflict)
				}
				return w.Flush()
			}

			result, err := o.Import(cmd.Context(), raw, password)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d account(s)\n", result.SuccessCount)
			for _, f := range result.Failures {
				fmt.Printf("  failed: %s: %s\n", f.Name, f.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password for an encrypted backup")
	cmd.Flags().BoolVar(&preview, "preview", false, "Show what would be imported without importing")
	return cmd
}
