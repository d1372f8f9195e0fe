package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/dnsops/internal/config"
	"github.com/systmms/dnsops/pkg/provider"
)

func NewDomainsCommand(cfg *config.Config) *cobra.Command {
	var (
		accountID string
		page      int64
		pageSize  int64
	)
	cmd := &cobra.Command{
		Use:   "domains",
		Short: "List the zones of an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, cleanup, err := buildOrchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := o.Provider(accountID)
			if err != nil {
				return err
			}
			resp, err := p.ListDomains(cmd.Context(), provider.Pagination{Page: page, PageSize: pageSize})
			if err != nil {
				return err
			}

			w := newTabWriter()
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tRECORDS")
			for _, d := range resp.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", d.ID, d.Name, d.Status, d.RecordCount)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("Page %d of %d total domain(s)\n", resp.Page, resp.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "Account id")
	cmd.Flags().Int64Var(&page, "page", 1, "Page number")
	cmd.Flags().Int64Var(&pageSize, "page-size", 100, "Page size")
	cmd.MarkFlagRequired("account")
	return cmd
}
