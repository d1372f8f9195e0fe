package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/dnsops/internal/config"
	"github.com/systmms/dnsops/pkg/provider"
)

func NewProvidersCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported DNS providers and their credential fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := newTabWriter()
			fmt.Fprintln(w, "TYPE\tLABEL\tCREDENTIAL FIELDS")
			for _, m := range provider.AllMetadata() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.Type, m.Label, fieldSummary(m))
			}
			return w.Flush()
		},
	}
}

func fieldSummary(m provider.Metadata) string {
	summary := ""
	for i, f := range m.Fields {
		if i > 0 {
			summary += ", "
		}
		summary += f.Key
		if f.Secret {
			summary += " (secret)"
		}
	}
	return summary
}
