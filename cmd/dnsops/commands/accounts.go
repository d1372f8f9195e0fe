package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/systmms/dnsops/internal/config"
	"github.com/systmms/dnsops/pkg/provider"
)

func NewAccountsCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage vendor accounts",
	}
	cmd.AddCommand(
		newAccountsListCommand(cfg),
		newAccountsCreateCommand(cfg),
		newAccountsUpdateCommand(cfg),
		newAccountsDeleteCommand(cfg),
	)
	return cmd
}

func newAccountsListCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, cleanup, err := buildOrchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			all, err := o.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Println("No accounts configured")
				return nil
			}

			w := newTabWriter()
			fmt.Fprintln(w, "ID\tNAME\tPROVIDER\tSTATUS\tERROR")
			for _, a := range all {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Provider, a.Status, a.Error)
			}
			return w.Flush()
		},
	}
}

func newAccountsCreateCommand(cfg *config.Config) *cobra.Command {
	var (
		providerType string
		credentials  []string
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an account after validating its credentials",
		Long: `Create a vendor account. Credentials are validated against the live
vendor API before anything is persisted.

Credential fields are passed as repeated --cred key=value flags; run
'dnsops providers' to see each vendor's fields.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			credMap, err := parseCredentials(credentials)
			if err != nil {
				return err
			}

			o, cleanup, err := buildOrchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			account, err := o.Create(cmd.Context(), args[0], provider.ProviderType(providerType), credMap)
			if err != nil {
				return err
			}
			fmt.Printf("Account %q created (id %s)\n", account.Name, account.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&providerType, "provider", "", "Provider type (aliyun, dnspod, huaweicloud, cloudflare)")
	cmd.Flags().StringArrayVar(&credentials, "cred", nil, "Credential field as key=value (repeatable)")
	cmd.MarkFlagRequired("provider")
	return cmd
}

func newAccountsUpdateCommand(cfg *config.Config) *cobra.Command {
	var (
		newName     string
		credentials []string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename an account or replace its credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var credMap map[string]string
			if len(credentials) > 0 {
				var err error
				credMap, err = parseCredentials(credentials)
				if err != nil {
					return err
				}
			}

			o, cleanup, err := buildOrchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			account, err := o.Update(cmd.Context(), args[0], newName, credMap)
			if err != nil {
				return err
			}
			fmt.Printf("Account %q updated\n", account.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&newName, "name", "", "New account name")
	cmd.Flags().StringArrayVar(&credentials, "cred", nil, "Replacement credential field as key=value (repeatable)")
	return cmd
}

func newAccountsDeleteCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account and its stored credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, cleanup, err := buildOrchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := o.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Account deleted")
			return nil
		},
	}
}

func parseCredentials(pairs []string) (map[string]string, error) {
	credMap := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --cred value %q, expected key=value", pair)
		}
		credMap[key] = value
	}
	return credMap, nil
}
