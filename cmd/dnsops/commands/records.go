package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/dnsops/internal/config"
	"github.com/systmms/dnsops/pkg/provider"
)

func NewRecordsCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Manage DNS records within a zone",
	}
	cmd.AddCommand(
		newRecordsListCommand(cfg),
		newRecordsCreateCommand(cfg),
		newRecordsUpdateCommand(cfg),
		newRecordsDeleteCommand(cfg),
	)
	return cmd
}

type recordFlags struct {
	accountID  string
	domainID   string
	recordType string
	name       string
	value      string
	ttl        int64
	priority   int64
	proxied    bool
}

func (f *recordFlags) register(cmd *cobra.Command, mutating bool) {
	cmd.Flags().StringVar(&f.accountID, "account", "", "Account id")
	cmd.Flags().StringVar(&f.domainID, "domain", "", "Domain/zone id")
	cmd.MarkFlagRequired("account")
	cmd.MarkFlagRequired("domain")
	if mutating {
		cmd.Flags().StringVar(&f.recordType, "type", "", "Record type (A, AAAA, CNAME, TXT, MX, ...)")
		cmd.Flags().StringVar(&f.name, "name", "", "Record name")
		cmd.Flags().StringVar(&f.value, "value", "", "Record value")
		cmd.Flags().Int64Var(&f.ttl, "ttl", 600, "TTL in seconds")
		cmd.Flags().Int64Var(&f.priority, "priority", -1, "MX/SRV priority")
		cmd.Flags().BoolVar(&f.proxied, "proxied", false, "Proxy through the vendor edge (Cloudflare only)")
		cmd.MarkFlagRequired("type")
		cmd.MarkFlagRequired("name")
		cmd.MarkFlagRequired("value")
	}
}

func (f *recordFlags) priorityPtr() *int64 {
	if f.priority < 0 {
		return nil
	}
	p := f.priority
	return &p
}

func (f *recordFlags) proxiedPtr(cmd *cobra.Command) *bool {
	if !cmd.Flags().Changed("proxied") {
		return nil
	}
	p := f.proxied
	return &p
}

func newRecordsListCommand(cfg *config.Config) *cobra.Command {
	var f recordFlags
	var keyword, recordType string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records in a zone",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, cleanup, err := buildOrchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := o.Provider(f.accountID)
			if err != nil {
				return err
			}
			resp, err := p.ListRecords(cmd.Context(), f.domainID, provider.RecordQuery{
				Keyword: keyword,
				Type:    provider.RecordType(recordType),
			})
			if err != nil {
				return err
			}

			w := newTabWriter()
			fmt.Fprintln(w, "ID\tTYPE\tNAME\tVALUE\tTTL")
			for _, r := range resp.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", r.ID, r.Type, r.Name, r.Value, r.TTL)
			}
			return w.Flush()
		},
	}
	f.register(cmd, false)
	cmd.Flags().StringVar(&keyword, "keyword", "", "Filter by name substring")
	cmd.Flags().StringVar(&recordType, "type", "", "Filter by record type")
	return cmd
}

func newRecordsCreateCommand(cfg *config.Config) *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a record",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, cleanup, err := buildOrchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := o.Provider(f.accountID)
			if err != nil {
				return err
			}
			record, err := p.CreateRecord(cmd.Context(), provider.CreateRecordRequest{
				DomainID: f.domainID,
				Type:     provider.RecordType(f.recordType),
				Name:     f.name,
				Value:    f.value,
				TTL:      f.ttl,
				Priority: f.priorityPtr(),
				Proxied:  f.proxiedPtr(cmd),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Record %s created (id %s)\n", record.Name, record.ID)
			return nil
		},
	}
	f.register(cmd, true)
	return cmd
}

func newRecordsUpdateCommand(cfg *config.Config) *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "update <record-id>",
		Short: "Replace a record's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, cleanup, err := buildOrchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := o.Provider(f.accountID)
			if err != nil {
				return err
			}
			record, err := p.UpdateRecord(cmd.Context(), args[0], provider.UpdateRecordRequest{
				DomainID: f.domainID,
				Type:     provider.RecordType(f.recordType),
				Name:     f.name,
				Value:    f.value,
				TTL:      f.ttl,
				Priority: f.priorityPtr(),
				Proxied:  f.proxiedPtr(cmd),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Record %s updated\n", record.ID)
			return nil
		},
	}
	f.register(cmd, true)
	return cmd
}

func newRecordsDeleteCommand(cfg *config.Config) *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "delete <record-id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, cleanup, err := buildOrchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := o.Provider(f.accountID)
			if err != nil {
				return err
			}
			if err := p.DeleteRecord(cmd.Context(), args[0], f.domainID); err != nil {
				return err
			}
			fmt.Println("Record deleted")
			return nil
		},
	}
	f.register(cmd, false)
	return cmd
}
