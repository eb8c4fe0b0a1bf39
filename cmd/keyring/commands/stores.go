package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/keyring/internal/config"
	"github.com/systmms/keyring/pkg/credential"
	"github.com/systmms/keyring/pkg/keyring"
	"github.com/systmms/keyring/pkg/keystore/awssm"
	"github.com/systmms/keyring/pkg/keystore/mock"
	"github.com/systmms/keyring/pkg/keystore/native"
	"github.com/systmms/keyring/pkg/keystore/sqlstore"
)

type storeInfo struct {
	name        string
	description string
	persistence credential.Persistence
	available   bool
}

func knownStores() []storeInfo {
	return []storeInfo{
		{storeMock, "In-memory store for tests", credential.PersistenceOf(mock.NewBuilder()), true},
		{storeNative, "macOS Keychain, Windows Credential Manager, Secret Service", credential.PersistenceOf(native.NewBuilder()), true},
		{storeKeyutils, "Linux kernel keyring", credential.UntilReboot, keyutilsAvailable},
		{storeAWS, "AWS Secrets Manager", credential.PersistenceOf(&awssm.Builder{}), true},
		{storeSQL, "PostgreSQL or MySQL table", credential.PersistenceOf(&sqlstore.Builder{}), true},
	}
}

func NewStoresCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "stores",
		Short: "List available credential stores",
		Long: `Display the credential stores this binary supports and how long each keeps
values. The platform default is used when neither --store nor 'store' in the
config file selects one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// A broken config file should not hide the list.
			if err := cfg.Load(); err != nil {
				cfg.Logger.Warn("Ignoring configuration: %v", err)
			}
			selected := cfg.StoreName()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "STORE\tPERSISTENCE\tSTATUS\tDESCRIPTION\n")
			_, _ = fmt.Fprintf(w, "-----\t-----------\t------\t-----------\n")
			for _, info := range knownStores() {
				status := "available"
				if !info.available {
					status = "unavailable"
				}
				if info.name == keyring.PlatformStore() {
					status += ", default"
				}
				if info.name == selected {
					status += ", selected"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.name, info.persistence, status, info.description)
			}
			return w.Flush()
		},
	}
}
