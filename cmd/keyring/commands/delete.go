package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/keyring/internal/config"
	kerrors "github.com/systmms/keyring/internal/errors"
)

func NewDeleteCommand(cfg *config.Config) *cobra.Command {
	var id identity

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a stored credential",
		Long: `Remove the value stored for an identity from the store.

Deleting an identity that has nothing stored fails with status 3.

Examples:
  keyring delete --service myapp --user alice
  keyring --store awssm delete --target prod/db-password --service db --user app`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := cfg.Load(); err != nil {
				return err
			}
			id, err := resolveIdentity(cmd, cfg, id)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()
			s, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			entry, err := s.entry(id)
			if err != nil {
				return err
			}
			if err := entry.DeleteCredential(); err != nil {
				return kerrors.StoreError(s.name, "delete", err)
			}

			cfg.Logger.Info("Deleted credential for %s from %s store", id, s.name)
			return nil
		},
	}

	addIdentityFlags(cmd, &id)

	return cmd
}
