package commands

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/keyring/internal/config"
	kerrors "github.com/systmms/keyring/internal/errors"
	"github.com/systmms/keyring/pkg/credential"
)

func NewGetCommand(cfg *config.Config) *cobra.Command {
	var (
		id     identity
		binary bool
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print a stored password or secret",
		Long: `Retrieve and print the value stored for an identity.

By default the value is printed as text. Values that are not valid UTF-8
cannot be read as passwords; their raw bytes are printed as base64 instead
and the command exits with status 5. Use --binary to always print base64.

Examples:
  # Get a password
  keyring get --service myapp --user alice

  # Get binary data
  keyring get --service myapp --user alice --binary | base64 -d > key.bin

  # Use in scripts
  export DB_PASSWORD=$(keyring get --service db --user app)`,
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

			out := cmd.OutOrStdout()
			if binary {
				secret, err := entry.GetSecret()
				if err != nil {
					return kerrors.StoreError(s.name, "get", err)
				}
				_, _ = fmt.Fprintln(out, base64.StdEncoding.EncodeToString(secret))
				return nil
			}

			password, err := entry.GetPassword()
			if err != nil {
				var bad *credential.BadEncodingError
				if errors.As(err, &bad) {
					cfg.Logger.Warn("Stored value is not UTF-8 text; printing it as base64")
					_, _ = fmt.Fprintln(out, base64.StdEncoding.EncodeToString(bad.Bytes))
				}
				return kerrors.StoreError(s.name, "get", err)
			}
			_, _ = fmt.Fprintln(out, password)
			return nil
		},
	}

	addIdentityFlags(cmd, &id)
	cmd.Flags().BoolVar(&binary, "binary", false, "Print the raw secret as standard base64")

	return cmd
}
