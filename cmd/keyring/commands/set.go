package commands

import (
	"bufio"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/systmms/keyring/internal/config"
	kerrors "github.com/systmms/keyring/internal/errors"
	"github.com/systmms/keyring/internal/logging"
)

func NewSetCommand(cfg *config.Config) *cobra.Command {
	var (
		id       identity
		password string
		secret   string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a password or secret",
		Long: `Store a password or raw secret for an identity, replacing any existing value.

The value comes from --password, from --secret as standard base64 for binary
data, or from the first line of standard input when neither flag is given.

Examples:
  # Store a password read from stdin
  printf 'hunter2' | keyring set --service myapp --user alice

  # Store binary data
  keyring set --service myapp --user alice --secret "$(head -c 32 /dev/urandom | base64)"

  # Use a target with the SQL store
  keyring --store sql set --target prod --service myapp --user alice --password s3cret`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if cmd.Flags().Changed("password") && cmd.Flags().Changed("secret") {
				return kerrors.UserError{
					Message:    "--password and --secret cannot be used together",
					Suggestion: "Use --password for text and --secret for base64-encoded binary data",
				}
			}

			if err := cfg.Load(); err != nil {
				return err
			}
			id, err := resolveIdentity(cmd, cfg, id)
			if err != nil {
				return err
			}

			var value []byte
			switch {
			case cmd.Flags().Changed("secret"):
				value, err = base64.StdEncoding.DecodeString(secret)
				if err != nil {
					return kerrors.SimplifyError(err)
				}
			case cmd.Flags().Changed("password"):
				value = []byte(password)
			default:
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return kerrors.UserError{
						Message:    "Failed to read the password from standard input",
						Suggestion: "Pipe the value in or pass --password",
						Err:        err,
					}
				}
				value = []byte(line)
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

			cfg.Logger.Debug("Storing %s for %s", logging.SecretBytes(value), id)
			if cmd.Flags().Changed("secret") {
				err = entry.SetSecret(value)
			} else {
				err = entry.SetPassword(string(value))
			}
			if err != nil {
				return kerrors.StoreError(s.name, "set", err)
			}

			cfg.Logger.Info("Stored credential for %s in %s store", id, s.name)
			return nil
		},
	}

	addIdentityFlags(cmd, &id)
	cmd.Flags().StringVar(&password, "password", "", "Password text (read from stdin when omitted)")
	cmd.Flags().StringVar(&secret, "secret", "", "Raw secret as standard base64")

	return cmd
}

// readLine returns the first line of r without its line ending
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if errors.Is(err, io.EOF) && line == "" {
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimRight(line, "\r\n"), nil
}
