package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/keyring/internal/config"
	kerrors "github.com/systmms/keyring/internal/errors"
)

// identity is the (target, service, user) triple given on the command line
type identity struct {
	service   string
	user      string
	target    string
	hasTarget bool
}

func (id identity) String() string {
	if id.hasTarget {
		return id.user + "@" + id.service + " (target " + id.target + ")"
	}
	return id.user + "@" + id.service
}

// addIdentityFlags registers --service, --user and --target on cmd
func addIdentityFlags(cmd *cobra.Command, id *identity) {
	cmd.Flags().StringVar(&id.service, "service", "", "Service name (defaults to 'service' in the config file)")
	cmd.Flags().StringVar(&id.user, "user", "", "User name (required)")
	cmd.Flags().StringVar(&id.target, "target", "", "Target, for stores that distinguish entries by it")
	_ = cmd.MarkFlagRequired("user")
}

// resolveIdentity fills in config defaults and validates the flags
func resolveIdentity(cmd *cobra.Command, cfg *config.Config, id identity) (identity, error) {
	def := cfg.Definition
	if id.service == "" && def != nil {
		id.service = def.Service
	}
	if id.service == "" {
		return id, kerrors.UserError{
			Message:    "Service name is required",
			Suggestion: "Use --service <name> or set 'service' in keyring.yaml",
		}
	}

	id.hasTarget = cmd.Flags().Changed("target")
	if !id.hasTarget && def != nil && def.Target != "" {
		id.target = def.Target
		id.hasTarget = true
	}
	return id, nil
}
