package commands

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/systmms/keyring/internal/config"
	kerrors "github.com/systmms/keyring/internal/errors"
	"github.com/systmms/keyring/pkg/credential"
	"github.com/systmms/keyring/pkg/keyring"
	"github.com/systmms/keyring/pkg/keystore/awssm"
	"github.com/systmms/keyring/pkg/keystore/instrumented"
	"github.com/systmms/keyring/pkg/keystore/mock"
	"github.com/systmms/keyring/pkg/keystore/native"
	"github.com/systmms/keyring/pkg/keystore/sqlstore"
)

// Store names accepted by --store and the config file.
const (
	storeMock     = "mock"
	storeNative   = "native"
	storeKeyutils = "keyutils"
	storeAWS      = "awssm"
	storeSQL      = "sql"
)

// sharedMock lets every command in one process see the same mock store.
var sharedMock = sync.OnceValue(mock.NewBuilder)

// store is an opened credential store for the duration of one command
type store struct {
	name     string
	builder  credential.Builder
	registry *prometheus.Registry
	metrics  string
	closers  []func() error
}

// openStore builds the store selected by cfg, instrumented with a private
// Prometheus registry.
func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	name := cfg.StoreName()
	s := &store{
		name:     name,
		registry: prometheus.NewRegistry(),
		metrics:  cfg.MetricsPath(),
	}

	var (
		inner credential.Builder
		err   error
	)
	switch name {
	case "":
		s.name = keyring.PlatformStore()
		inner = keyring.DefaultCredentialBuilder()
	case storeMock:
		inner = sharedMock()
	case storeNative:
		inner = native.NewBuilder()
	case storeKeyutils:
		inner, err = keyutilsBuilder(cfg.Definition)
	case storeAWS:
		inner, err = awsBuilder(ctx, cfg.Definition)
	case storeSQL:
		inner, err = s.sqlBuilder(ctx, cfg.Definition)
	default:
		return nil, kerrors.ConfigError{
			Field:      "store",
			Value:      name,
			Message:    "unknown store",
			Suggestion: "Run 'keyring stores' to see the available stores",
		}
	}
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	if h, ok := inner.(interface{ Headless() bool }); ok && h.Headless() && cfg.Logger != nil {
		cfg.Logger.Warn("No desktop session detected; the %s store may be unreachable", s.name)
	}
	if cfg.Logger != nil {
		cfg.Logger.Debug("Using %s store (%s)", s.name, credential.PersistenceOf(inner))
	}

	s.builder = instrumented.Wrap(inner, s.name, instrumented.NewMetrics(s.registry))
	return s, nil
}

// entry creates the entry for the identity given on the command line
func (s *store) entry(id identity) (*keyring.Entry, error) {
	r := keyring.NewRegistry(keyring.DefaultCredentialBuilder)
	r.SetDefault(s.builder)

	var (
		entry *keyring.Entry
		err   error
	)
	if id.hasTarget {
		entry, err = r.NewEntryWithTarget(id.target, id.service, id.user)
	} else {
		entry, err = r.NewEntry(id.service, id.user)
	}
	if err != nil {
		return nil, kerrors.StoreError(s.name, "build", err)
	}
	return entry, nil
}

// Close writes the metrics file, if configured, and releases the store.
func (s *store) Close() error {
	var firstErr error
	if s.metrics != "" {
		if err := prometheus.WriteToTextfile(s.metrics, s.registry); err != nil {
			firstErr = kerrors.UserError{
				Message:    "Failed to write metrics file",
				Details:    err.Error(),
				Suggestion: "Check that the directory of --metrics-file exists and is writable",
				Err:        err,
			}
		}
	}
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func awsBuilder(ctx context.Context, def *config.Definition) (credential.Builder, error) {
	var opts []awssm.Option
	if def != nil && def.AWS != nil {
		aws := def.AWS
		if aws.Region != "" {
			opts = append(opts, awssm.WithRegion(aws.Region))
		}
		if aws.Endpoint != "" {
			opts = append(opts, awssm.WithEndpoint(aws.Endpoint))
		}
		if aws.Prefix != "" {
			opts = append(opts, awssm.WithPrefix(aws.Prefix))
		}
		if aws.KMSKeyID != "" {
			opts = append(opts, awssm.WithKMSKeyID(aws.KMSKeyID))
		}
		opts = append(opts, awssm.WithTimeout(config.Timeout(aws.TimeoutMs, awssm.DefaultTimeout)))
	}

	b, err := awssm.NewBuilder(ctx, opts...)
	if err != nil {
		return nil, kerrors.UserError{
			Message:    "Failed to configure AWS Secrets Manager",
			Details:    err.Error(),
			Suggestion: "Configure AWS credentials: 'aws configure' or set AWS_PROFILE, and set aws.region in keyring.yaml",
			Err:        err,
		}
	}
	return b, nil
}

func (s *store) sqlBuilder(ctx context.Context, def *config.Definition) (credential.Builder, error) {
	if def == nil || def.SQL == nil {
		return nil, kerrors.ConfigError{
			Field:      "sql",
			Message:    "the sql store needs a sql section",
			Suggestion: "Add sql.type and connection settings to keyring.yaml",
		}
	}
	sc := def.SQL

	conn := sqlstore.ConnectionConfig{
		Type:     sc.Type,
		Host:     sc.Host,
		Port:     sc.Port,
		Database: sc.Database,
		Username: sc.Username,
		SSLMode:  sc.SSLMode,
	}
	if sc.PasswordEnv != "" {
		conn.Password = os.Getenv(sc.PasswordEnv)
	}
	if sc.DSNEnv != "" {
		conn.DSN = os.Getenv(sc.DSNEnv)
		if conn.DSN == "" {
			return nil, kerrors.ConfigError{
				Field:      "sql.dsn_env",
				Value:      sc.DSNEnv,
				Message:    "environment variable is empty or unset",
				Suggestion: fmt.Sprintf("export %s=<connection string>", sc.DSNEnv),
			}
		}
	}
	if err := conn.Validate(); err != nil {
		return nil, kerrors.ConfigError{
			Field:      "sql",
			Message:    err.Error(),
			Suggestion: "Set sql.host, sql.database and sql.username, or sql.dsn_env",
		}
	}

	timeout := config.Timeout(sc.TimeoutMs, sqlstore.DefaultTimeout)
	db, dialect, err := sqlstore.Open(ctx, conn, timeout)
	if err != nil {
		return nil, kerrors.StoreError(storeSQL, "connect", credential.NoStorageAccess(err))
	}
	s.closers = append(s.closers, db.Close)

	var opts []sqlstore.Option
	if sc.Table != "" {
		opts = append(opts, sqlstore.WithTable(sc.Table))
	}
	opts = append(opts, sqlstore.WithTimeout(timeout))

	b, err := sqlstore.NewBuilder(db, dialect, opts...)
	if err != nil {
		return nil, kerrors.ConfigError{Field: "sql.table", Value: sc.Table, Message: err.Error()}
	}
	if sc.CreateTable {
		if err := b.EnsureSchema(ctx); err != nil {
			return nil, kerrors.StoreError(storeSQL, "create table", err)
		}
	}
	return b, nil
}

// commandContext bounds store setup so a hung endpoint cannot block forever.
func commandContext(cmd interface{ Context() context.Context }) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 2*time.Minute)
}
