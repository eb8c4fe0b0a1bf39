package stores_test

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/keyring/cmd/keyring/commands"
	"github.com/systmms/keyring/internal/config"
	"github.com/systmms/keyring/internal/logging"
	"github.com/systmms/keyring/pkg/credential"
	"github.com/systmms/keyring/pkg/keyring"
	"github.com/systmms/keyring/pkg/keyring/keyringtest"
	"github.com/systmms/keyring/pkg/keystore/awssm"
	"github.com/systmms/keyring/pkg/keystore/sqlstore"
	"github.com/systmms/keyring/tests/testutil"
)

func newEntry(t *testing.T, b credential.Builder, id credential.Identity) *keyring.Entry {
	t.Helper()

	c, err := b.Build(id)
	require.NoError(t, err)
	return keyring.NewEntryWithCredential(c)
}

func sqlContract(t *testing.T, dialect sqlstore.Dialect, dsn string) {
	t.Helper()

	db, err := sql.Open(dialect.Driver(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	b, err := sqlstore.NewBuilder(db, dialect)
	require.NoError(t, err)
	require.NoError(t, b.EnsureSchema(context.Background()))

	keyringtest.Run(t, keyringtest.Suite{
		NewEntry: func(t *testing.T, service, user string) *keyring.Entry {
			return newEntry(t, b, credential.NewIdentity(service, user))
		},
	})

	t.Run("ambiguous_rows", func(t *testing.T) {
		service := keyringtest.RandomName()
		insert := "INSERT INTO keyring_credentials (target, service, username, secret) VALUES (NULL, ?, ?, ?)"
		if dialect.Name() == sqlstore.Postgres.Name() {
			insert = "INSERT INTO keyring_credentials (target, service, username, secret) VALUES (NULL, $1, $2, $3)"
		}
		for i := 0; i < 2; i++ {
			_, err := db.Exec(insert, service, "dup", []byte("x"))
			require.NoError(t, err)
		}

		entry := newEntry(t, b, credential.NewIdentity(service, "dup"))
		_, err := entry.GetPassword()
		var ambiguous *credential.AmbiguousError
		require.ErrorAs(t, err, &ambiguous)
		assert.Equal(t, 2, ambiguous.Matches)
		assert.ErrorIs(t, entry.DeleteCredential(), credential.ErrAmbiguous)
	})

	t.Run("target_is_separate", func(t *testing.T) {
		service := keyringtest.RandomName()
		plain := newEntry(t, b, credential.NewIdentity(service, "u"))
		targeted := newEntry(t, b, credential.NewIdentityWithTarget("prod", service, "u"))

		require.NoError(t, plain.SetPassword("plain"))
		_, err := targeted.GetPassword()
		assert.ErrorIs(t, err, credential.ErrNoEntry)

		require.NoError(t, targeted.SetPassword("prod"))
		got, err := plain.GetPassword()
		require.NoError(t, err)
		assert.Equal(t, "plain", got)
	})
}

func TestPostgresStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := testutil.StartDockerEnv(t, []string{"postgres"})
	sqlContract(t, sqlstore.Postgres, env.PostgresDSN())
}

func TestMySQLStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := testutil.StartDockerEnv(t, []string{"mysql"})
	sqlContract(t, sqlstore.MySQL, env.MySQLDSN())
}

func TestSecretsManagerStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := testutil.StartDockerEnv(t, []string{"localstack"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, err := awssm.NewBuilder(ctx,
		awssm.WithRegion("us-east-1"),
		awssm.WithEndpoint(env.LocalStackEndpoint()),
		awssm.WithStaticCredentials("test", "test"),
		awssm.WithPrefix("keyring-it/"),
	)
	require.NoError(t, err)

	keyringtest.Run(t, keyringtest.Suite{
		NewEntry: func(t *testing.T, service, user string) *keyring.Entry {
			return newEntry(t, b, credential.NewIdentity(service, user))
		},
		SkipEmptyIdentity: true,
	})

	t.Run("deleted_secret_is_missing", func(t *testing.T) {
		entry := newEntry(t, b, credential.NewIdentityWithTarget("deleted-"+keyringtest.RandomName(), "svc", "u"))
		require.NoError(t, entry.SetPassword("short-lived"))
		require.NoError(t, entry.DeleteCredential())

		_, err := entry.GetPassword()
		assert.ErrorIs(t, err, credential.ErrNoEntry)
	})
}

func TestCLIWithPostgresIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := testutil.StartDockerEnv(t, []string{"postgres"})
	t.Setenv("KEYRING_IT_DSN", env.PostgresDSN())

	var logs bytes.Buffer
	cfg := &config.Config{
		Logger: logging.NewWithWriter(&logs, true, true),
		Definition: &config.Definition{
			Version: 1,
			Store:   "sql",
			Service: keyringtest.RandomName(),
			SQL: &config.SQLConfig{
				Type:        "postgres",
				DSNEnv:      "KEYRING_IT_DSN",
				Table:       "cli_credentials",
				CreateTable: true,
			},
		},
	}

	set := commands.NewSetCommand(cfg)
	set.SetArgs([]string{"--user", "alice", "--password", "from-cli"})
	require.NoError(t, set.Execute())

	var out bytes.Buffer
	get := commands.NewGetCommand(cfg)
	get.SetOut(&out)
	get.SetArgs([]string{"--user", "alice"})
	require.NoError(t, get.Execute())
	assert.Equal(t, "from-cli", strings.TrimSpace(out.String()))
	assert.Contains(t, logs.String(), "Using sql store")
}
