// Package sqlstore stores credentials as rows of a SQL table.
//
// It is a client-provided store, never chosen by default. The table has the
// columns (target, service, username, secret) and deliberately no unique
// constraint: rows written by other programs may collide, and a lookup that
// matches more than one row fails with *credential.AmbiguousError instead of
// picking one. An identity without a target matches rows whose target is
// NULL.
//
// PostgreSQL and MySQL/MariaDB are supported; importing the package
// registers both drivers.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/systmms/keyring/pkg/credential"
)

// DefaultTable is the table used unless WithTable says otherwise.
const DefaultTable = "keyring_credentials"

// DefaultTimeout bounds each operation.
const DefaultTimeout = 30 * time.Second

// MaxFieldLen is the length of the target, service and username columns.
const MaxFieldLen = 255

var validTable = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Option configures a Builder.
type Option func(*Builder)

// WithTable stores rows in table.
func WithTable(table string) Option {
	return func(b *Builder) {
		b.table = table
	}
}

// WithTimeout bounds each operation. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(b *Builder) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// Builder creates credentials stored in one table of db.
type Builder struct {
	db      *sql.DB
	dialect Dialect
	table   string
	timeout time.Duration
}

// NewBuilder returns a builder using db, which the caller keeps ownership of.
func NewBuilder(db *sql.DB, dialect Dialect, opts ...Option) (*Builder, error) {
	if db == nil {
		return nil, errors.New("sqlstore: nil database")
	}
	if dialect.driver == "" {
		return nil, errors.New("sqlstore: dialect is required")
	}

	b := &Builder{
		db:      db,
		dialect: dialect,
		table:   DefaultTable,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}

	if !validTable.MatchString(b.table) {
		return nil, fmt.Errorf("sqlstore: invalid table name %q", b.table)
	}
	return b, nil
}

// EnsureSchema creates the table if it does not exist.
func (b *Builder) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	target VARCHAR(%d) NULL,
	service VARCHAR(%d) NOT NULL,
	username VARCHAR(%d) NOT NULL,
	secret %s NOT NULL
)`, b.table, MaxFieldLen, MaxFieldLen, MaxFieldLen, b.dialect.blobType)

	if _, err := b.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", b.table, classify(err))
	}
	return nil
}

// Build checks id against the column sizes.
func (b *Builder) Build(id credential.Identity) (credential.Credential, error) {
	if len(id.Service()) > MaxFieldLen {
		return nil, credential.TooLong("service", MaxFieldLen)
	}
	if len(id.User()) > MaxFieldLen {
		return nil, credential.TooLong("user", MaxFieldLen)
	}
	if target, ok := id.Target(); ok && len(target) > MaxFieldLen {
		return nil, credential.TooLong("target", MaxFieldLen)
	}

	return &Credential{id: id, store: b}, nil
}

// Persistence reports that rows survive until deleted.
func (b *Builder) Persistence() credential.Persistence {
	return credential.UntilDelete
}

// Credential is the set of rows matching one identity.
type Credential struct {
	id    credential.Identity
	store *Builder
}

// Identity returns the identity the credential was built for.
func (c *Credential) Identity() credential.Identity { return c.id }

// where returns the row filter for the identity and its arguments, numbering
// placeholders from start.
func (c *Credential) where(start int) (string, []any) {
	d := c.store.dialect
	clause := fmt.Sprintf("service = %s AND username = %s", d.placeholder(start), d.placeholder(start+1))
	args := []any{c.id.Service(), c.id.User()}

	if target, ok := c.id.Target(); ok {
		clause += " AND target = " + d.placeholder(start+2)
		args = append(args, target)
	} else {
		clause += " AND target IS NULL"
	}
	return clause, args
}

func (c *Credential) targetArg() any {
	if target, ok := c.id.Target(); ok {
		return target
	}
	return nil
}

// count returns the number of matching rows within tx.
func (c *Credential) count(ctx context.Context, tx *sql.Tx) (int, error) {
	clause, args := c.where(1)
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", c.store.table, clause)

	var n int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// SetPassword stores password.
func (c *Credential) SetPassword(password string) error {
	return c.SetSecret([]byte(password))
}

// SetSecret updates the single matching row, or inserts one if none match.
func (c *Credential) SetSecret(secret []byte) error {
	if secret == nil {
		secret = []byte{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.store.timeout)
	defer cancel()

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	n, err := c.count(ctx, tx)
	if err != nil {
		return classify(err)
	}

	d := c.store.dialect
	switch {
	case n == 0:
		query := fmt.Sprintf("INSERT INTO %s (target, service, username, secret) VALUES (%s, %s, %s, %s)",
			c.store.table, d.placeholder(1), d.placeholder(2), d.placeholder(3), d.placeholder(4))
		_, err = tx.ExecContext(ctx, query, c.targetArg(), c.id.Service(), c.id.User(), secret)
	case n == 1:
		clause, args := c.where(2)
		query := fmt.Sprintf("UPDATE %s SET secret = %s WHERE %s", c.store.table, d.placeholder(1), clause)
		_, err = tx.ExecContext(ctx, query, append([]any{secret}, args...)...)
	default:
		return &credential.AmbiguousError{Matches: n}
	}
	if err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// GetPassword returns the stored value as a UTF-8 string.
func (c *Credential) GetPassword() (string, error) {
	secret, err := c.GetSecret()
	if err != nil {
		return "", err
	}
	return credential.DecodePassword(secret)
}

// GetSecret returns the value of the single matching row.
func (c *Credential) GetSecret() ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.store.timeout)
	defer cancel()

	clause, args := c.where(1)
	query := fmt.Sprintf("SELECT secret FROM %s WHERE %s", c.store.table, clause)

	rows, err := c.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()

	var (
		secret  []byte
		matches int
	)
	for rows.Next() {
		matches++
		if matches > 1 {
			continue
		}
		if err := rows.Scan(&secret); err != nil {
			return nil, classify(err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	switch {
	case matches == 0:
		return nil, credential.ErrNoEntry
	case matches > 1:
		return nil, &credential.AmbiguousError{Matches: matches}
	}
	if secret == nil {
		secret = []byte{}
	}
	return secret, nil
}

// DeleteCredential removes the single matching row.
func (c *Credential) DeleteCredential() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.store.timeout)
	defer cancel()

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	n, err := c.count(ctx, tx)
	if err != nil {
		return classify(err)
	}
	switch {
	case n == 0:
		return credential.ErrNoEntry
	case n > 1:
		return &credential.AmbiguousError{Matches: n}
	}

	clause, args := c.where(1)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", c.store.table, clause)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// Underlying returns c.
func (c *Credential) Underlying() any {
	return c
}

func (c *Credential) String() string {
	return fmt.Sprintf("sql credential for %s in %s", c.id, c.store.table)
}

var (
	_ credential.Builder             = (*Builder)(nil)
	_ credential.PersistenceReporter = (*Builder)(nil)
	_ credential.Credential          = (*Credential)(nil)
)

