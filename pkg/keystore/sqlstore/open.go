package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// ConnectionConfig describes how to reach the database.
type ConnectionConfig struct {
	Type     string
	Host     string
	Port     string
	Database string
	Username string
	Password string
	// SSLMode applies to PostgreSQL only; it defaults to "require".
	SSLMode string
	// DSN, when set, is used as is and the fields above except Type are
	// ignored.
	DSN string
}

// Validate checks that the configuration is complete
func (c ConnectionConfig) Validate() error {
	if _, err := ParseDialect(c.Type); err != nil {
		return err
	}
	if c.DSN != "" {
		return nil
	}

	required := []struct{ field, value string }{
		{"host", c.Host},
		{"port", c.Port},
		{"database", c.Database},
		{"username", c.Username},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("required connection field '%s' is missing", r.field)
		}
	}
	return nil
}

// ConnectionString returns the driver-specific data source name.
func (c ConnectionConfig) ConnectionString() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if c.DSN != "" {
		return c.DSN, nil
	}

	d, _ := ParseDialect(c.Type)
	switch d.name {
	case Postgres.name:
		return c.postgresConnString(), nil
	default:
		return c.mysqlConnString(), nil
	}
}

func (c ConnectionConfig) postgresConnString() string {
	parts := []string{
		fmt.Sprintf("host=%s", c.Host),
		fmt.Sprintf("port=%s", c.Port),
		fmt.Sprintf("dbname=%s", c.Database),
		fmt.Sprintf("user=%s", c.Username),
	}

	if c.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", c.Password))
	}

	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "require"
	}
	parts = append(parts, fmt.Sprintf("sslmode=%s", sslmode))

	return strings.Join(parts, " ")
}

func (c ConnectionConfig) mysqlConnString() string {
	// MySQL DSN format: username:password@tcp(host:port)/database
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Open connects to the database described by cfg and checks that it is
// reachable within timeout.
func Open(ctx context.Context, cfg ConnectionConfig, timeout time.Duration) (*sql.DB, Dialect, error) {
	connStr, err := cfg.ConnectionString()
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("failed to build connection string: %w", err)
	}
	d, _ := ParseDialect(cfg.Type)

	db, err := sql.Open(d.driver, connStr)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("failed to open database connection: %w", err)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(ctxWithTimeout); err != nil {
		_ = db.Close()
		return nil, Dialect{}, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, d, nil
}
