package sqlstore

import (
	"fmt"
	"strings"
)

// Dialect captures the differences between the supported databases.
type Dialect struct {
	name     string
	driver   string
	blobType string
	numbered bool
}

var (
	// Postgres is PostgreSQL, through github.com/lib/pq.
	Postgres = Dialect{name: "postgres", driver: "postgres", blobType: "BYTEA", numbered: true}
	// MySQL is MySQL or MariaDB, through github.com/go-sql-driver/mysql.
	MySQL = Dialect{name: "mysql", driver: "mysql", blobType: "LONGBLOB"}
)

var dialects = map[string]Dialect{
	"postgresql": Postgres,
	"postgres":   Postgres,
	"mysql":      MySQL,
	"mariadb":    MySQL,
}

// ParseDialect resolves a database type name such as "postgresql" or
// "mariadb".
func ParseDialect(dbType string) (Dialect, error) {
	d, ok := dialects[strings.ToLower(dbType)]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported database type: %s", dbType)
	}
	return d, nil
}

// Name returns the canonical dialect name.
func (d Dialect) Name() string { return d.name }

// Driver returns the database/sql driver name.
func (d Dialect) Driver() string { return d.driver }

// placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) placeholder(n int) string {
	if d.numbered {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
