package dbx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/tokenexpiry/internal/common"
)

// Supported driver names as they appear in configuration.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Dialect captures what differs between the supported stores.
type Dialect struct {
	// Name is the configuration name and the migrations sub-directory.
	Name string
	// DriverName is registered with database/sql by the driver package.
	DriverName string
	// GooseDialect is passed to goose.SetDialect.
	GooseDialect string
	// NowQuery returns the server's current timestamp as a single column.
	NowQuery string

	numbered bool
}

var (
	MySQL = Dialect{
		Name:         DriverMySQL,
		DriverName:   "mysql",
		GooseDialect: "mysql",
		NowQuery:     "SELECT NOW()",
	}
	// expires_at is TIMESTAMP. LOCALTIMESTAMP comes back as the session wall
	// clock and binds back unchanged whatever the host's zone is; NOW() would
	// be decoded into time.Local and shift the cutoff.
	Postgres = Dialect{
		Name:         DriverPostgres,
		DriverName:   "pgx",
		GooseDialect: "postgres",
		NowQuery:     "SELECT LOCALTIMESTAMP",
		numbered:     true,
	}
	SQLite = Dialect{
		Name:         DriverSQLite,
		DriverName:   "sqlite",
		GooseDialect: "sqlite3",
		NowQuery:     "SELECT CURRENT_TIMESTAMP",
	}
)

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DriverMySQL:
		return MySQL, nil
	case DriverPostgres, "postgresql", "pgx":
		return Postgres, nil
	case DriverSQLite, "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("%w: %q", common.ErrUnsupportedDriver, name)
	}
}

// Rebind rewrites '?' placeholders into the dialect's bind syntax.
// Queries must not contain '?' inside string literals.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
