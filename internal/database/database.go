// Package database turns configuration into an open, verified *sql.DB for
// one of the supported drivers.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/tokenexpiry/internal/common"
	"github.com/dmitrijs2005/tokenexpiry/internal/config"
	"github.com/dmitrijs2005/tokenexpiry/internal/dbx"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const connectTimeout = 10 * time.Second

// DSN returns the driver DSN for cfg. DatabaseDSN wins over the discrete
// fields when set.
func DSN(cfg *config.Config) (string, error) {
	dialect, err := dbx.DialectFor(cfg.Driver)
	if err != nil {
		return "", err
	}
	if cfg.DatabaseDSN != "" {
		return cfg.DatabaseDSN, nil
	}

	switch dialect.Name {
	case dbx.DriverMySQL:
		return mysqlDSN(cfg), nil
	case dbx.DriverPostgres:
		return postgresDSN(cfg), nil
	default:
		return cfg.DBName, nil
	}
}

func mysqlDSN(cfg *config.Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, strconv.FormatUint(uint64(cfg.Port()), 10))
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.AllowNativePasswords = true
	mc.Timeout = connectTimeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

func postgresDSN(cfg *config.Config) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.DBHost, strconv.FormatUint(uint64(cfg.Port()), 10)),
		Path:   "/" + cfg.DBName,
	}
	if cfg.DBPassword != "" {
		u.User = url.UserPassword(cfg.DBUser, cfg.DBPassword)
	} else if cfg.DBUser != "" {
		u.User = url.User(cfg.DBUser)
	}
	q := u.Query()
	q.Set("connect_timeout", strconv.Itoa(int(connectTimeout/time.Second)))
	u.RawQuery = q.Encode()
	return u.String()
}

// Open connects to the configured store and verifies the connection. Any
// failure before the first query is reported as *common.ConnectionError.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, dbx.Dialect, error) {
	dialect, err := dbx.DialectFor(cfg.Driver)
	if err != nil {
		return nil, dbx.Dialect{}, err
	}

	dsn, err := DSN(cfg)
	if err != nil {
		return nil, dbx.Dialect{}, err
	}

	connErr := func(err error) error {
		return &common.ConnectionError{Driver: dialect.Name, Addr: cfg.Addr(), Err: err}
	}

	var db *sql.DB
	switch dialect.Name {
	case dbx.DriverPostgres:
		pc, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, dbx.Dialect{}, connErr(fmt.Errorf("parse dsn: %w", err))
		}
		db = stdlib.OpenDB(*pc)
	default:
		db, err = sql.Open(dialect.DriverName, dsn)
		if err != nil {
			return nil, dbx.Dialect{}, connErr(err)
		}
	}

	// One run is a strictly sequential conversation with the store.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, dbx.Dialect{}, connErr(err)
	}

	return db, dialect, nil
}
