package store

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

// Supported values for store.driver
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

const (
	mysqlDuplicateEntry   = 1062
	postgresUniqueViolate = "23505"
)

type dialect struct {
	name       string
	driverName string
	schema     []string
}

func dialectFor(driver string) (*dialect, error) {
	switch driver {
	case DriverSQLite, "sqlite3":
		return &dialect{name: DriverSQLite, driverName: "sqlite3", schema: sqliteSchema}, nil
	case DriverMySQL:
		return &dialect{name: DriverMySQL, driverName: "mysql", schema: mysqlSchema}, nil
	case DriverPostgres, "postgresql", "pgx":
		return &dialect{name: DriverPostgres, driverName: "pgx", schema: postgresSchema}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}

// prepareDSN applies driver options the store depends on
func (d *dialect) prepareDSN(dsn string) (string, error) {
	switch d.name {
	case DriverMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid MySQL DSN: %w", err)
		}
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil
	case DriverSQLite:
		if dsn == "" {
			return "file::memory:?cache=shared", nil
		}
		return dsn, nil
	default:
		return dsn, nil
	}
}

// isUniqueViolation reports whether err is a unique constraint failure for any supported driver
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == postgresUniqueViolate
	}

	return false
}
