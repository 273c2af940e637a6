package sqlx

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
)

type DBDriver string

const (
	DBDriverMySQL DBDriver = "mysql"
)

type DBOption interface {
	config(*dbConfig)
}

func DBUsername(username string) DBOption {
	return dbOptionFunc(func(cfg *dbConfig) { cfg.username = username })
}

func DBPassword(password string) DBOption {
	return dbOptionFunc(func(cfg *dbConfig) { cfg.password = password })
}

func DBDatabaseName(dbName string) DBOption {
	return dbOptionFunc(func(cfg *dbConfig) { cfg.dbName = dbName })
}

func DBHost(host string) DBOption {
	return dbOptionFunc(func(cfg *dbConfig) { cfg.host = host })
}

func DBPort(port int) DBOption {
	return dbOptionFunc(func(cfg *dbConfig) { cfg.port = port })
}

func DBConnectionMaxLifetime(max time.Duration) DBOption {
	return dbOptionFunc(func(cfg *dbConfig) { cfg.connMaxLifetime = max })
}

func DBRootCAPool(rootCAPool *x509.CertPool) DBOption {
	return dbOptionFunc(func(cfg *dbConfig) {
		cfg.tlsConfig = &tls.Config{
			RootCAs:    rootCAPool,
			MinVersion: tls.VersionTLS12,
		}
	})
}

type dbOptionFunc func(*dbConfig)

func (f dbOptionFunc) config(cfg *dbConfig) { f(cfg) }

type dbConfig struct {
	username string
	password string
	dbName   string
	host     string
	port     int

	tlsConfig *tls.Config

	connMaxLifetime time.Duration
}

// DB wraps a sql.DB with its driver identity so that migrations and
// query code can branch on dialect.
type DB struct {
	Conn *sql.DB

	driver DBDriver
}

func Connect(driver DBDriver, options ...DBOption) (*DB, error) {
	cfg := &dbConfig{}

	for _, opt := range options {
		opt.config(cfg)
	}

	db, err := open(driver, cfg)
	if err != nil {
		return nil, err
	}

	db.Conn.SetConnMaxLifetime(cfg.connMaxLifetime)

	for attempt := 0; attempt < 10; attempt++ {
		err = db.Ping()
		if err == nil {
			return db, nil
		}
	}

	if err = db.Close(); err != nil {
		return nil, err
	}

	return nil, ErrFailedToEstablishConnection
}

func open(driver DBDriver, cfg *dbConfig) (*DB, error) {
	switch driver {
	case DBDriverMySQL:
		dataSourceName, err := cfg.dataSourceNameMySQL()
		if err != nil {
			return nil, err
		}

		db, err := sql.Open(string(driver), dataSourceName)
		if err != nil {
			return nil, err
		}

		return &DB{
			Conn:   db,
			driver: driver,
		}, nil
	default:
		return nil, ErrUnsupportedSQLDriver
	}
}

func (cfg *dbConfig) dataSourceNameMySQL() (string, error) {
	mysqlConfig := mysql.NewConfig()

	mysqlConfig.User = cfg.username
	mysqlConfig.Passwd = cfg.password
	mysqlConfig.DBName = cfg.dbName
	mysqlConfig.Net = "tcp"
	mysqlConfig.Addr = fmt.Sprintf("%s:%d", cfg.host, cfg.port)
	mysqlConfig.ParseTime = true

	if cfg.tlsConfig != nil {
		if err := mysql.RegisterTLSConfig("db-tls", cfg.tlsConfig); err != nil {
			return "", err
		}
		mysqlConfig.TLSConfig = "db-tls"
	}

	return mysqlConfig.FormatDSN(), nil
}

func (db *DB) Driver() DBDriver {
	return db.driver
}

func (db *DB) Close() error {
	return db.Conn.Close()
}

func (db *DB) Ping() error {
	return db.Conn.Ping()
}

func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.Conn.Exec(query, args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.Conn.ExecContext(ctx, query, args...)
}

func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.Conn.Query(query, args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.Conn.QueryContext(ctx, query, args...)
}

func (db *DB) QueryRow(query string, args ...interface{}) squirrel.RowScanner {
	return db.Conn.QueryRow(query, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) squirrel.RowScanner {
	return db.Conn.QueryRowContext(ctx, query, args...)
}

// BeginTx generates a driver-aware transaction carrying the same
// database identity as the connection.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.Conn.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}

	return &Tx{
		tx:     tx,
		driver: db.driver,
	}, nil
}
