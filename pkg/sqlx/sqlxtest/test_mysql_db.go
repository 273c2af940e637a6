package sqlxtest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"code.cloudfoundry.org/lager/lagertest"

	"github.com/ksislv/silverstripe-framework/pkg/logx/lagerx"
	"github.com/ksislv/silverstripe-framework/pkg/sqlx"
)

const (
	TestMySQLHost     = "TEST_MYSQL_HOST"
	TestMySQLPort     = "TEST_MYSQL_PORT"
	TestMySQLDatabase = "TEST_MYSQL_DATABASE"
	TestMySQLUsername = "TEST_MYSQL_USERNAME"
	TestMySQLPassword = "TEST_MYSQL_PASSWORD"
)

// Enabled reports whether the MySQL-backed suites should run. Suites
// skip themselves when no test database host is configured.
func Enabled() bool {
	return os.Getenv(TestMySQLHost) != ""
}

type TestMySQLDB struct {
	options *options
}

type options struct {
	host     string
	port     string
	database string
	user     string
	password string
}

type TestDBOption func(*options)

func NewTestMySQLDB(opts ...TestDBOption) *TestMySQLDB {
	host := os.Getenv(TestMySQLHost)
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv(TestMySQLPort)
	if port == "" {
		port = "3306"
	}
	database := os.Getenv(TestMySQLDatabase)
	if database == "" {
		database = fmt.Sprintf("test_permissions_%d", time.Now().UnixNano())
	}
	user := os.Getenv(TestMySQLUsername)
	if user == "" {
		user = "root"
	}
	password := os.Getenv(TestMySQLPassword)

	config := &options{
		host:     host,
		port:     port,
		database: database,
		user:     user,
		password: password,
	}

	for _, o := range opts {
		o(config)
	}

	return &TestMySQLDB{
		options: config,
	}
}

func (db *TestMySQLDB) Create(migrations ...sqlx.Migration) error {
	stmt := fmt.Sprintf("CREATE DATABASE %s", db.options.database)
	if err := db.exec(stmt); err != nil {
		return err
	}

	conn, err := db.Connect()
	if err != nil {
		_ = db.Drop()
		return err
	}
	defer conn.Close()

	logger := lagerx.NewLogger(lagertest.NewTestLogger("test-db"))
	err = sqlx.ApplyMigrations(context.Background(), logger, conn, "migrations", migrations)
	if err != nil {
		_ = db.Drop()
		return err
	}

	return nil
}

func (db *TestMySQLDB) Drop() error {
	stmt := fmt.Sprintf("DROP DATABASE %s", db.options.database)

	return db.exec(stmt)
}

func (db *TestMySQLDB) Connect() (*sqlx.DB, error) {
	iPort, err := strconv.ParseInt(db.options.port, 0, 0)
	if err != nil {
		return nil, err
	}

	dbOpts := []sqlx.DBOption{
		sqlx.DBUsername(db.options.user),
		sqlx.DBPassword(db.options.password),
		sqlx.DBHost(db.options.host),
		sqlx.DBPort(int(iPort)),
		sqlx.DBDatabaseName(db.options.database),
	}

	return sqlx.Connect(sqlx.DBDriverMySQL, dbOpts...)
}

func (db *TestMySQLDB) Truncate(truncateStmts ...string) error {
	conn, err := db.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, stmt := range truncateStmts {
		if _, err = conn.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

func (db *TestMySQLDB) exec(stmt string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(
		ctx,
		"mysql",
		"--host", db.options.host,
		"--user", db.options.user,
		fmt.Sprintf("--password=%s", db.options.password),
		"--port", db.options.port,
		"-e", stmt,
	)

	_, err := cmd.Output()

	return err
}
