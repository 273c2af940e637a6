package main

import (
	"context"
	"os"

	flags "github.com/jessevdk/go-flags"

	cmdflags "github.com/ksislv/silverstripe-framework/cmd/flags"
	"github.com/ksislv/silverstripe-framework/pkg/migrations"
	"github.com/ksislv/silverstripe-framework/pkg/sqlx"
)

type options struct {
	Logger cmdflags.LagerFlag

	DB cmdflags.DBFlag `group:"DB" namespace:"db"`

	TableName string `long:"migrations-table-name" description:"Name of the table which holds migration information" default:"permissions_migrations"`

	Rollback bool `long:"rollback" description:"Roll back the most recently applied migration instead of migrating up"`
	All      bool `long:"all" description:"With --rollback, roll back every applied migration"`
}

func main() {
	parserOpts := &options{}
	parser := flags.NewParser(parserOpts, flags.Default)
	parser.NamespaceDelimiter = "-"

	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	logger := parserOpts.Logger.Logger("permissions-migrate")
	logger.Debug(starting)
	defer logger.Debug(finished)

	ctx := context.Background()

	conn, err := parserOpts.DB.Connect(ctx, logger)
	if err != nil {
		os.Exit(1)
	}
	defer conn.Close()

	if parserOpts.Rollback {
		err = sqlx.RollbackMigrations(ctx, logger, conn, parserOpts.TableName, migrations.Migrations, parserOpts.All)
	} else {
		err = sqlx.ApplyMigrations(ctx, logger, conn, parserOpts.TableName, migrations.Migrations)
	}
	if err != nil {
		logger.Error(failedToRunMigrations, err)
		os.Exit(1)
	}
}
