package sqlx

const (
	starting = "starting"
	finished = "finished"
	success  = "success"

	committed = "committed"

	failedToStartTransaction = "failed-to-start-transaction"
	failedToCommit           = "failed-to-commit"
	failedToRollback         = "failed-to-rollback"

	failedToCreateTable           = "failed-to-create-table"
	failedToApplyMigration        = "failed-to-apply-migration"
	failedToRollbackMigration     = "failed-to-rollback-migration"
	failedToDeleteMigrationRow    = "failed-to-delete-migration-row"
	failedToQueryMigrations       = "failed-to-query-migrations"
	failedToParseAppliedMigration = "failed-to-parse-applied-migration"

	retrievedAppliedMigrations = "retrieved-applied-migrations"
	skippedAppliedMigration    = "skipped-applied-migration"
	skippedUnappliedMigration  = "skipped-unapplied-migration"

	migrationCountMismatch = "migration-count-mismatch"
	migrationNotFound      = "migration-not-found"
	migrationMismatch      = "migration-mismatch"
)
