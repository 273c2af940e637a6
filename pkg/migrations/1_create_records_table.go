package migrations

import (
	"context"

	"github.com/ksislv/silverstripe-framework/pkg/logx"
	"github.com/ksislv/silverstripe-framework/pkg/sqlx"
)

var createRecordsTable = `
CREATE TABLE IF NOT EXISTS record
(
  id BIGINT NOT NULL PRIMARY KEY,
  parent_id BIGINT NOT NULL DEFAULT 0,
  can_view_type VARCHAR(50) NOT NULL DEFAULT 'Inherit',
  can_edit_type VARCHAR(50) NOT NULL DEFAULT 'Inherit',
  INDEX record_parent_id (parent_id)
)
`

var deleteRecordsTable = `DROP TABLE record`

func createRecordsTableUp(ctx context.Context, logger logx.Logger, tx *sqlx.Tx) error {
	logger = logger.WithName("create-records-table")
	logger.Debug(starting)
	defer logger.Debug(finished)

	_, err := tx.ExecContext(ctx, createRecordsTable)

	return err
}

func createRecordsTableDown(ctx context.Context, logger logx.Logger, tx *sqlx.Tx) error {
	logger = logger.WithName("create-records-table")
	logger.Debug(starting)
	defer logger.Debug(finished)

	_, err := tx.ExecContext(ctx, deleteRecordsTable)

	return err
}
