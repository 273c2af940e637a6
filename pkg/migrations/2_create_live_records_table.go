package migrations

import (
	"context"

	"github.com/ksislv/silverstripe-framework/pkg/logx"
	"github.com/ksislv/silverstripe-framework/pkg/sqlx"
)

var createLiveRecordsTable = `
CREATE TABLE IF NOT EXISTS record_live
(
  id BIGINT NOT NULL PRIMARY KEY,
  parent_id BIGINT NOT NULL DEFAULT 0,
  can_view_type VARCHAR(50) NOT NULL DEFAULT 'Inherit',
  can_edit_type VARCHAR(50) NOT NULL DEFAULT 'Inherit',
  INDEX record_live_parent_id (parent_id)
)
`

var deleteLiveRecordsTable = `DROP TABLE record_live`

func createLiveRecordsTableUp(ctx context.Context, logger logx.Logger, tx *sqlx.Tx) error {
	logger = logger.WithName("create-live-records-table")
	logger.Debug(starting)
	defer logger.Debug(finished)

	_, err := tx.ExecContext(ctx, createLiveRecordsTable)

	return err
}

func createLiveRecordsTableDown(ctx context.Context, logger logx.Logger, tx *sqlx.Tx) error {
	logger = logger.WithName("create-live-records-table")
	logger.Debug(starting)
	defer logger.Debug(finished)

	_, err := tx.ExecContext(ctx, deleteLiveRecordsTable)

	return err
}
