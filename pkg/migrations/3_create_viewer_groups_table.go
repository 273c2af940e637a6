package migrations

import (
	"context"

	"github.com/ksislv/silverstripe-framework/pkg/logx"
	"github.com/ksislv/silverstripe-framework/pkg/sqlx"
)

var createViewerGroupsTable = `
CREATE TABLE IF NOT EXISTS record_viewer_groups
(
  record_id BIGINT NOT NULL,
  group_id BIGINT NOT NULL,
  PRIMARY KEY (record_id, group_id),
  INDEX record_viewer_groups_group_id (group_id)
)
`

var deleteViewerGroupsTable = `DROP TABLE record_viewer_groups`

func createViewerGroupsTableUp(ctx context.Context, logger logx.Logger, tx *sqlx.Tx) error {
	logger = logger.WithName("create-viewer-groups-table")
	logger.Debug(starting)
	defer logger.Debug(finished)

	_, err := tx.ExecContext(ctx, createViewerGroupsTable)

	return err
}

func createViewerGroupsTableDown(ctx context.Context, logger logx.Logger, tx *sqlx.Tx) error {
	logger = logger.WithName("create-viewer-groups-table")
	logger.Debug(starting)
	defer logger.Debug(finished)

	_, err := tx.ExecContext(ctx, deleteViewerGroupsTable)

	return err
}
