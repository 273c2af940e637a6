package migrations

import (
	"context"

	"github.com/ksislv/silverstripe-framework/pkg/logx"
	"github.com/ksislv/silverstripe-framework/pkg/sqlx"
)

var createEditorGroupsTable = `
CREATE TABLE IF NOT EXISTS record_editor_groups
(
  record_id BIGINT NOT NULL,
  group_id BIGINT NOT NULL,
  PRIMARY KEY (record_id, group_id),
  INDEX record_editor_groups_group_id (group_id)
)
`

var deleteEditorGroupsTable = `DROP TABLE record_editor_groups`

func createEditorGroupsTableUp(ctx context.Context, logger logx.Logger, tx *sqlx.Tx) error {
	logger = logger.WithName("create-editor-groups-table")
	logger.Debug(starting)
	defer logger.Debug(finished)

	_, err := tx.ExecContext(ctx, createEditorGroupsTable)

	return err
}

func createEditorGroupsTableDown(ctx context.Context, logger logx.Logger, tx *sqlx.Tx) error {
	logger = logger.WithName("create-editor-groups-table")
	logger.Debug(starting)
	defer logger.Debug(finished)

	_, err := tx.ExecContext(ctx, deleteEditorGroupsTable)

	return err
}
