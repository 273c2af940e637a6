package migrations

import (
	"github.com/ksislv/silverstripe-framework/pkg/sqlx"
)

var TableName = "permissions_migrations"

var Migrations = []sqlx.Migration{
	{
		Name: "create_records_table",
		Up:   createRecordsTableUp,
		Down: createRecordsTableDown,
	},
	{
		Name: "create_live_records_table",
		Up:   createLiveRecordsTableUp,
		Down: createLiveRecordsTableDown,
	},
	{
		Name: "create_viewer_groups_table",
		Up:   createViewerGroupsTableUp,
		Down: createViewerGroupsTableDown,
	},
	{
		Name: "create_editor_groups_table",
		Up:   createEditorGroupsTableUp,
		Down: createEditorGroupsTableDown,
	},
}
