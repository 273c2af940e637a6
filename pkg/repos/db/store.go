package db

import (
	"github.com/ksislv/silverstripe-framework/pkg/permissions"
	"github.com/ksislv/silverstripe-framework/pkg/repos"
	"github.com/ksislv/silverstripe-framework/pkg/sqlx"
)

// MySQLErrorCodeDuplicateKey is returned by MySQL on unique-key
// violations.
const MySQLErrorCodeDuplicateKey = 1062

// Store reads records from MySQL. Draft rows live in the `record` table
// and published rows in `record_live`; group assignments are shared by
// both stages.
type Store struct {
	conn *sqlx.DB
}

func NewStore(conn *sqlx.DB) *Store {
	return &Store{
		conn: conn,
	}
}

// StagedStore is a Store for a staged record type; it satisfies
// repos.StagedRecordRepo.
type StagedStore struct {
	*Store
}

func NewStagedStore(conn *sqlx.DB) *StagedStore {
	return &StagedStore{
		Store: NewStore(conn),
	}
}

func (s *StagedStore) Stages() []permissions.Stage {
	return []permissions.Stage{permissions.StageDraft, permissions.StageLive}
}

func tableForStage(stage permissions.Stage) string {
	if stage == permissions.StageLive {
		return "record_live"
	}
	return "record"
}

func columnForField(field repos.PermissionField) string {
	if field == repos.FieldCanEdit {
		return "can_edit_type"
	}
	return "can_view_type"
}

func tableForRelation(relation repos.GroupRelation) string {
	if relation == repos.RelationEditorGroups {
		return "record_editor_groups"
	}
	return "record_viewer_groups"
}
