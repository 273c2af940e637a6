package db

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"

	"github.com/ksislv/silverstripe-framework/pkg/logx"
	"github.com/ksislv/silverstripe-framework/pkg/permissions"
	"github.com/ksislv/silverstripe-framework/pkg/repos"
)

func (s *Store) CreateRecord(
	ctx context.Context,
	logger logx.Logger,
	stage permissions.Stage,
	record permissions.Record,
) error {
	logger = logger.WithName("create-record")

	_, err := squirrel.Insert(tableForStage(stage)).
		Columns("id", "parent_id", "can_view_type", "can_edit_type").
		Values(record.ID, record.ParentID, record.CanViewType, record.CanEditType).
		RunWith(s.conn).
		ExecContext(ctx)

	switch e := err.(type) {
	case nil:
		return nil
	case *mysql.MySQLError:
		if e.Number == MySQLErrorCodeDuplicateKey {
			logger.Debug(errRecordAlreadyExists)
			return permissions.ErrRecordAlreadyExists
		}

		logger.Error(failedToCreateRecord, err)
		return err
	default:
		logger.Error(failedToCreateRecord, err)
		return err
	}
}

func (s *Store) AssignGroup(
	ctx context.Context,
	logger logx.Logger,
	relation repos.GroupRelation,
	recordID int64,
	groupID int64,
) error {
	logger = logger.WithName("assign-group")

	_, err := squirrel.Insert(tableForRelation(relation)).
		Columns("record_id", "group_id").
		Values(recordID, groupID).
		RunWith(s.conn).
		ExecContext(ctx)

	switch e := err.(type) {
	case nil:
		return nil
	case *mysql.MySQLError:
		if e.Number == MySQLErrorCodeDuplicateKey {
			logger.Debug(errGroupAssignmentAlreadyExists)
			return permissions.ErrGroupAssignmentAlreadyExists
		}

		logger.Error(failedToAssignGroup, err)
		return err
	default:
		logger.Error(failedToAssignGroup, err)
		return err
	}
}
