package db

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/ksislv/silverstripe-framework/pkg/logx"
	"github.com/ksislv/silverstripe-framework/pkg/permissions"
	"github.com/ksislv/silverstripe-framework/pkg/repos"
)

func (s *Store) FetchByIDs(
	ctx context.Context,
	logger logx.Logger,
	query repos.RecordsQuery,
) ([]permissions.Record, error) {
	logger = logger.WithName("fetch-by-ids")

	if len(query.IDs) == 0 {
		return nil, nil
	}

	builder := squirrel.Select("id", "parent_id", "can_view_type", "can_edit_type").
		From(tableForStage(query.Stage)).
		Where(squirrel.Eq{"id": query.IDs})

	if len(query.ExcludeIDs) > 0 {
		builder = builder.Where(squirrel.NotEq{"id": query.ExcludeIDs})
	}

	rows, err := builder.
		RunWith(s.conn).
		QueryContext(ctx)
	if err != nil {
		logger.Error(failedToQueryRecords, err)
		return nil, err
	}
	defer rows.Close()

	var records []permissions.Record
	for rows.Next() {
		var record permissions.Record
		if err := rows.Scan(&record.ID, &record.ParentID, &record.CanViewType, &record.CanEditType); err != nil {
			logger.Error(failedToScanRecord, err)
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		logger.Error(failedToQueryRecords, err)
		return nil, err
	}

	return records, nil
}

func (s *Store) FetchChildren(
	ctx context.Context,
	logger logx.Logger,
	query repos.ChildrenQuery,
) ([]repos.ChildRecord, error) {
	logger = logger.WithName("fetch-children")

	if len(query.ParentIDs) == 0 {
		return nil, nil
	}

	// Children come from the draft table; the live tree cannot contain
	// rows the draft tree has never seen.
	rows, err := squirrel.Select("id", "parent_id").
		From(tableForStage(permissions.StageDraft)).
		Where(squirrel.Eq{"parent_id": query.ParentIDs}).
		RunWith(s.conn).
		QueryContext(ctx)
	if err != nil {
		logger.Error(failedToQueryChildren, err)
		return nil, err
	}
	defer rows.Close()

	var children []repos.ChildRecord
	for rows.Next() {
		var child repos.ChildRecord
		if err := rows.Scan(&child.ID, &child.ParentID); err != nil {
			logger.Error(failedToScanRecord, err)
			return nil, err
		}
		children = append(children, child)
	}

	if err := rows.Err(); err != nil {
		logger.Error(failedToQueryChildren, err)
		return nil, err
	}

	return children, nil
}

// FetchGroupGrantedIDs combines the Anyone, LoggedInUsers, and
// OnlyTheseUsers rules into one batched query instead of a join per
// record.
func (s *Store) FetchGroupGrantedIDs(
	ctx context.Context,
	logger logx.Logger,
	query repos.GroupGrantedQuery,
) ([]int64, error) {
	logger = logger.WithName("fetch-group-granted-ids")

	if len(query.CandidateIDs) == 0 {
		return nil, nil
	}

	column := columnForField(query.Field)

	var grantRules squirrel.Or
	if query.AllowAnyone {
		grantRules = append(grantRules, squirrel.Eq{column: permissions.LevelAnyone})
	}
	if query.AllowLoggedIn {
		grantRules = append(grantRules, squirrel.Eq{column: permissions.LevelLoggedInUsers})
	}
	if len(query.GroupIDs) > 0 {
		groupSQL, groupArgs, err := squirrel.Select("record_id").
			From(tableForRelation(query.Relation)).
			Where(squirrel.Eq{"group_id": query.GroupIDs}).
			ToSql()
		if err != nil {
			logger.Error(failedToBuildQuery, err)
			return nil, err
		}

		grantRules = append(grantRules, squirrel.And{
			squirrel.Eq{column: permissions.LevelOnlyTheseUsers},
			squirrel.Expr("id IN ("+groupSQL+")", groupArgs...),
		})
	}

	if len(grantRules) == 0 {
		return nil, nil
	}

	rows, err := squirrel.Select("id").
		From(tableForStage(query.Stage)).
		Where(squirrel.Eq{"id": query.CandidateIDs}).
		Where(grantRules).
		RunWith(s.conn).
		QueryContext(ctx)
	if err != nil {
		logger.Error(failedToQueryGroupGrants, err)
		return nil, err
	}
	defer rows.Close()

	var granted []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			logger.Error(failedToScanRecord, err)
			return nil, err
		}
		granted = append(granted, id)
	}

	if err := rows.Err(); err != nil {
		logger.Error(failedToQueryGroupGrants, err)
		return nil, err
	}

	return granted, nil
}
