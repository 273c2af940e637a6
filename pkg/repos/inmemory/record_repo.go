package inmemory

import (
	"context"

	"github.com/ksislv/silverstripe-framework/pkg/logx"
	"github.com/ksislv/silverstripe-framework/pkg/permissions"
	"github.com/ksislv/silverstripe-framework/pkg/repos"
)

func (s *Store) FetchByIDs(
	ctx context.Context,
	logger logx.Logger,
	query repos.RecordsQuery,
) ([]permissions.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetchByIDs++

	excluded := make(map[int64]struct{}, len(query.ExcludeIDs))
	for _, id := range query.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	records := s.records[query.Stage]

	var results []permissions.Record
	for _, id := range query.IDs {
		if _, ok := excluded[id]; ok {
			continue
		}
		if record, ok := records[id]; ok {
			results = append(results, record)
		}
	}

	return results, nil
}

func (s *Store) FetchChildren(
	ctx context.Context,
	logger logx.Logger,
	query repos.ChildrenQuery,
) ([]repos.ChildRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetchChildren++

	parents := make(map[int64]struct{}, len(query.ParentIDs))
	for _, id := range query.ParentIDs {
		parents[id] = struct{}{}
	}

	// Children are read from the draft side of a staged store; the
	// unstaged stage key is the zero value, so both cases hit the right
	// map.
	records := s.records[s.childStage()]

	var children []repos.ChildRecord
	for _, record := range records {
		if _, ok := parents[record.ParentID]; ok {
			children = append(children, repos.ChildRecord{
				ID:       record.ID,
				ParentID: record.ParentID,
			})
		}
	}

	return children, nil
}

func (s *Store) FetchGroupGrantedIDs(
	ctx context.Context,
	logger logx.Logger,
	query repos.GroupGrantedQuery,
) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetchGroupGrantedIDs++

	memberGroups := make(map[int64]struct{}, len(query.GroupIDs))
	for _, id := range query.GroupIDs {
		memberGroups[id] = struct{}{}
	}

	records := s.records[query.Stage]
	assignments := s.groupsForRelation(query.Relation)

	var granted []int64
	for _, id := range query.CandidateIDs {
		record, ok := records[id]
		if !ok {
			continue
		}

		switch levelFor(record, query.Field) {
		case permissions.LevelAnyone:
			if query.AllowAnyone {
				granted = append(granted, id)
			}
		case permissions.LevelLoggedInUsers:
			if query.AllowLoggedIn {
				granted = append(granted, id)
			}
		case permissions.LevelOnlyTheseUsers:
			for _, groupID := range assignments[id] {
				if _, ok := memberGroups[groupID]; ok {
					granted = append(granted, id)
					break
				}
			}
		}
	}

	return granted, nil
}

func (s *Store) childStage() permissions.Stage {
	if _, ok := s.records[permissions.StageDraft]; ok {
		return permissions.StageDraft
	}
	return permissions.Stage("")
}

func levelFor(record permissions.Record, field repos.PermissionField) string {
	switch field {
	case repos.FieldCanView:
		return record.CanViewType
	case repos.FieldCanEdit:
		return record.CanEditType
	default:
		return ""
	}
}
