package inmemory

import (
	"context"

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
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.stageRecords(stage)
	if _, exists := records[record.ID]; exists {
		err := permissions.ErrRecordAlreadyExists
		logger.Error(errRecordAlreadyExists, err)
		return err
	}

	records[record.ID] = record
	return nil
}

func (s *Store) AssignGroup(
	ctx context.Context,
	logger logx.Logger,
	relation repos.GroupRelation,
	recordID int64,
	groupID int64,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	assignments := s.groupsForRelation(relation)
	for _, existing := range assignments[recordID] {
		if existing == groupID {
			err := permissions.ErrGroupAssignmentAlreadyExists
			logger.Error(errGroupAssignmentAlreadyExists, err)
			return err
		}
	}

	assignments[recordID] = append(assignments[recordID], groupID)
	return nil
}
