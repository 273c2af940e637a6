package inmemory

import (
	"sync"

	"github.com/ksislv/silverstripe-framework/pkg/permissions"
	"github.com/ksislv/silverstripe-framework/pkg/repos"
)

// Store is a map-backed record store. Records are kept per stage; group
// assignments are shared across stages, matching the SQL store where the
// join tables are not versioned. The zero-valued stage key holds the
// records of an unstaged store.
type Store struct {
	mu sync.RWMutex

	records      map[permissions.Stage]map[int64]permissions.Record
	viewerGroups map[int64][]int64
	editorGroups map[int64][]int64

	fetchByIDs           int
	fetchChildren        int
	fetchGroupGrantedIDs int
}

func NewStore() *Store {
	return &Store{
		records:      make(map[permissions.Stage]map[int64]permissions.Record),
		viewerGroups: make(map[int64][]int64),
		editorGroups: make(map[int64][]int64),
	}
}

// StagedStore is a Store whose record type is staged; it satisfies
// repos.StagedRecordRepo so the resolver merges drafts over live.
type StagedStore struct {
	*Store
}

func NewStagedStore() *StagedStore {
	return &StagedStore{
		Store: NewStore(),
	}
}

func (s *StagedStore) Stages() []permissions.Stage {
	return []permissions.Stage{permissions.StageDraft, permissions.StageLive}
}

// FetchByIDsCallCount reports how many FetchByIDs calls the store served;
// tests use it to show cached resolutions skip the store entirely.
func (s *Store) FetchByIDsCallCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.fetchByIDs
}

func (s *Store) FetchChildrenCallCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.fetchChildren
}

func (s *Store) FetchGroupGrantedIDsCallCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.fetchGroupGrantedIDs
}

func (s *Store) stageRecords(stage permissions.Stage) map[int64]permissions.Record {
	records, ok := s.records[stage]
	if !ok {
		records = make(map[int64]permissions.Record)
		s.records[stage] = records
	}
	return records
}

func (s *Store) groupsForRelation(relation repos.GroupRelation) map[int64][]int64 {
	if relation == repos.RelationEditorGroups {
		return s.editorGroups
	}
	return s.viewerGroups
}
