package repos

import (
	"context"

	"github.com/ksislv/silverstripe-framework/pkg/logx"
	"github.com/ksislv/silverstripe-framework/pkg/permissions"
)

// PermissionField names the record column consulted for an operation.
type PermissionField string

const (
	FieldCanView PermissionField = "CanViewType"
	FieldCanEdit PermissionField = "CanEditType"
)

// GroupRelation names the record-to-group join consulted for an
// operation's OnlyTheseUsers rule.
type GroupRelation string

const (
	RelationViewerGroups GroupRelation = "ViewerGroups"
	RelationEditorGroups GroupRelation = "EditorGroups"
)

// RecordsQuery fetches records by ID within a stage. Stage is empty for
// unstaged record types. ExcludeIDs drops IDs already settled by a
// higher-precedence stage.
type RecordsQuery struct {
	Stage      permissions.Stage
	IDs        []int64
	ExcludeIDs []int64
}

// ChildrenQuery fetches the direct children of a set of parents. Staged
// stores answer from the draft stage.
type ChildrenQuery struct {
	ParentIDs []int64
}

// ChildRecord is the parent/child edge returned by FetchChildren.
type ChildRecord struct {
	ID       int64
	ParentID int64
}

// GroupGrantedQuery asks, in one batched lookup, which of the candidate
// records grant the operation directly. A candidate matches when its
// field is Anyone (if AllowAnyone), LoggedInUsers (if AllowLoggedIn), or
// OnlyTheseUsers with a group assignment intersecting GroupIDs.
type GroupGrantedQuery struct {
	Stage    permissions.Stage
	Field    PermissionField
	Relation GroupRelation

	CandidateIDs []int64
	GroupIDs     []int64

	AllowAnyone   bool
	AllowLoggedIn bool
}

//go:generate counterfeiter . RecordRepo

// RecordRepo is the read-side contract the resolver consumes. All write
// paths belong to the store implementations.
type RecordRepo interface {
	FetchByIDs(
		ctx context.Context,
		logger logx.Logger,
		query RecordsQuery,
	) ([]permissions.Record, error)

	FetchChildren(
		ctx context.Context,
		logger logx.Logger,
		query ChildrenQuery,
	) ([]ChildRecord, error)

	FetchGroupGrantedIDs(
		ctx context.Context,
		logger logx.Logger,
		query GroupGrantedQuery,
	) ([]int64, error)
}

// StagedRecordRepo marks a record type as staged. The resolver probes
// for it once at construction; Stages returns the stage identifiers in
// precedence order, drafts first.
type StagedRecordRepo interface {
	RecordRepo

	Stages() []permissions.Stage
}
