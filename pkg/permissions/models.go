package permissions

// Permission levels a record can declare for an operation. A record
// carries one level per permission field; Inherit defers the decision to
// the record's parent, or to the default policy at a root.
const (
	LevelAnyone         = "Anyone"
	LevelLoggedInUsers  = "LoggedInUsers"
	LevelOnlyTheseUsers = "OnlyTheseUsers"
	LevelInherit        = "Inherit"
)

// Operation is the closed set of permission checks the resolver supports.
type Operation int

const (
	View Operation = iota
	Edit
	Delete
)

func (o Operation) String() string {
	switch o {
	case View:
		return "view"
	case Edit:
		return "edit"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Stage identifies one version of a staged record. Draft content always
// takes precedence over live content when both exist for an ID.
type Stage string

const (
	StageDraft Stage = "Stage"
	StageLive  Stage = "Live"
)

// Record is one row of a record type as seen by the resolver, scoped to a
// single stage. ParentID zero marks a tree root.
type Record struct {
	ID       int64
	ParentID int64

	CanViewType string
	CanEditType string
}

// Member is the actor whose permissions are being checked. ID zero means
// anonymous; GroupIDs holds every group the member belongs to, directly
// or transitively.
type Member struct {
	ID       int64
	GroupIDs []int64
}

// Anonymous reports whether the member is unauthenticated.
func (m Member) Anonymous() bool {
	return m.ID == 0
}

// Everyone is the anonymous member.
var Everyone = Member{}

// DefaultPolicy decides permissions for records that inherit with no
// parent. Absence of a policy resolves such records to false.
type DefaultPolicy interface {
	CanView(member Member) bool
	CanEdit(member Member) bool
	CanDelete(member Member) bool
}

// CapabilityChecker answers the coarse member-level gate consulted once
// per batch, before any per-record work.
type CapabilityChecker interface {
	HasCapability(member Member, permissions []string) bool
}
