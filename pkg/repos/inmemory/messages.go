package inmemory

const (
	errRecordAlreadyExists          = "record-already-exists"
	errGroupAssignmentAlreadyExists = "group-assignment-already-exists"
)
