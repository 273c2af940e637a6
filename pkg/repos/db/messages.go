package db

const (
	failedToQueryRecords     = "failed-to-query-records"
	failedToQueryChildren    = "failed-to-query-children"
	failedToQueryGroupGrants = "failed-to-query-group-grants"
	failedToScanRecord       = "failed-to-scan-record"
	failedToBuildQuery       = "failed-to-build-query"

	failedToCreateRecord = "failed-to-create-record"
	failedToAssignGroup  = "failed-to-assign-group"

	errRecordAlreadyExists          = "record-already-exists"
	errGroupAssignmentAlreadyExists = "group-assignment-already-exists"
)
