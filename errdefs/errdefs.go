package errdefs

import "fmt"

type ErrAlreadyExists struct {
	model string
}

func NewErrAlreadyExists(model string) ErrAlreadyExists {
	return ErrAlreadyExists{
		model: model,
	}
}

func (err ErrAlreadyExists) Error() string {
	return fmt.Sprintf("%s already exists", err.model)
}

// ErrUnsupportedOperation is returned when an operation outside the
// closed view/edit/delete set reaches field or relation resolution.
// This is a programmer error and is never absorbed into a false result.
type ErrUnsupportedOperation struct {
	operation string
}

func NewErrUnsupportedOperation(operation string) ErrUnsupportedOperation {
	return ErrUnsupportedOperation{
		operation: operation,
	}
}

func (err ErrUnsupportedOperation) Error() string {
	return fmt.Sprintf("unsupported permission operation: %s", err.operation)
}

// ErrCycleDetected is returned when a record's inheritance chain loops
// back onto a record that is still being resolved. A cyclic parent graph
// is corrupt data; detection keeps the resolver from recursing forever.
type ErrCycleDetected struct {
	recordID int64
}

func NewErrCycleDetected(recordID int64) ErrCycleDetected {
	return ErrCycleDetected{
		recordID: recordID,
	}
}

func (err ErrCycleDetected) Error() string {
	return fmt.Sprintf("permission inheritance cycle detected at record %d", err.recordID)
}

// RecordID reports the record at which the cycle was detected.
func (err ErrCycleDetected) RecordID() int64 {
	return err.recordID
}
