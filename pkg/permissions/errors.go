package permissions

import (
	"github.com/ksislv/silverstripe-framework/errdefs"
)

var (
	ErrRecordAlreadyExists          = errdefs.NewErrAlreadyExists("record")
	ErrGroupAssignmentAlreadyExists = errdefs.NewErrAlreadyExists("group assignment")
)
