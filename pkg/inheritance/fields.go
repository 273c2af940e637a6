package inheritance

import (
	"github.com/ksislv/silverstripe-framework/errdefs"
	"github.com/ksislv/silverstripe-framework/pkg/permissions"
	"github.com/ksislv/silverstripe-framework/pkg/repos"
)

// operationSpec pairs the permission field and the group-join relation
// consulted for one operation. Delete reuses edit's pair: there is no
// separate delete field on a record.
type operationSpec struct {
	field    repos.PermissionField
	relation repos.GroupRelation
}

func specForOperation(op permissions.Operation) (operationSpec, error) {
	switch op {
	case permissions.View:
		return operationSpec{
			field:    repos.FieldCanView,
			relation: repos.RelationViewerGroups,
		}, nil
	case permissions.Edit, permissions.Delete:
		return operationSpec{
			field:    repos.FieldCanEdit,
			relation: repos.RelationEditorGroups,
		}, nil
	default:
		return operationSpec{}, errdefs.NewErrUnsupportedOperation(op.String())
	}
}

func levelForField(record permissions.Record, field repos.PermissionField) string {
	switch field {
	case repos.FieldCanView:
		return record.CanViewType
	case repos.FieldCanEdit:
		return record.CanEditType
	default:
		return ""
	}
}
