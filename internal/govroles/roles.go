// Package govroles enforces role-based permissions on the decisions a
// submitter may take through the pipeline. Grounded on the original
// decision workflow's role enforcer: operators may not approve, reject,
// or assign severity; reviewers may perform any action.
package govroles

import "codenerd/internal/goverrors"

// Role is the closed set of submitter roles.
type Role string

const (
	RoleOperator Role = "operator"
	RoleReviewer Role = "reviewer"
)

// Action is the closed set of decisions a submitter may take.
type Action string

const (
	ActionApprove       Action = "approve"
	ActionReject        Action = "reject"
	ActionDefer         Action = "defer"
	ActionEscalate      Action = "escalate"
	ActionMarkReviewed  Action = "mark_reviewed"
	ActionAddNote       Action = "add_note"
	ActionAssignSeverity Action = "assign_severity"
)

// operatorForbidden lists the actions an operator may never take,
// regardless of what friction and confirmation otherwise permit.
var operatorForbidden = map[Action]bool{
	ActionApprove:        true,
	ActionReject:         true,
	ActionAssignSeverity: true,
}

// CheckPermission reports whether role may perform action.
func CheckPermission(role Role, action Action) error {
	if role == RoleOperator && operatorForbidden[action] {
		return goverrors.New(goverrors.ReasonPermissionDenied, "role %s may not perform %s", role, action)
	}
	return nil
}
