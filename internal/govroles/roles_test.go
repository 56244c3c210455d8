package govroles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenerd/internal/goverrors"
)

func TestOperatorForbiddenActions(t *testing.T) {
	for _, action := range []Action{ActionApprove, ActionReject, ActionAssignSeverity} {
		err := CheckPermission(RoleOperator, action)
		require.Errorf(t, err, "operator must not be permitted %s", action)
		assert.Equal(t, goverrors.ReasonPermissionDenied, err.(*goverrors.GovError).Reason())
	}
}

func TestOperatorPermittedActions(t *testing.T) {
	for _, action := range []Action{ActionDefer, ActionEscalate, ActionMarkReviewed, ActionAddNote} {
		assert.NoErrorf(t, CheckPermission(RoleOperator, action), "operator should be permitted %s", action)
	}
}

func TestReviewerUnrestricted(t *testing.T) {
	for _, action := range []Action{ActionApprove, ActionReject, ActionAssignSeverity, ActionDefer} {
		assert.NoError(t, CheckPermission(RoleReviewer, action))
	}
}
