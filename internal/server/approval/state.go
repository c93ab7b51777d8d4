// Package approval holds the file review state machine:
//
//	pending --approve--> approved
//	pending --reject---> rejected (record, escrow entry and blob are deleted)
//
// approved and rejected are terminal.
package approval

import (
	"fmt"

	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/server/models"
)

// Action is a reviewer decision.
type Action string

const (
	Approve Action = "approve"
	Reject  Action = "reject"
)

// ParseAction maps the wire value onto an Action. Unknown values are a
// malformed request, not a workflow violation.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case Approve, Reject:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", common.ErrorIncorrectMetadata, s)
}

// Next returns the state reached by applying action to current.
func Next(current models.FileStatus, action Action) (models.FileStatus, error) {
	if current != models.FilePending {
		return "", fmt.Errorf("%w: file is %s", common.ErrInvalidTransition, current)
	}
	switch action {
	case Approve:
		return models.FileApproved, nil
	case Reject:
		return models.FileRejected, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", common.ErrInvalidTransition, action)
}

// CanReview reports whether reviewer may decide on a file assigned to
// managerEmail: admins always, managers only for their own assignments.
func CanReview(role models.Role, reviewerEmail, managerEmail string) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleManager:
		return managerEmail != "" && reviewerEmail == managerEmail
	}
	return false
}
