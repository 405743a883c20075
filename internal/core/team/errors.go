package team

import "errors"

// Lookup errors.
var (
	ErrUnknownMember     = errors.New("unknown member id")
	ErrUnknownTask       = errors.New("unknown task id")
	ErrUnknownMessage    = errors.New("unknown message id")
	ErrUnknownDependency = errors.New("unknown dependency task id")
)

// Precondition errors.
var (
	ErrMissingDependency = errors.New("missing dependency")
	ErrTaskNotPending    = errors.New("task is not pending")
	ErrTaskNotInProgress = errors.New("task is not in progress")
	ErrNotAssignee       = errors.New("member is not the task assignee")
	ErrTaskNotHeld       = errors.New("task is not held by manual recovery")
)

// Policy errors.
var (
	ErrMemberInactive       = errors.New("member is not active")
	ErrDelegationOnly       = errors.New("delegation-only mode: lead member cannot execute tasks")
	ErrPlanApprovalRequired = errors.New("plan approval required")
	ErrFileConflict         = errors.New("task has file conflict with another in-progress task")
)
