package approval

import "errors"

var (
	// ErrApprovalNotFound indicates the approval doesn't exist.
	ErrApprovalNotFound = errors.New("approval not found")
	// ErrInvalidInput indicates invalid approval input.
	ErrInvalidInput = errors.New("invalid approval input")
	// ErrAlreadyDecided indicates the approval is no longer pending.
	ErrAlreadyDecided = errors.New("approval already decided")
)
