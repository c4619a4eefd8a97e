package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/domain/task"
)

// ToolError is the error reported to MCP clients when a tool call fails.
type ToolError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *ToolError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// mapError maps domain errors to tool error codes. Unrecognized errors are
// returned unchanged.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, conversation.ErrConversationNotFound):
		return &ToolError{Code: "CONVERSATION_NOT_FOUND", Message: "conversation not found", RecoveryHint: "Call list_conversations for valid IDs"}
	case errors.Is(err, approval.ErrApprovalNotFound):
		return &ToolError{Code: "APPROVAL_NOT_FOUND", Message: "approval not found", RecoveryHint: "Call list_approvals for valid IDs"}
	case errors.Is(err, task.ErrTaskNotFound):
		return &ToolError{Code: "TASK_NOT_FOUND", Message: "task not found", RecoveryHint: "Call list_tasks for valid IDs"}
	case errors.Is(err, approval.ErrAlreadyDecided):
		return &ToolError{Code: "ALREADY_DECIDED", Message: "approval already decided"}
	case errors.Is(err, conversation.ErrClosed):
		return &ToolError{Code: "CONVERSATION_CLOSED", Message: "conversation is closed"}
	case errors.Is(err, conversation.ErrInvalidInput),
		errors.Is(err, approval.ErrInvalidInput),
		errors.Is(err, task.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput):
		return &ToolError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Check required arguments and enum values"}
	default:
		return err
	}
}
