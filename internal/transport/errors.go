package transport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/domain/task"
	"github.com/ganot/huddle/internal/repository"
)

// APIError is the error body returned by the REST API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var errBadRequest = errors.New("bad request")

// MapError maps domain errors to an HTTP status and error body.
func MapError(err error) (int, *APIError) {
	switch {
	case errors.Is(err, conversation.ErrConversationNotFound):
		return http.StatusNotFound, &APIError{Code: "CONVERSATION_NOT_FOUND", Message: "conversation not found"}
	case errors.Is(err, approval.ErrApprovalNotFound):
		return http.StatusNotFound, &APIError{Code: "APPROVAL_NOT_FOUND", Message: "approval not found"}
	case errors.Is(err, task.ErrTaskNotFound):
		return http.StatusNotFound, &APIError{Code: "TASK_NOT_FOUND", Message: "task not found"}
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, &APIError{Code: "NOT_FOUND", Message: "not found"}
	case errors.Is(err, approval.ErrAlreadyDecided):
		return http.StatusConflict, &APIError{Code: "ALREADY_DECIDED", Message: "approval already decided"}
	case errors.Is(err, conversation.ErrClosed):
		return http.StatusConflict, &APIError{Code: "CONVERSATION_CLOSED", Message: "conversation is closed"}
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, &APIError{Code: "CONFLICT", Message: "entity state changed"}
	case errors.Is(err, conversation.ErrInvalidInput),
		errors.Is(err, approval.ErrInvalidInput),
		errors.Is(err, task.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, &APIError{Code: "UNAUTHORIZED", Message: "unauthorized"}
	default:
		return http.StatusInternalServerError, &APIError{Code: "INTERNAL", Message: "internal error"}
	}
}
