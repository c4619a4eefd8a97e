package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/domain/task"
	"github.com/ganot/huddle/internal/repository"
	"github.com/ganot/huddle/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.TaskRepository{}
	pub := &mocks.Publisher{}
	repo.On("Create", ctx, "tenant1", mock.AnythingOfType("*task.Task")).Return(nil)
	pub.On("Publish", ctx, "tenant1", mock.MatchedBy(func(in activity.Input) bool {
		return in.Type == activity.TypeTaskCreated
	})).Return(&activity.Event{}, nil)

	svc := task.NewService(repo, pub, nil)
	tk, err := svc.Create(ctx, "tenant1", task.CreateRequest{Title: "Call back customer"})
	require.NoError(t, err)
	require.Equal(t, task.StatusTodo, tk.Status)
	pub.AssertExpectations(t)

	_, err = svc.Create(ctx, "tenant1", task.CreateRequest{Title: "  "})
	require.ErrorIs(t, err, task.ErrInvalidInput)
}

func TestService_UpdateCompletes(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.TaskRepository{}
	pub := &mocks.Publisher{}

	existing := &task.Task{ID: "t1", Title: "Call back", Status: task.StatusInProgress}
	repo.On("Get", ctx, "tenant1", "t1").Return(existing, nil)
	repo.On("Update", ctx, "tenant1", existing).Return(nil)
	pub.On("Publish", ctx, "tenant1", mock.MatchedBy(func(in activity.Input) bool {
		p, ok := in.Payload.(activity.TaskUpdated)
		return ok && in.Title == "Task completed" && p.Changes["status"] == "done"
	})).Return(&activity.Event{}, nil)

	done := task.StatusDone
	svc := task.NewService(repo, pub, nil)
	tk, err := svc.Update(ctx, "tenant1", "t1", task.UpdateRequest{Status: &done})
	require.NoError(t, err)
	require.Equal(t, task.StatusDone, tk.Status)
	pub.AssertExpectations(t)
}

func TestService_UpdateDueDate(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.TaskRepository{}
	pub := &mocks.Publisher{}

	existing := &task.Task{ID: "t1", Title: "Call back", Status: task.StatusTodo}
	repo.On("Get", ctx, "tenant1", "t1").Return(existing, nil)
	repo.On("Update", ctx, "tenant1", existing).Return(nil)
	pub.On("Publish", ctx, "tenant1", mock.Anything).Return(&activity.Event{}, nil)

	due := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := task.NewService(repo, pub, nil)
	_, err := svc.Update(ctx, "tenant1", "t1", task.UpdateRequest{DueAt: &due})
	require.NoError(t, err)

	in := pub.Calls[0].Arguments.Get(2).(activity.Input)
	require.Equal(t, "2026-03-01T09:00:00Z", in.Payload.(activity.TaskUpdated).Changes["dueAt"])
}

func TestService_UpdateRejectsBadStatus(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.TaskRepository{}
	repo.On("Get", ctx, "tenant1", "t1").Return(&task.Task{ID: "t1", Status: task.StatusTodo}, nil)

	bad := task.Status("blocked")
	svc := task.NewService(repo, nil, nil)
	_, err := svc.Update(ctx, "tenant1", "t1", task.UpdateRequest{Status: &bad})
	require.ErrorIs(t, err, task.ErrInvalidInput)
}

func TestService_GetMapsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.TaskRepository{}
	repo.On("Get", ctx, "tenant1", "nope").Return(nil, repository.ErrNotFound)

	svc := task.NewService(repo, nil, nil)
	_, err := svc.Get(ctx, "tenant1", "nope")
	require.ErrorIs(t, err, task.ErrTaskNotFound)
}
