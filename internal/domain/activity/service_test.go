package activity_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_PublishLogsThenBroadcasts(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	bc := &mocks.Broadcaster{}

	var order []string
	repo.On("Log", ctx, "tenant1", mock.AnythingOfType("*activity.Event")).
		Run(func(mock.Arguments) { order = append(order, "log") }).
		Return(nil)
	bc.On("Broadcast", ctx, mock.AnythingOfType("activity.Event")).
		Run(func(mock.Arguments) { order = append(order, "broadcast") }).
		Return(nil)

	svc := activity.NewService(repo, bc, nil)
	ev, err := svc.Publish(ctx, "tenant1", activity.Input{
		Type:    activity.TypeTaskCreated,
		Source:  "tasks",
		Title:   "New task",
		Payload: activity.TaskCreated{TaskID: "t1"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"log", "broadcast"}, order)
	require.NotEmpty(t, ev.ID)
	require.Equal(t, "tenant1", ev.TenantID)
	require.JSONEq(t, `{"taskId":"t1"}`, string(ev.Data))

	sent := bc.Calls[0].Arguments.Get(1).(activity.Event)
	require.Equal(t, ev.ID, sent.ID)
}

func TestService_PublishValidatesInput(t *testing.T) {
	svc := activity.NewService(&mocks.ActivityRepository{}, nil, nil)

	_, err := svc.Publish(context.Background(), "", activity.Input{Type: activity.TypeTaskCreated})
	require.ErrorIs(t, err, activity.ErrInvalidInput)

	_, err = svc.Publish(context.Background(), "tenant1", activity.Input{})
	require.ErrorIs(t, err, activity.ErrInvalidInput)

	_, err = svc.Publish(context.Background(), "tenant1", activity.Input{
		Type:    activity.TypeTaskCreated,
		Payload: map[string]any{"bad": make(chan int)},
	})
	require.ErrorIs(t, err, activity.ErrInvalidInput)
}

func TestService_PublishLogFailureSkipsBroadcast(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	bc := &mocks.Broadcaster{}
	repo.On("Log", ctx, "tenant1", mock.Anything).Return(errors.New("disk full"))

	svc := activity.NewService(repo, bc, nil)
	_, err := svc.Publish(ctx, "tenant1", activity.Input{Type: activity.TypeTaskCreated})
	require.Error(t, err)
	bc.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)
}

func TestService_PublishBroadcastFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	bc := &mocks.Broadcaster{}
	repo.On("Log", ctx, "tenant1", mock.Anything).Return(nil)
	bc.On("Broadcast", ctx, mock.Anything).Return(errors.New("nats down"))

	svc := activity.NewService(repo, bc, nil)
	ev, err := svc.Publish(ctx, "tenant1", activity.Input{Type: activity.TypeApprovalCreated})
	require.NoError(t, err)
	require.NotNil(t, ev)
}

func TestService_RecentAppliesDefaultLimit(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	want := []activity.Event{{ID: "01", TenantID: "tenant1", Type: activity.TypeTaskCreated, Data: json.RawMessage(`{}`)}}
	repo.On("List", ctx, "tenant1", activity.ListOptions{Limit: 50}).Return(want, nil)

	svc := activity.NewService(repo, nil, nil)
	got, err := svc.Recent(ctx, "tenant1", activity.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, want, got)
	repo.AssertExpectations(t)
}
