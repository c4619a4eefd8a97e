package mocks

import (
	"context"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/domain/task"
	"github.com/stretchr/testify/mock"
)

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, tenantID string, event *activity.Event) error {
	args := m.Called(ctx, tenantID, event)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, tenantID string, opts activity.ListOptions) ([]activity.Event, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]activity.Event); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Broadcaster is a mock for activity.Broadcaster.
type Broadcaster struct {
	mock.Mock
}

func (m *Broadcaster) Broadcast(ctx context.Context, event activity.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Publisher is a mock for activity.Publisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, tenantID string, in activity.Input) (*activity.Event, error) {
	args := m.Called(ctx, tenantID, in)
	if ev, ok := args.Get(0).(*activity.Event); ok {
		return ev, args.Error(1)
	}
	return nil, args.Error(1)
}

// ConversationRepository is a mock for conversation.Repository.
type ConversationRepository struct {
	mock.Mock
}

func (m *ConversationRepository) Create(ctx context.Context, tenantID string, conv *conversation.Conversation) error {
	args := m.Called(ctx, tenantID, conv)
	return args.Error(0)
}

func (m *ConversationRepository) Get(ctx context.Context, tenantID, id string) (*conversation.Conversation, error) {
	args := m.Called(ctx, tenantID, id)
	if conv, ok := args.Get(0).(*conversation.Conversation); ok {
		return conv, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ConversationRepository) List(ctx context.Context, tenantID string, opts conversation.ListOptions) ([]conversation.Conversation, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]conversation.Conversation); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ConversationRepository) Update(ctx context.Context, tenantID string, conv *conversation.Conversation) error {
	args := m.Called(ctx, tenantID, conv)
	return args.Error(0)
}

func (m *ConversationRepository) AddMessage(ctx context.Context, tenantID string, msg *conversation.Message, conv *conversation.Conversation) error {
	args := m.Called(ctx, tenantID, msg, conv)
	return args.Error(0)
}

func (m *ConversationRepository) ListMessages(ctx context.Context, tenantID, conversationID string) ([]conversation.Message, error) {
	args := m.Called(ctx, tenantID, conversationID)
	if list, ok := args.Get(0).([]conversation.Message); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ApprovalRepository is a mock for approval.Repository.
type ApprovalRepository struct {
	mock.Mock
}

func (m *ApprovalRepository) Create(ctx context.Context, tenantID string, a *approval.Approval) error {
	args := m.Called(ctx, tenantID, a)
	return args.Error(0)
}

func (m *ApprovalRepository) Get(ctx context.Context, tenantID, id string) (*approval.Approval, error) {
	args := m.Called(ctx, tenantID, id)
	if a, ok := args.Get(0).(*approval.Approval); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ApprovalRepository) List(ctx context.Context, tenantID string, opts approval.ListOptions) ([]approval.Approval, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]approval.Approval); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ApprovalRepository) Decide(ctx context.Context, tenantID string, a *approval.Approval) error {
	args := m.Called(ctx, tenantID, a)
	return args.Error(0)
}

// TaskRepository is a mock for task.Repository.
type TaskRepository struct {
	mock.Mock
}

func (m *TaskRepository) Create(ctx context.Context, tenantID string, t *task.Task) error {
	args := m.Called(ctx, tenantID, t)
	return args.Error(0)
}

func (m *TaskRepository) Get(ctx context.Context, tenantID, id string) (*task.Task, error) {
	args := m.Called(ctx, tenantID, id)
	if t, ok := args.Get(0).(*task.Task); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) List(ctx context.Context, tenantID string, opts task.ListOptions) ([]task.Task, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]task.Task); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) Update(ctx context.Context, tenantID string, t *task.Task) error {
	args := m.Called(ctx, tenantID, t)
	return args.Error(0)
}
