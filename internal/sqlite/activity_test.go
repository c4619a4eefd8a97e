package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/repository"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func newEvent(typ activity.Type, at time.Time, data string) *activity.Event {
	ev := &activity.Event{
		ID:        ulid.Make().String(),
		Type:      typ,
		Source:    "test",
		Title:     string(typ),
		CreatedAt: at,
	}
	if data != "" {
		ev.Data = json.RawMessage(data)
	}
	return ev
}

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	first := newEvent(activity.TypeConversationCreated, base, `{"conversationId":"c1"}`)
	second := newEvent(activity.TypeApprovalApproved, base.Add(time.Second), "")

	require.NoError(t, repo.Log(ctx, "tenant1", first))
	require.NoError(t, repo.Log(ctx, "tenant1", second))

	events, err := repo.List(ctx, "tenant1", activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, second.ID, events[0].ID)
	require.Equal(t, first.ID, events[1].ID)
	require.JSONEq(t, `{"conversationId":"c1"}`, string(events[1].Data))
	require.Nil(t, events[0].Data)
	require.True(t, base.Equal(events[1].CreatedAt))
}

func TestActivityRepository_FiltersAndTenantIsolation(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	now := time.Now().UTC()
	older := newEvent(activity.TypeTaskCreated, now, "")
	newer := newEvent(activity.TypeTaskUpdated, now.Add(time.Millisecond), "")
	other := newEvent(activity.TypeTaskCreated, now, "")
	require.NoError(t, repo.Log(ctx, "tenant1", older))
	require.NoError(t, repo.Log(ctx, "tenant1", newer))
	require.NoError(t, repo.Log(ctx, "tenant2", other))

	typ := activity.TypeTaskCreated
	events, err := repo.List(ctx, "tenant1", activity.ListOptions{Type: &typ})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, older.ID, events[0].ID)

	events, err = repo.List(ctx, "tenant1", activity.ListOptions{Since: older.ID})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, newer.ID, events[0].ID)

	events, err = repo.List(ctx, "tenant1", activity.ListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, events, 1)

	events, err = repo.List(ctx, "tenant3", activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, events, 0)
}

func TestActivityRepository_DuplicateID(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	ev := newEvent(activity.TypeTaskCreated, time.Now().UTC(), "")
	require.NoError(t, repo.Log(ctx, "tenant1", ev))
	require.ErrorIs(t, repo.Log(ctx, "tenant1", ev), repository.ErrConflict)
}
