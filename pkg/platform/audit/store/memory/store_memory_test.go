package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "riskwatch/pkg/platform/audit"
)

func TestInMemoryStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Append(ctx, audit.Event{
		Actor:    "crud-service",
		Action:   string(audit.EventRiskAssessed),
		EntityID: "a-1",
		Diff:     map[string]any{"tier": "low"},
	}))
	require.NoError(t, store.Append(ctx, audit.Event{Action: "risk.viewed", EntityID: "a-1"}))
	require.NoError(t, store.Append(ctx, audit.Event{Action: string(audit.EventRiskAssessed), EntityID: "a-2"}))

	events, err := store.ListByEntity(ctx, "a-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.Equal(t, audit.CategoryOperations, events[1].Category)
	assert.False(t, events[0].Timestamp.IsZero())

	store.Clear()
	events, err = store.ListByEntity(ctx, "a-1")
	require.NoError(t, err)
	assert.Empty(t, events)
}
