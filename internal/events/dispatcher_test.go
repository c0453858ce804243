package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRoutesByType(t *testing.T) {
	d := NewInMemoryDispatcher()

	var created, escalated int
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		created++
		return nil
	})
	d.Subscribe(EventTicketEscalated, func(context.Context, Event) error {
		escalated++
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: 1}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: 2}))

	assert.Equal(t, 2, created)
	assert.Zero(t, escalated)
}

func TestDispatcherHandlerErrorDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var second bool
	d.Subscribe(EventReplyAdded, func(context.Context, Event) error {
		return errors.New("boom")
	})
	d.Subscribe(EventReplyAdded, func(context.Context, Event) error {
		second = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventReplyAdded}))
	assert.True(t, second)
}
