package event_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klwxsrx/edu-resource-client/pkg/event"
)

type testEvent struct {
	id      uuid.UUID
	Payload string
}

func (e testEvent) ID() uuid.UUID { return e.id }

func (e testEvent) Type() string { return "test_event" }

type otherEvent struct{}

func (e otherEvent) ID() uuid.UUID { return uuid.Nil }

func (e otherEvent) Type() string { return "other_event" }

func TestDispatcher_Dispatch_CallsSubscribedHandlers(t *testing.T) {
	dispatcher := event.NewDispatcher()

	var received []string
	dispatcher.Subscribe("test_event", event.NewTypedHandler(func(_ context.Context, evt testEvent) error {
		received = append(received, "first:"+evt.Payload)
		return nil
	}))
	dispatcher.Subscribe("test_event", event.NewTypedHandler(func(_ context.Context, evt testEvent) error {
		received = append(received, "second:"+evt.Payload)
		return nil
	}))

	err := dispatcher.Dispatch(context.Background(), testEvent{id: uuid.New(), Payload: "a"}, otherEvent{})
	require.NoError(t, err)
	assert.Equal(t, []string{"first:a", "second:a"}, received)
}

func TestDispatcher_Dispatch_JoinsHandlerErrors(t *testing.T) {
	dispatcher := event.NewDispatcher()

	called := false
	dispatcher.Subscribe("test_event", func(context.Context, event.Event) error {
		return errors.New("unexpected")
	})
	dispatcher.Subscribe("test_event", func(context.Context, event.Event) error {
		called = true
		return nil
	})

	err := dispatcher.Dispatch(context.Background(), testEvent{id: uuid.New()})
	assert.Error(t, err)
	assert.True(t, called)
}

func TestNewTypedHandler_ReturnsError_WhenTypeMismatch(t *testing.T) {
	handler := event.NewTypedHandler(func(context.Context, testEvent) error { return nil })
	assert.Error(t, handler(context.Background(), otherEvent{}))
}
