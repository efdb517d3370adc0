package worker

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nsrz/intranet/internal/config"
	"github.com/nsrz/intranet/internal/events"
	"github.com/nsrz/intranet/internal/service"
)

func TestAsyncDispatcher_DeliversQueuedEvents(t *testing.T) {
	inner := events.NewInMemoryDispatcher()
	d := NewAsyncDispatcher(inner, 8, zap.NewNop())

	var delivered atomic.Int32
	d.Subscribe(events.EventNewsPublished, func(context.Context, events.Event) error {
		delivered.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Publish(context.Background(), events.New(events.EventNewsPublished, int64(i), nil, nil)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()
	d.Wait()

	assert.Equal(t, int32(5), delivered.Load())
}

func TestAsyncDispatcher_DropsWhenFull(t *testing.T) {
	d := NewAsyncDispatcher(events.NewInMemoryDispatcher(), 1, zap.NewNop())

	require.NoError(t, d.Publish(context.Background(), events.New(events.EventUserCreated, 1, nil, nil)))
	require.NoError(t, d.Publish(context.Background(), events.New(events.EventUserCreated, 2, nil, nil)))
	assert.Len(t, d.queue, 1)
}

func TestStartNotificationWorker_Subscribes(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{EmailFrom: "noreply@corp"})

	StartNotificationWorker(notifications)
	StartNotificationWorker(nil)

	err := dispatcher.Publish(context.Background(), events.New(events.EventUserCreated, 1, nil, events.UserCreatedPayload{Email: "a@b"}))
	assert.NoError(t, err)
}
