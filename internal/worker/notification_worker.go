package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/nsrz/intranet/internal/events"
	"github.com/nsrz/intranet/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to the dispatcher.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// AsyncDispatcher queues events and delivers them to an inner dispatcher on one goroutine,
// so slow handlers never hold up a request. A full queue drops the event with a warning.
type AsyncDispatcher struct {
	inner  events.Dispatcher
	queue  chan events.Event
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewAsyncDispatcher wraps inner with a queue of the given size.
func NewAsyncDispatcher(inner events.Dispatcher, size int, logger *zap.Logger) *AsyncDispatcher {
	if size <= 0 {
		size = 64
	}
	return &AsyncDispatcher{inner: inner, queue: make(chan events.Event, size), logger: logger}
}

// Subscribe registers on the inner dispatcher.
func (d *AsyncDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.inner.Subscribe(eventType, handler)
}

// Publish enqueues the event and returns immediately.
func (d *AsyncDispatcher) Publish(_ context.Context, event events.Event) error {
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("event queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.Int64("entity_id", event.EntityID))
	}
	return nil
}

// Start delivers queued events until ctx is cancelled, then drains what is left.
func (d *AsyncDispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case event := <-d.queue:
				d.deliver(event)
			case <-ctx.Done():
				for {
					select {
					case event := <-d.queue:
						d.deliver(event)
					default:
						return
					}
				}
			}
		}
	}()
}

// Wait blocks until the delivery goroutine has exited.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}

func (d *AsyncDispatcher) deliver(event events.Event) {
	if err := d.inner.Publish(context.Background(), event); err != nil {
		d.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("entity_id", event.EntityID),
			zap.Error(err))
	}
}
