package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/nsrz/intranet/internal/events"
)

// fieldErrors collects per-field validation messages.
type fieldErrors map[string]any

func (f fieldErrors) require(field, value string) {
	if strings.TrimSpace(value) == "" {
		f[field] = "required"
	}
}

func (f fieldErrors) requireIfSet(field string, value *string) {
	if value != nil {
		f.require(field, *value)
	}
}

func (f fieldErrors) requireID(field string, id int64) {
	if id <= 0 {
		f[field] = "must be a positive id"
	}
}

// publish hands the event to the dispatcher. Handler failures are logged only:
// the write has already committed.
func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("entity_id", event.EntityID),
			zap.Error(err))
	}
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
