package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventDepartmentCreated EventType = "department_created"
	EventDepartmentDeleted EventType = "department_deleted"
	EventUserCreated       EventType = "user_created"
	EventNewsPublished     EventType = "news_published"
)

// Event represents a domain event emitted by services after their transaction commits.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntityID  int64       `json:"entity_id"`
	ActorID   *int64      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, entityID int64, actorID *int64, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		EntityID:  entityID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// DepartmentCreatedPayload payload.
type DepartmentCreatedPayload struct {
	Name     string `json:"name"`
	CodeZup  string `json:"code_zup"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// DepartmentDeletedPayload payload.
type DepartmentDeletedPayload struct {
	Name string `json:"name"`
}

// UserCreatedPayload payload.
type UserCreatedPayload struct {
	Email        string `json:"email"`
	Role         string `json:"role"`
	DepartmentID int64  `json:"department_id"`
}

// NewsPublishedPayload payload.
type NewsPublishedPayload struct {
	Title string `json:"title"`
}
