package pubsub

import "context"

const (
	// CreatedEvent announces a newly created resource.
	CreatedEvent EventType = "created"
	// UpdatedEvent announces a change to an existing resource.
	UpdatedEvent EventType = "updated"
	// DeletedEvent announces a removed resource.
	DeletedEvent EventType = "deleted"
	// FinishedEvent announces the end of a resource's lifecycle.
	FinishedEvent EventType = "finished"
)

// Subscriber receives events until its context ends.
type Subscriber[T any] interface {
	Subscribe(context.Context) <-chan Event[T]
}

type (
	// EventType identifies what happened to the payload.
	EventType string

	// Event is one occurrence in a resource's lifecycle.
	Event[T any] struct {
		Type    EventType
		Payload T
	}

	// Publisher fans events out to all subscribers.
	Publisher[T any] interface {
		Publish(EventType, T)
	}
)
