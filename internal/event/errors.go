package event

import "errors"

// Sentinel errors for the event package.
var (
	// ErrBusClosed is returned when publishing or subscribing on a closed bus.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrInvalidSubscription is returned for a subscription without a handler.
	ErrInvalidSubscription = errors.New("invalid subscription")

	// ErrInvalidMessage is returned when publishing a nil message.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrUnknownTopic is returned when parsing a notification that is not a lifecycle event.
	ErrUnknownTopic = errors.New("unknown lifecycle topic")

	// ErrBadPayload is returned when a lifecycle payload does not have the expected shape.
	ErrBadPayload = errors.New("malformed lifecycle payload")
)
