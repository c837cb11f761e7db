// Package pubsub is the broadcast channel that keeps open dashboard
// sessions converged without full reloads: state changes are published
// on a subject and every subscribed session reconciles in place.
package pubsub

import "context"

// Handler receives the payload published on a subject.
type Handler func(payload []byte)

// Bus fans messages out to all subscribers of a subject.
type Bus interface {
	// Publish delivers payload to every subscriber of subject.
	Publish(ctx context.Context, subject string, payload []byte) error

	// Subscribe registers handler for subject and returns an unsubscribe
	// function.
	Subscribe(subject string, handler Handler) (func(), error)
}
