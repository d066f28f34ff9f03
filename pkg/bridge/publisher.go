package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"
)

const publisherLogPrefix = "bridge:publisher"

// ChangeEvent is one row of a database change feed, as republished to
// COMMS subscribers.
type ChangeEvent struct {
	DB      string   `json:"db"`
	ID      string   `json:"id"`
	Seq     string   `json:"seq"`
	Revs    []string `json:"revs,omitempty"`
	Deleted bool     `json:"deleted,omitempty"`
}

// Publisher publishes change events.
type Publisher interface {
	PublishChange(ctx context.Context, event *ChangeEvent) error
}

// NoOpPublisher is a Publisher that does nothing (for following a feed
// without republishing).
type NoOpPublisher struct{}

// PublishChange is a no-op.
func (p *NoOpPublisher) PublishChange(_ context.Context, _ *ChangeEvent) error {
	return nil
}

// CallbackPublisher is a Publisher that calls a callback function (for
// testing and in-process consumers).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *ChangeEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *ChangeEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishChange calls the callback.
func (p *CallbackPublisher) PublishChange(ctx context.Context, event *ChangeEvent) error {
	return p.callback(ctx, event)
}

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use
// defaults.
type CommsPublisherOpts struct {
	// GlobalSubject overrides the global change event subject.
	GlobalSubject string
}

// CommsPublisher publishes change events to COMMS subjects: the
// database's granular subject and the global one.
type CommsPublisher struct {
	nc            *comms.Conn
	globalSubject string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to
// use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	globalSubject := SubjectChanges
	if opts != nil && opts.GlobalSubject != "" {
		globalSubject = opts.GlobalSubject
	}
	return &CommsPublisher{nc: nc, globalSubject: globalSubject}
}

// PublishChange publishes a ChangeEvent to both the granular and global
// change subjects.
func (p *CommsPublisher) PublishChange(_ context.Context, event *ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", publisherLogPrefix, err)
	}

	granularSubject := BuildChangeSubject(event.DB)
	if err := p.nc.Publish(granularSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", publisherLogPrefix, granularSubject, err))
		return err
	}

	if err := p.nc.Publish(p.globalSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", publisherLogPrefix, p.globalSubject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - Published change %s for %s/%s", publisherLogPrefix, event.Seq, event.DB, event.ID))
	return nil
}
