package state

import (
	"context"

	"github.com/lightswitch/switchboard/internal/output"
)

// Publisher receives every committed change. PublishDelta is called while
// the index lock is still held, so calls for one index arrive in commit
// order; it must not block on network I/O.
type Publisher interface {
	PublishDelta(Change)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Change)

func (f PublisherFunc) PublishDelta(c Change) { f(c) }

// Reconciler serializes toggles per index. Requests for the same index run
// strictly one at a time in the order they acquire the index lock;
// requests for different indices never wait on each other.
type Reconciler struct {
	store *Store
	pub   Publisher
	locks [output.Lines]chan struct{}
}

func NewReconciler(store *Store, pub Publisher) *Reconciler {
	r := &Reconciler{store: store, pub: pub}
	for i := range r.locks {
		r.locks[i] = make(chan struct{}, 1)
	}
	return r
}

// Apply toggles index and publishes the resulting delta. A request still
// waiting for its index when ctx ends gives up without touching the store.
// Nothing is published when the store reports an error.
func (r *Reconciler) Apply(ctx context.Context, index int) (Change, error) {
	if err := output.CheckIndex(index); err != nil {
		return Change{}, err
	}

	lock := r.locks[index]
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return Change{}, ctx.Err()
	}
	defer func() { <-lock }()

	// Once admitted the toggle runs to completion even if the requester
	// goes away, so the line is never left mid-write.
	ch, err := r.store.Toggle(context.WithoutCancel(ctx), index)
	if err != nil {
		return Change{}, err
	}
	if r.pub != nil {
		r.pub.PublishDelta(ch)
	}
	return ch, nil
}

// SetPublisher replaces the publisher. It must be called before the first
// Apply.
func (r *Reconciler) SetPublisher(pub Publisher) {
	r.pub = pub
}
