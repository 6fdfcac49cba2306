// Package reconcile implements the optimistic mutation pattern the web
// client applies to reactions and comments: snapshot the displayed state,
// apply a tentative update synchronously, run the remote mutation, then
// either keep the tentative state or restore the snapshot on failure.
package reconcile

import (
	"context"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Mutation tracks one optimistic update against a piece of displayed state.
// The snapshot is taken eagerly so Rollback always restores the exact
// pre-mutation value, regardless of how many tentative changes were applied.
type Mutation[S any] struct {
	target   *S
	snapshot S
	settled  bool
}

// New snapshots *target via clone. Pass nil clone for states that copy
// safely by value; states holding slices or maps need a real clone or the
// snapshot aliases the mutated value.
func New[S any](target *S, clone func(S) S) *Mutation[S] {
	m := &Mutation[S]{target: target}
	if clone != nil {
		m.snapshot = clone(*target)
	} else {
		m.snapshot = *target
	}
	return m
}

// Apply runs a tentative update against the live state. May be called more
// than once before the mutation settles.
func (m *Mutation[S]) Apply(update func(*S)) {
	if m.settled {
		return
	}
	update(m.target)
}

// Commit keeps the tentative state. Further Apply/Rollback calls are no-ops.
func (m *Mutation[S]) Commit() {
	m.settled = true
}

// Rollback restores the snapshot taken at New and settles the mutation.
func (m *Mutation[S]) Rollback() {
	if m.settled {
		return
	}
	*m.target = m.snapshot
	m.settled = true
}

// Settled reports whether the mutation has been committed or rolled back.
func (m *Mutation[S]) Settled() bool {
	return m.settled
}

// Do is the full contract in one call: tentative update, remote mutation,
// commit on success, rollback on any failure. The returned error is the
// remote error; the caller never sees partial tentative state alongside it.
func Do[S any](ctx context.Context, target *S, clone func(S) S, update func(*S), remote func(context.Context) error) error {
	m := New(target, clone)
	m.Apply(update)
	if err := remote(ctx); err != nil {
		m.Rollback()
		return err
	}
	m.Commit()
	return nil
}

const tempIDPrefix = "temp-"

// TempID generates a local placeholder id for tentative records, shaped so
// it can never collide with a store-assigned id.
func TempID() string {
	id, err := gonanoid.New()
	if err != nil {
		// gonanoid only fails when the OS entropy source does.
		return tempIDPrefix + "0"
	}
	return tempIDPrefix + id
}

// IsTempID reports whether id names a tentative record awaiting
// reconciliation.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}
