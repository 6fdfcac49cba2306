package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counts struct {
	Likes int
	Loves int
}

func TestMutationCommit(t *testing.T) {
	state := counts{Likes: 3}

	m := New(&state, nil)
	m.Apply(func(c *counts) { c.Likes++ })
	assert.Equal(t, 4, state.Likes)

	m.Commit()
	assert.True(t, m.Settled())

	// Settled mutations ignore further calls.
	m.Apply(func(c *counts) { c.Likes = 99 })
	m.Rollback()
	assert.Equal(t, 4, state.Likes)
}

func TestMutationRollback(t *testing.T) {
	state := counts{Likes: 3, Loves: 1}

	m := New(&state, nil)
	m.Apply(func(c *counts) { c.Likes++ })
	m.Apply(func(c *counts) { c.Loves++ })
	assert.Equal(t, counts{Likes: 4, Loves: 2}, state)

	m.Rollback()
	assert.Equal(t, counts{Likes: 3, Loves: 1}, state)
	assert.True(t, m.Settled())
}

func TestMutationCloneForSlices(t *testing.T) {
	state := []string{"a", "b"}

	clone := func(s []string) []string {
		return append([]string(nil), s...)
	}

	m := New(&state, clone)
	m.Apply(func(s *[]string) { *s = append([]string{"new"}, *s...) })
	require.Equal(t, []string{"new", "a", "b"}, state)

	m.Rollback()
	assert.Equal(t, []string{"a", "b"}, state)
}

func TestDo(t *testing.T) {
	t.Run("commits on remote success", func(t *testing.T) {
		state := counts{Likes: 1}
		err := Do(context.Background(), &state, nil,
			func(c *counts) { c.Likes++ },
			func(ctx context.Context) error { return nil },
		)
		require.NoError(t, err)
		assert.Equal(t, 2, state.Likes)
	})

	t.Run("rolls back on remote failure", func(t *testing.T) {
		state := counts{Likes: 1}
		remoteErr := errors.New("network down")
		err := Do(context.Background(), &state, nil,
			func(c *counts) { c.Likes++ },
			func(ctx context.Context) error { return remoteErr },
		)
		assert.ErrorIs(t, err, remoteErr)
		assert.Equal(t, 1, state.Likes, "tentative state must not survive a failed remote")
	})
}

func TestTempID(t *testing.T) {
	id := TempID()
	assert.True(t, IsTempID(id))
	assert.NotEqual(t, id, TempID())

	assert.False(t, IsTempID("01890a5d-ac96-774b-bcce-b302099a8057"))
	assert.False(t, IsTempID(""))
}
