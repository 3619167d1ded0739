package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goalmateAPI/internal/store"
	"goalmateAPI/internal/types/cheer"
	"goalmateAPI/internal/types/goal"
)

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	m := New()

	g := &goal.Goal{ID: uuid.New(), CreatedByID: uuid.New(), Visibility: goal.VisibilityPublic, CreatedAt: time.Now()}
	require.NoError(t, m.CreateGoal(ctx, g))

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(st store.Store) error {
		if err := st.CreateCheer(ctx, &cheer.Cheer{ID: uuid.New(), GoalID: g.ID, CreatedByID: uuid.New(), CreatedAt: time.Now()}); err != nil {
			return err
		}
		if _, err := st.DeleteGoal(ctx, g.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// both writes were undone
	_, err = m.RetrieveGoal(ctx, g.ID)
	require.NoError(t, err)
	cheers, total, err := m.CheersByGoal(ctx, g.ID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, cheers)
	assert.Zero(t, total)
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	m := New()

	g := &goal.Goal{ID: uuid.New(), CreatedByID: uuid.New(), Visibility: goal.VisibilityPublic, CreatedAt: time.Now()}
	err := m.WithTx(ctx, func(st store.Store) error {
		return st.CreateGoal(ctx, g)
	})
	require.NoError(t, err)

	_, err = m.RetrieveGoal(ctx, g.ID)
	require.NoError(t, err)
}

func TestDuplicateCheerRejected(t *testing.T) {
	ctx := context.Background()
	m := New()

	goalID := uuid.New()
	userID := uuid.New()
	require.NoError(t, m.CreateCheer(ctx, &cheer.Cheer{ID: uuid.New(), GoalID: goalID, CreatedByID: userID, CreatedAt: time.Now()}))

	err := m.CreateCheer(ctx, &cheer.Cheer{ID: uuid.New(), GoalID: goalID, CreatedByID: userID, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}
