package feed

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goalmateAPI/internal/store"
	"goalmateAPI/internal/store/memstore"
	"goalmateAPI/internal/types/cheer"
	"goalmateAPI/internal/types/comment"
	"goalmateAPI/internal/types/goal"
	"goalmateAPI/internal/types/support"
	"goalmateAPI/internal/types/user"
)

func seedUser(t *testing.T, st *memstore.MemStore, name string) *user.User {
	t.Helper()
	u := &user.User{
		ID:       uuid.New(),
		Name:     name,
		Username: name,
		Email:    name + "@example.com",
	}
	st.SeedUser(u)
	return u
}

func seedGoal(t *testing.T, st *memstore.MemStore, owner *user.User, vis goal.Visibility, createdAt time.Time) *goal.Goal {
	t.Helper()
	g := &goal.Goal{
		ID:          uuid.New(),
		CreatedByID: owner.ID,
		Specific:    "run a marathon",
		Visibility:  vis,
		Status:      goal.StatusInProgress,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, st.CreateGoal(context.Background(), g))
	return g
}

func seedSupport(t *testing.T, st *memstore.MemStore, supporter, supporting *user.User) *support.Support {
	t.Helper()
	sup := &support.Support{
		ID:           uuid.New(),
		SupporterID:  supporter.ID,
		SupportingID: supporting.ID,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, st.CreateSupport(context.Background(), sup))
	return sup
}

func goalIDs(views []*GoalView) []uuid.UUID {
	ids := make([]uuid.UUID, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	return ids
}

func TestComposeGoalsSupportersTier(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	owner := seedUser(t, st, "alice")
	supporter := seedUser(t, st, "bob")
	stranger := seedUser(t, st, "carol")
	g := seedGoal(t, st, owner, goal.VisibilitySupporters, time.Now())
	sup := seedSupport(t, st, supporter, owner)

	composer := NewComposer(st)

	// supporter sees the goal with the support edge attached
	views, _, err := composer.ComposeGoals(ctx, goal.Filter{}, &supporter.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, g.ID, views[0].ID)
	require.NotNil(t, views[0].MySupport)
	assert.Equal(t, sup.ID, views[0].MySupport.ID)

	// non-supporter does not
	views, _, err = composer.ComposeGoals(ctx, goal.Filter{}, &stranger.ID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, views)

	// owner always sees their own goal
	views, _, err = composer.ComposeGoals(ctx, goal.Filter{}, &owner.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, views, 1)
}

func TestComposeGoalsAnonymousListRelaxation(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	owner := seedUser(t, st, "alice")
	g := seedGoal(t, st, owner, goal.VisibilitySupporters, time.Now())

	composer := NewComposer(st)

	// no supporters yet: the anonymous list excludes the goal
	views, _, err := composer.ComposeGoals(ctx, goal.Filter{}, nil, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, views)

	supporter := seedUser(t, st, "bob")
	seedSupport(t, st, supporter, owner)

	// one supporter exists: the anonymous list view admits it,
	// without a viewer-relative support marker
	views, _, err = composer.ComposeGoals(ctx, goal.Filter{}, nil, 1, 10)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, g.ID, views[0].ID)
	assert.Nil(t, views[0].MySupport)

	// the detail view stays strict for anonymous viewers
	_, err = composer.ComposeGoal(ctx, g.ID, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestComposeGoalsPrivateOnlyOwner(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	owner := seedUser(t, st, "alice")
	supporter := seedUser(t, st, "bob")
	seedSupport(t, st, supporter, owner)
	g := seedGoal(t, st, owner, goal.VisibilityPrivate, time.Now())

	composer := NewComposer(st)

	views, _, err := composer.ComposeGoals(ctx, goal.Filter{}, &owner.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{g.ID}, goalIDs(views))

	// even the owner's supporter is excluded
	views, _, err = composer.ComposeGoals(ctx, goal.Filter{}, &supporter.ID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = composer.ComposeGoal(ctx, g.ID, &supporter.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestComposeGoalsRevokedSupportNotVisible(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	owner := seedUser(t, st, "alice")
	supporter := seedUser(t, st, "bob")
	seedGoal(t, st, owner, goal.VisibilitySupporters, time.Now())
	sup := seedSupport(t, st, supporter, owner)

	composer := NewComposer(st)

	views, _, err := composer.ComposeGoals(ctx, goal.Filter{}, &supporter.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, views, 1)

	_, err = st.DeleteSupport(ctx, sup.ID)
	require.NoError(t, err)

	// next read reflects the revocation immediately
	views, _, err = composer.ComposeGoals(ctx, goal.Filter{}, &supporter.ID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestComposeGoalsPaginationAfterVisibility(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	owner := seedUser(t, st, "alice")
	viewer := seedUser(t, st, "bob")

	base := time.Now()
	for i := 0; i < 3; i++ {
		seedGoal(t, st, owner, goal.VisibilityPublic, base.Add(time.Duration(i)*time.Minute))
	}
	for i := 0; i < 5; i++ {
		seedGoal(t, st, owner, goal.VisibilityPrivate, base.Add(time.Duration(10+i)*time.Minute))
	}

	composer := NewComposer(st)

	views, pagination, err := composer.ComposeGoals(ctx, goal.Filter{}, &viewer.ID, 1, 2)
	require.NoError(t, err)
	assert.Len(t, views, 2)
	// counts reflect only the 3 visible goals, not all 8
	assert.Equal(t, 3, pagination.TotalDocument)
	assert.Equal(t, 2, pagination.PageCount)

	views, _, err = composer.ComposeGoals(ctx, goal.Filter{}, &viewer.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	views, _, err = composer.ComposeGoals(ctx, goal.Filter{}, &viewer.ID, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestComposeGoalsCheerAndCommentAggregates(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	owner := seedUser(t, st, "alice")
	viewer := seedUser(t, st, "bob")
	other := seedUser(t, st, "carol")
	g := seedGoal(t, st, owner, goal.VisibilityPublic, time.Now())

	myCheer := &cheer.Cheer{ID: uuid.New(), GoalID: g.ID, CreatedByID: viewer.ID, CreatedAt: time.Now()}
	require.NoError(t, st.CreateCheer(ctx, myCheer))
	require.NoError(t, st.CreateCheer(ctx, &cheer.Cheer{ID: uuid.New(), GoalID: g.ID, CreatedByID: other.ID, CreatedAt: time.Now()}))

	older := &comment.Comment{ID: uuid.New(), GoalID: g.ID, Comment: "first", CreatedByID: other.ID, CreatedAt: time.Now().Add(-time.Hour)}
	newer := &comment.Comment{ID: uuid.New(), GoalID: g.ID, Comment: "second", CreatedByID: viewer.ID, CreatedAt: time.Now()}
	require.NoError(t, st.CreateComment(ctx, older))
	require.NoError(t, st.CreateComment(ctx, newer))

	composer := NewComposer(st)

	views, _, err := composer.ComposeGoals(ctx, goal.Filter{}, &viewer.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, views, 1)

	v := views[0]
	assert.Equal(t, 2, v.TotalCheers)
	assert.Equal(t, myCheer.ID.String(), v.MyCheeredID)
	assert.Equal(t, 2, v.TotalComments)
	require.NotNil(t, v.LatestComment)
	assert.Equal(t, newer.ID, v.LatestComment.ID)
	require.NotNil(t, v.LatestComment.CreatedBy)
	assert.Equal(t, viewer.ID, v.LatestComment.CreatedBy.ID)

	// anonymous viewers get counts but no my_cheered_id
	views, _, err = composer.ComposeGoals(ctx, goal.Filter{}, nil, 1, 10)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 2, views[0].TotalCheers)
	assert.Empty(t, views[0].MyCheeredID)
}

func TestComposeGoalsAbsentOwnerStillIncluded(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	viewer := seedUser(t, st, "bob")

	// goal whose owner row is gone
	g := &goal.Goal{
		ID:          uuid.New(),
		CreatedByID: uuid.New(),
		Visibility:  goal.VisibilityPublic,
		Status:      goal.StatusInProgress,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, st.CreateGoal(ctx, g))

	composer := NewComposer(st)

	views, _, err := composer.ComposeGoals(ctx, goal.Filter{}, &viewer.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Nil(t, views[0].CreatedBy)
}

func TestComposeProgressGlobalOrder(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	owner := seedUser(t, st, "alice")
	viewer := seedUser(t, st, "bob")

	base := time.Now()
	g1 := seedGoal(t, st, owner, goal.VisibilityPublic, base)
	g2 := seedGoal(t, st, owner, goal.VisibilityPublic, base)
	hidden := seedGoal(t, st, owner, goal.VisibilityPrivate, base)

	p1 := goal.ProgressEntry{ID: uuid.New(), GoalID: g1.ID, Caption: "p1", CreatedAt: base.Add(1 * time.Minute)}
	p2 := goal.ProgressEntry{ID: uuid.New(), GoalID: g2.ID, Caption: "p2", CreatedAt: base.Add(2 * time.Minute)}
	p3 := goal.ProgressEntry{ID: uuid.New(), GoalID: g1.ID, Caption: "p3", CreatedAt: base.Add(3 * time.Minute)}
	secret := goal.ProgressEntry{ID: uuid.New(), GoalID: hidden.ID, Caption: "secret", CreatedAt: base.Add(4 * time.Minute)}

	for _, entry := range []goal.ProgressEntry{p1, p2, p3, secret} {
		n, err := st.AppendGoalProgress(ctx, entry.GoalID, entry)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
	}

	composer := NewComposer(st)

	rows, pagination, err := composer.ComposeProgress(ctx, goal.Filter{}, &viewer.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 3, pagination.TotalDocument)

	// newest entry first across goals; the private goal's entry is absent
	assert.Equal(t, "p3", rows[0].Caption)
	assert.Equal(t, "p2", rows[1].Caption)
	assert.Equal(t, "p1", rows[2].Caption)

	for _, row := range rows {
		require.NotNil(t, row.CreatedBy)
		assert.Equal(t, owner.ID, row.CreatedBy.ID)
		assert.Equal(t, goal.StatusInProgress, row.GoalStatus)
	}
}

func TestComposeGoalDetailStrictRule(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	owner := seedUser(t, st, "alice")
	supporter := seedUser(t, st, "bob")
	stranger := seedUser(t, st, "carol")
	seedSupport(t, st, supporter, owner)
	g := seedGoal(t, st, owner, goal.VisibilitySupporters, time.Now())

	composer := NewComposer(st)

	view, err := composer.ComposeGoal(ctx, g.ID, &supporter.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, view.ID)
	require.NotNil(t, view.CreatedBy)
	assert.Equal(t, owner.ID, view.CreatedBy.ID)

	_, err = composer.ComposeGoal(ctx, g.ID, &stranger.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = composer.ComposeGoal(ctx, uuid.New(), &supporter.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
