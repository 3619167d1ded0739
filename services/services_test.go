package services

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goalmateAPI/internal/apperror"
	"goalmateAPI/internal/feed"
	"goalmateAPI/internal/outbox"
	"goalmateAPI/internal/store"
	"goalmateAPI/internal/store/memstore"
	"goalmateAPI/internal/types/goal"
	"goalmateAPI/internal/types/notification"
	"goalmateAPI/internal/types/user"
)

type capturedPublish struct {
	Channel string
	Event   string
	Payload any
}

type capturePublisher struct {
	mu     sync.Mutex
	events []capturedPublish
}

func (p *capturePublisher) Publish(ctx context.Context, channel, event string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedPublish{Channel: channel, Event: event, Payload: payload})
	return nil
}

func (p *capturePublisher) all() []capturedPublish {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]capturedPublish, len(p.events))
	copy(out, p.events)
	return out
}

type captureBlob struct {
	mu      sync.Mutex
	deleted []string
}

func (b *captureBlob) Delete(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, path)
	return nil
}

func (b *captureBlob) PublicDomain() string { return "https://cdn.example.com" }

type fixture struct {
	store      *memstore.MemStore
	dispatcher *outbox.Dispatcher
	publisher  *capturePublisher
	blob       *captureBlob

	notifications *NotificationService
	goals         *GoalService
	cheers        *CheerService
	comments      *CommentService
	supports      *SupportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	dispatcher := outbox.NewDispatcher(1)
	publisher := &capturePublisher{}
	blobStorage := &captureBlob{}

	notifications := NewNotificationService(st, publisher, nil)
	composer := feed.NewComposer(st)

	return &fixture{
		store:         st,
		dispatcher:    dispatcher,
		publisher:     publisher,
		blob:          blobStorage,
		notifications: notifications,
		goals:         NewGoalService(st, composer, dispatcher, blobStorage),
		cheers:        NewCheerService(st, dispatcher, notifications),
		comments:      NewCommentService(st, dispatcher, notifications),
		supports:      NewSupportService(st, dispatcher, notifications),
	}
}

// drain waits for all queued outbox tasks to finish.
func (f *fixture) drain() {
	f.dispatcher.Stop()
}

func (f *fixture) user(t *testing.T, name string) *user.User {
	t.Helper()
	u := &user.User{
		ID:       uuid.New(),
		Name:     name,
		Username: name,
		Email:    name + "@example.com",
	}
	f.store.SeedUser(u)
	return u
}

func (f *fixture) goal(t *testing.T, owner *user.User) *goal.Goal {
	t.Helper()
	g, err := f.goals.Create(context.Background(), owner.ID, CreateGoalInput{
		Specific:     "learn the violin",
		ThumbnailURL: "goals/violin/thumb.jpg",
		Time:         time.Now().Add(30 * 24 * time.Hour),
		Visibility:   goal.VisibilityPublic,
	})
	require.NoError(t, err)
	return g
}

func (f *fixture) inbox(t *testing.T, recipient uuid.UUID, filter notification.Filter) []*NotificationView {
	t.Helper()
	views, _, err := f.notifications.RetrieveAll(context.Background(), recipient, filter, 1, 50)
	require.NoError(t, err)
	return views
}

func TestCreateCheerFansOutToOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice")
	actor := f.user(t, "bob")
	g := f.goal(t, owner)

	c, err := f.cheers.Create(ctx, g.ID, actor.ID)
	require.NoError(t, err)
	require.NotNil(t, c)
	f.drain()

	inbox := f.inbox(t, owner.ID, notification.Filter{})
	require.Len(t, inbox, 1)
	assert.Equal(t, notification.TypeCheers, inbox[0].Type)
	assert.Equal(t, "bob is cheers on your goal", inbox[0].Message)
	require.NotNil(t, inbox[0].Actor)
	assert.Equal(t, actor.ID, inbox[0].Actor.ID)
	assert.Equal(t, g.ID.String(), inbox[0].Entities["goal"])

	events := f.publisher.all()
	require.NotEmpty(t, events)
	assert.Equal(t, "notifications:"+owner.ID.String(), events[0].Channel)
	assert.Equal(t, "new", events[0].Event)
}

func TestCreateCheerDuplicateConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice")
	actor := f.user(t, "bob")
	g := f.goal(t, owner)

	_, err := f.cheers.Create(ctx, g.ID, actor.ID)
	require.NoError(t, err)

	_, err = f.cheers.Create(ctx, g.ID, actor.ID)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)

	// the failed attempt left the cheer count untouched
	view, err := f.goals.Retrieve(ctx, g.ID, &actor.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.TotalCheers)
	f.drain()
}

func TestCreateCheerOnOwnGoalSuppressed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice")
	g := f.goal(t, owner)

	_, err := f.cheers.Create(ctx, g.ID, owner.ID)
	require.NoError(t, err)
	f.drain()

	assert.Empty(t, f.inbox(t, owner.ID, notification.Filter{}))
	assert.Empty(t, f.publisher.all())
}

func TestCreateCheerMissingGoalRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	actor := f.user(t, "bob")

	_, err := f.cheers.Create(ctx, uuid.New(), actor.ID)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
	f.drain()
}

func TestCommentReplyEmitsPlainCommentEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice")
	commenter := f.user(t, "bob")
	replier := f.user(t, "carol")
	g := f.goal(t, owner)

	parent, err := f.comments.Create(ctx, commenter.ID, CreateCommentInput{
		GoalID:  g.ID,
		Comment: "keep going!",
	})
	require.NoError(t, err)

	_, err = f.comments.Create(ctx, replier.ID, CreateCommentInput{
		GoalID:   g.ID,
		ParentID: &parent.ID,
		Comment:  "agreed",
	})
	require.NoError(t, err)
	f.drain()

	// the goal owner got one event per comment, both plain "comment";
	// the parent author got nothing for the reply
	inbox := f.inbox(t, owner.ID, notification.Filter{})
	require.Len(t, inbox, 2)
	for _, n := range inbox {
		assert.Equal(t, notification.TypeComment, n.Type)
	}
	assert.Empty(t, f.inbox(t, commenter.ID, notification.Filter{}))
}

func TestSelfSupportRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	actor := f.user(t, "alice")

	_, err := f.supports.Create(ctx, actor.ID, actor.ID)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
	assert.Contains(t, appErr.Errors, "supporting_id")

	views, _, err := f.supports.RetrieveAll(ctx, store.SupportFilter{SupporterID: &actor.ID}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, views)
	f.drain()
}

func TestCreateSupportFansOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	supporter := f.user(t, "bob")
	supported := f.user(t, "alice")

	sup, err := f.supports.Create(ctx, supporter.ID, supported.ID)
	require.NoError(t, err)
	f.drain()

	inbox := f.inbox(t, supported.ID, notification.Filter{})
	require.Len(t, inbox, 1)
	assert.Equal(t, notification.TypeSupport, inbox[0].Type)
	assert.Equal(t, "bob is supporting you", inbox[0].Message)
	assert.Equal(t, sup.ID.String(), inbox[0].Entities["support"])
}

func TestDuplicateSupportConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	supporter := f.user(t, "bob")
	supported := f.user(t, "alice")

	_, err := f.supports.Create(ctx, supporter.ID, supported.ID)
	require.NoError(t, err)

	_, err = f.supports.Create(ctx, supporter.ID, supported.ID)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
	f.drain()
}

func TestDeleteSupportAlwaysNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	supporter := f.user(t, "bob")
	supported := f.user(t, "alice")

	sup, err := f.supports.Create(ctx, supporter.ID, supported.ID)
	require.NoError(t, err)

	require.NoError(t, f.supports.Delete(ctx, sup.ID, supporter.ID))
	f.drain()

	inbox := f.inbox(t, supported.ID, notification.Filter{})
	require.Len(t, inbox, 2)
	assert.Equal(t, notification.TypeUnsupport, inbox[0].Type)
	assert.Equal(t, "bob is no longer supporting you", inbox[0].Message)
}

func TestDeleteGoalCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice")
	other := f.user(t, "bob")
	g := f.goal(t, owner)

	_, err := f.goals.AppendProgress(ctx, g.ID, owner.ID, AppendProgressInput{
		Caption:      "week one",
		MediaURL:     "goals/violin/p1.mp4",
		ThumbnailURL: "goals/violin/p1.jpg",
	})
	require.NoError(t, err)

	_, err = f.cheers.Create(ctx, g.ID, other.ID)
	require.NoError(t, err)
	_, err = f.comments.Create(ctx, other.ID, CreateCommentInput{GoalID: g.ID, Comment: "nice"})
	require.NoError(t, err)

	require.NoError(t, f.goals.Delete(ctx, g.ID, owner.ID))
	f.drain()

	_, err = f.goals.Retrieve(ctx, g.ID, &owner.ID)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)

	cheers, _, _, err := f.cheers.RetrieveAll(ctx, g.ID, nil, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, cheers)

	comments, _, err := f.comments.RetrieveAll(ctx, g.ID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, comments)

	f.blob.mu.Lock()
	defer f.blob.mu.Unlock()
	assert.ElementsMatch(t, []string{
		"goals/violin/thumb.jpg",
		"goals/violin/p1.mp4",
		"goals/violin/p1.jpg",
	}, f.blob.deleted)

	// notifications outlive the entities that triggered them
	assert.NotEmpty(t, f.inbox(t, owner.ID, notification.Filter{}))
}

func TestDeleteGoalRequiresOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice")
	other := f.user(t, "bob")
	g := f.goal(t, owner)

	err := f.goals.Delete(ctx, g.ID, other.ID)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, appErr.Code)

	_, err = f.goals.Retrieve(ctx, g.ID, &owner.ID)
	require.NoError(t, err)
	f.drain()
}

func TestAppendProgressOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice")
	g := f.goal(t, owner)

	p1, err := f.goals.AppendProgress(ctx, g.ID, owner.ID, AppendProgressInput{Caption: "P1"})
	require.NoError(t, err)
	p2, err := f.goals.AppendProgress(ctx, g.ID, owner.ID, AppendProgressInput{Caption: "P2"})
	require.NoError(t, err)

	view, err := f.goals.Retrieve(ctx, g.ID, &owner.ID)
	require.NoError(t, err)
	require.Len(t, view.Progress, 2)
	assert.Equal(t, p2.ID, view.Progress[0].ID)
	assert.Equal(t, p1.ID, view.Progress[1].ID)
	f.drain()
}

func TestUpdateGoalStatusNoTransitionGraph(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice")
	g := f.goal(t, owner)

	// any state can follow any other
	require.NoError(t, f.goals.UpdateStatus(ctx, g.ID, owner.ID, goal.StatusAchieved))
	require.NoError(t, f.goals.UpdateStatus(ctx, g.ID, owner.ID, goal.StatusFailed))
	require.NoError(t, f.goals.UpdateStatus(ctx, g.ID, owner.ID, goal.StatusInProgress))

	err := f.goals.UpdateStatus(ctx, g.ID, owner.ID, goal.Status("paused"))
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Code)
	f.drain()
}

func TestNotificationListExcludesSystemByDefault(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	recipient := f.user(t, "alice")
	actor := f.user(t, "bob")

	_, err := f.supports.Create(ctx, actor.ID, recipient.ID)
	require.NoError(t, err)

	err = f.store.WithTx(ctx, func(st store.Store) error {
		_, err := f.notifications.Notify(ctx, st, NotifyInput{
			Type:        notification.TypeSystem,
			RecipientID: recipient.ID,
			Message:     "You have 1 day left to wrap up your goal.",
		})
		return err
	})
	require.NoError(t, err)
	f.drain()

	inbox := f.inbox(t, recipient.ID, notification.Filter{})
	require.Len(t, inbox, 1)
	assert.Equal(t, notification.TypeSupport, inbox[0].Type)

	systemType := notification.TypeSystem
	inbox = f.inbox(t, recipient.ID, notification.Filter{Type: &systemType})
	require.Len(t, inbox, 1)
	assert.Equal(t, "You have 1 day left to wrap up your goal.", inbox[0].Message)
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	recipient := f.user(t, "alice")
	actor := f.user(t, "bob")
	stranger := f.user(t, "carol")

	_, err := f.supports.Create(ctx, actor.ID, recipient.ID)
	require.NoError(t, err)
	f.drain()

	inbox := f.inbox(t, recipient.ID, notification.Filter{})
	require.Len(t, inbox, 1)

	// another user cannot mark it read
	err = f.notifications.MarkRead(ctx, inbox[0].ID, stranger.ID)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)

	require.NoError(t, f.notifications.MarkRead(ctx, inbox[0].ID, recipient.ID))
	isRead := true
	read := f.inbox(t, recipient.ID, notification.Filter{IsRead: &isRead})
	require.Len(t, read, 1)
}

func TestRegisterDeviceReplacesToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "alice")

	require.NoError(t, f.notifications.RegisterDevice(ctx, u.ID, "tok-1", "android"))
	require.NoError(t, f.notifications.RegisterDevice(ctx, u.ID, "tok-2", "ios"))
	require.NoError(t, f.notifications.RegisterDevice(ctx, u.ID, "tok-1", "android"))

	stored, err := f.store.RetrieveUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, stored.DeviceTokens, 2)
	f.drain()
}
