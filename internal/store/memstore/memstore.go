// Package memstore is an in-memory store.Store used by tests. It mirrors
// pgstore's ordering and duplicate semantics so the feed and services can
// be exercised without a database.
package memstore

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"goalmateAPI/internal/store"
	"goalmateAPI/internal/types/cheer"
	"goalmateAPI/internal/types/comment"
	"goalmateAPI/internal/types/goal"
	"goalmateAPI/internal/types/notification"
	"goalmateAPI/internal/types/support"
	"goalmateAPI/internal/types/user"
)

type MemStore struct {
	mu sync.Mutex

	users         map[uuid.UUID]*user.User
	goals         map[uuid.UUID]*goal.Goal
	cheers        map[uuid.UUID]*cheer.Cheer
	comments      map[uuid.UUID]*comment.Comment
	supports      map[uuid.UUID]*support.Support
	notifications map[uuid.UUID]*notification.Notification
}

var _ store.Store = (*MemStore)(nil)

func New() *MemStore {
	return &MemStore{
		users:         make(map[uuid.UUID]*user.User),
		goals:         make(map[uuid.UUID]*goal.Goal),
		cheers:        make(map[uuid.UUID]*cheer.Cheer),
		comments:      make(map[uuid.UUID]*comment.Comment),
		supports:      make(map[uuid.UUID]*support.Support),
		notifications: make(map[uuid.UUID]*notification.Notification),
	}
}

// SeedUser inserts a user directly. Tests use it to set up accounts
// without going through an auth flow.
func (m *MemStore) SeedUser(u *user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
}

// WithTx snapshots all tables, runs fn against the same store, and
// restores the snapshot when fn fails. Mutating methods replace entries
// instead of editing them in place, so a shallow copy of each map is a
// sufficient snapshot.
func (m *MemStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	m.mu.Lock()
	users := cloneMap(m.users)
	goals := cloneMap(m.goals)
	cheers := cloneMap(m.cheers)
	comments := cloneMap(m.comments)
	supports := cloneMap(m.supports)
	notifications := cloneMap(m.notifications)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.users = users
		m.goals = goals
		m.cheers = cheers
		m.comments = comments
		m.supports = supports
		m.notifications = notifications
		m.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[V any](in map[uuid.UUID]V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// newerThan orders records newest-first: created_at descending, then id
// descending, matching the SQL ORDER BY used by pgstore.
func newerThan(aT time.Time, aID uuid.UUID, bT time.Time, bID uuid.UUID) bool {
	if !aT.Equal(bT) {
		return aT.After(bT)
	}
	return bytes.Compare(aID[:], bID[:]) > 0
}

func paginate[T any](items []T, page, pageSize int) []T {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// users

func (m *MemStore) RetrieveUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemStore) UsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]*user.User)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *MemStore) UpdateUserDeviceTokens(ctx context.Context, id uuid.UUID, tokens []user.DeviceToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	cp := *u
	cp.DeviceTokens = tokens
	cp.UpdatedAt = time.Now()
	m.users[id] = &cp
	return nil
}

// goals

func (m *MemStore) CreateGoal(ctx context.Context, g *goal.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	cp.Progress = nil
	m.goals[g.ID] = &cp
	return nil
}

func (m *MemStore) RetrieveGoal(ctx context.Context, id uuid.UUID) (*goal.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *MemStore) GoalsByFilter(ctx context.Context, f goal.Filter) ([]*goal.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var byIDs map[uuid.UUID]bool
	if f.CreatedByIDs != nil {
		byIDs = make(map[uuid.UUID]bool, len(f.CreatedByIDs))
		for _, id := range f.CreatedByIDs {
			byIDs[id] = true
		}
	}

	var goals []*goal.Goal
	for _, g := range m.goals {
		if f.CreatedByID != nil && g.CreatedByID != *f.CreatedByID {
			continue
		}
		if byIDs != nil && !byIDs[g.CreatedByID] {
			continue
		}
		if f.Status != nil && g.Status != *f.Status {
			continue
		}
		cp := *g
		goals = append(goals, &cp)
	}

	sort.Slice(goals, func(i, j int) bool {
		return newerThan(goals[i].CreatedAt, goals[i].ID, goals[j].CreatedAt, goals[j].ID)
	})
	return goals, nil
}

func (m *MemStore) GoalsDueBetween(ctx context.Context, from, to time.Time) ([]*goal.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var goals []*goal.Goal
	for _, g := range m.goals {
		if g.Status != goal.StatusInProgress {
			continue
		}
		if g.Time.Before(from) || !g.Time.Before(to) {
			continue
		}
		cp := *g
		goals = append(goals, &cp)
	}

	sort.Slice(goals, func(i, j int) bool {
		return goals[i].Time.Before(goals[j].Time)
	})
	return goals, nil
}

func (m *MemStore) UpdateGoalStatus(ctx context.Context, id uuid.UUID, status goal.Status) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok {
		return 0, nil
	}
	cp := *g
	cp.Status = status
	cp.UpdatedAt = time.Now()
	m.goals[id] = &cp
	return 1, nil
}

func (m *MemStore) AppendGoalProgress(ctx context.Context, goalID uuid.UUID, entry goal.ProgressEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[goalID]
	if !ok {
		return 0, nil
	}
	cp := *g
	cp.Progress = append([]goal.ProgressEntry{entry}, g.Progress...)
	cp.UpdatedAt = time.Now()
	m.goals[goalID] = &cp
	return 1, nil
}

func (m *MemStore) DeleteGoal(ctx context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.goals[id]; !ok {
		return 0, nil
	}
	delete(m.goals, id)
	return 1, nil
}

// cheers

func (m *MemStore) CreateCheer(ctx context.Context, c *cheer.Cheer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.cheers {
		if existing.GoalID == c.GoalID && existing.CreatedByID == c.CreatedByID {
			return store.ErrDuplicate
		}
	}
	cp := *c
	m.cheers[c.ID] = &cp
	return nil
}

func (m *MemStore) RetrieveCheer(ctx context.Context, id uuid.UUID) (*cheer.Cheer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cheers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemStore) CheerByGoalAndUser(ctx context.Context, goalID, userID uuid.UUID) (*cheer.Cheer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cheers {
		if c.GoalID == goalID && c.CreatedByID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemStore) cheersOf(goalID uuid.UUID) []*cheer.Cheer {
	var cheers []*cheer.Cheer
	for _, c := range m.cheers {
		if c.GoalID == goalID {
			cp := *c
			cheers = append(cheers, &cp)
		}
	}
	sort.Slice(cheers, func(i, j int) bool {
		return newerThan(cheers[i].CreatedAt, cheers[i].ID, cheers[j].CreatedAt, cheers[j].ID)
	})
	return cheers
}

func (m *MemStore) CheersByGoal(ctx context.Context, goalID uuid.UUID, page, pageSize int) ([]*cheer.Cheer, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cheers := m.cheersOf(goalID)
	return paginate(cheers, page, pageSize), len(cheers), nil
}

func (m *MemStore) CheersByGoalIDs(ctx context.Context, goalIDs []uuid.UUID) (map[uuid.UUID][]*cheer.Cheer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID][]*cheer.Cheer)
	for _, goalID := range goalIDs {
		if cheers := m.cheersOf(goalID); len(cheers) > 0 {
			out[goalID] = cheers
		}
	}
	return out, nil
}

func (m *MemStore) DeleteCheer(ctx context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cheers[id]; !ok {
		return 0, nil
	}
	delete(m.cheers, id)
	return 1, nil
}

func (m *MemStore) DeleteCheersByGoal(ctx context.Context, goalID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.cheers {
		if c.GoalID == goalID {
			delete(m.cheers, id)
			n++
		}
	}
	return n, nil
}

// comments

func (m *MemStore) CreateComment(ctx context.Context, c *comment.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	cp.UpdatedAt = c.CreatedAt
	m.comments[c.ID] = &cp
	return nil
}

func (m *MemStore) RetrieveComment(ctx context.Context, id uuid.UUID) (*comment.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemStore) UpdateCommentText(ctx context.Context, id uuid.UUID, text string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return 0, nil
	}
	cp := *c
	cp.Comment = text
	cp.UpdatedAt = time.Now()
	m.comments[id] = &cp
	return 1, nil
}

func (m *MemStore) commentsOf(goalID uuid.UUID) []*comment.Comment {
	var comments []*comment.Comment
	for _, c := range m.comments {
		if c.GoalID == goalID {
			cp := *c
			comments = append(comments, &cp)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return newerThan(comments[i].CreatedAt, comments[i].ID, comments[j].CreatedAt, comments[j].ID)
	})
	return comments
}

func (m *MemStore) CommentsByGoal(ctx context.Context, goalID uuid.UUID, page, pageSize int) ([]*comment.Comment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	comments := m.commentsOf(goalID)
	return paginate(comments, page, pageSize), len(comments), nil
}

func (m *MemStore) CommentStatsByGoalIDs(ctx context.Context, goalIDs []uuid.UUID) (map[uuid.UUID]store.CommentStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]store.CommentStats)
	for _, goalID := range goalIDs {
		comments := m.commentsOf(goalID)
		if len(comments) == 0 {
			continue
		}
		out[goalID] = store.CommentStats{Total: len(comments), Latest: comments[0]}
	}
	return out, nil
}

func (m *MemStore) DeleteComment(ctx context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return 0, nil
	}
	delete(m.comments, id)
	return 1, nil
}

func (m *MemStore) DeleteCommentsByGoal(ctx context.Context, goalID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.comments {
		if c.GoalID == goalID {
			delete(m.comments, id)
			n++
		}
	}
	return n, nil
}

// supports

func (m *MemStore) CreateSupport(ctx context.Context, sup *support.Support) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.supports {
		if existing.SupporterID == sup.SupporterID && existing.SupportingID == sup.SupportingID {
			return store.ErrDuplicate
		}
	}
	cp := *sup
	m.supports[sup.ID] = &cp
	return nil
}

func (m *MemStore) RetrieveSupport(ctx context.Context, id uuid.UUID) (*support.Support, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sup, ok := m.supports[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sup
	return &cp, nil
}

func (m *MemStore) SupportsByViewer(ctx context.Context, viewerID uuid.UUID, ownerIDs []uuid.UUID) (map[uuid.UUID]*support.Support, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owners := make(map[uuid.UUID]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}
	out := make(map[uuid.UUID]*support.Support)
	for _, sup := range m.supports {
		if sup.SupporterID == viewerID && owners[sup.SupportingID] {
			cp := *sup
			out[sup.SupportingID] = &cp
		}
	}
	return out, nil
}

func (m *MemStore) SupporterCounts(ctx context.Context, ownerIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owners := make(map[uuid.UUID]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}
	counts := make(map[uuid.UUID]int)
	for _, sup := range m.supports {
		if owners[sup.SupportingID] {
			counts[sup.SupportingID]++
		}
	}
	return counts, nil
}

func (m *MemStore) SupportsBy(ctx context.Context, f store.SupportFilter, page, pageSize int) ([]*support.Support, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var supports []*support.Support
	for _, sup := range m.supports {
		if f.SupporterID != nil && sup.SupporterID != *f.SupporterID {
			continue
		}
		if f.SupportingID != nil && sup.SupportingID != *f.SupportingID {
			continue
		}
		cp := *sup
		supports = append(supports, &cp)
	}
	sort.Slice(supports, func(i, j int) bool {
		return newerThan(supports[i].CreatedAt, supports[i].ID, supports[j].CreatedAt, supports[j].ID)
	})
	return paginate(supports, page, pageSize), len(supports), nil
}

func (m *MemStore) DeleteSupport(ctx context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.supports[id]; !ok {
		return 0, nil
	}
	delete(m.supports, id)
	return 1, nil
}

// notifications

func (m *MemStore) CreateNotification(ctx context.Context, n *notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.notifications[n.ID] = &cp
	return nil
}

func (m *MemStore) NotificationsByRecipient(ctx context.Context, recipientID uuid.UUID, f notification.Filter, page, pageSize int) ([]*notification.Notification, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var notifications []*notification.Notification
	for _, n := range m.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if f.Type != nil {
			if n.Type != *f.Type {
				continue
			}
		} else if n.Type == notification.TypeSystem {
			continue
		}
		if f.IsRead != nil && n.IsRead != *f.IsRead {
			continue
		}
		cp := *n
		notifications = append(notifications, &cp)
	}
	sort.Slice(notifications, func(i, j int) bool {
		return newerThan(notifications[i].CreatedAt, notifications[i].ID, notifications[j].CreatedAt, notifications[j].ID)
	})
	return paginate(notifications, page, pageSize), len(notifications), nil
}

func (m *MemStore) MarkNotificationRead(ctx context.Context, id, recipientID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return 0, nil
	}
	cp := *n
	cp.IsRead = true
	m.notifications[id] = &cp
	return 1, nil
}
