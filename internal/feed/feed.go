// Package feed builds the viewer-relative read side: denormalized goal
// views with owner, support, cheer and comment data attached. Joins run
// as batched queries in the application instead of one storage pipeline,
// with left-join semantics kept (an absent owner yields a null profile,
// the record stays in).
package feed

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"goalmateAPI/internal/store"
	"goalmateAPI/internal/types/comment"
	"goalmateAPI/internal/types/goal"
	"goalmateAPI/internal/types/support"
	"goalmateAPI/internal/types/user"
	"goalmateAPI/internal/visibility"
)

const DefaultPageSize = 20

type Pagination struct {
	Page          int `json:"page"`
	PageCount     int `json:"page_count"`
	PageSize      int `json:"page_size"`
	TotalDocument int `json:"total_document"`
}

// CommentView is a comment denormalized with its author's public profile.
type CommentView struct {
	comment.Comment
	CreatedBy *user.Public `json:"created_by"`
}

// GoalView is one feed record. MySupport and MyCheeredID are relative to
// the viewer and stay empty for anonymous reads.
type GoalView struct {
	goal.Goal
	CreatedBy     *user.Public     `json:"created_by"`
	MySupport     *support.Support `json:"my_support,omitempty"`
	TotalCheers   int              `json:"total_cheers"`
	MyCheeredID   string           `json:"my_cheered_id"`
	TotalComments int              `json:"total_comments"`
	LatestComment *CommentView     `json:"latest_comment,omitempty"`
}

// ProgressView is one progress entry unwound into its own feed row,
// carrying the denormalized goal it belongs to.
type ProgressView struct {
	goal.ProgressEntry
	GoalVisibility goal.Visibility `json:"goal_visibility"`
	GoalStatus     goal.Status     `json:"goal_status"`
	CreatedBy      *user.Public    `json:"created_by"`
}

type Composer struct {
	store store.Store
}

func NewComposer(st store.Store) *Composer {
	return &Composer{store: st}
}

// visibleGoals filters candidates through the visibility predicate using
// viewer-relative support edges. For an anonymous viewer the supporters
// tier is evaluated against "owner has at least one supporter", which is
// the list-view relaxation; detail reads do not come through here.
func (c *Composer) visibleGoals(ctx context.Context, goals []*goal.Goal, viewer *uuid.UUID) ([]*goal.Goal, map[uuid.UUID]*support.Support, error) {
	ownerIDs := make([]uuid.UUID, 0, len(goals))
	seen := make(map[uuid.UUID]bool)
	for _, g := range goals {
		if !seen[g.CreatedByID] {
			seen[g.CreatedByID] = true
			ownerIDs = append(ownerIDs, g.CreatedByID)
		}
	}

	var mySupports map[uuid.UUID]*support.Support
	var supporterCounts map[uuid.UUID]int
	var err error

	if viewer != nil {
		mySupports, err = c.store.SupportsByViewer(ctx, *viewer, ownerIDs)
	} else {
		supporterCounts, err = c.store.SupporterCounts(ctx, ownerIDs)
	}
	if err != nil {
		return nil, nil, err
	}

	var visible []*goal.Goal
	for _, g := range goals {
		var supportsOwner bool
		if viewer != nil {
			supportsOwner = mySupports[g.CreatedByID] != nil
		} else {
			supportsOwner = supporterCounts[g.CreatedByID] > 0
		}
		if visibility.Visible(g.Visibility, g.CreatedByID, viewer, supportsOwner) {
			visible = append(visible, g)
		}
	}
	return visible, mySupports, nil
}

// ComposeGoals builds the paginated goal feed. The visibility pass runs
// before pagination, so page counts reflect only visible records.
func (c *Composer) ComposeGoals(ctx context.Context, f goal.Filter, viewer *uuid.UUID, page, pageSize int) ([]*GoalView, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	goals, err := c.store.GoalsByFilter(ctx, f)
	if err != nil {
		return nil, Pagination{}, err
	}

	visible, mySupports, err := c.visibleGoals(ctx, goals, viewer)
	if err != nil {
		return nil, Pagination{}, err
	}

	pagination := paginationFor(page, pageSize, len(visible))

	start := (page - 1) * pageSize
	if start >= len(visible) {
		return []*GoalView{}, pagination, nil
	}
	end := start + pageSize
	if end > len(visible) {
		end = len(visible)
	}
	pageGoals := visible[start:end]

	views, err := c.denormalize(ctx, pageGoals, viewer, mySupports)
	if err != nil {
		return nil, Pagination{}, err
	}
	return views, pagination, nil
}

// ComposeGoal builds the detail view of one goal under the strict
// direct-viewer rule: no anonymous "any supporter" relaxation. Invisible
// goals are indistinguishable from missing ones.
func (c *Composer) ComposeGoal(ctx context.Context, goalID uuid.UUID, viewer *uuid.UUID) (*GoalView, error) {
	g, err := c.store.RetrieveGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}

	var mySupports map[uuid.UUID]*support.Support
	var supportsOwner bool
	if viewer != nil {
		mySupports, err = c.store.SupportsByViewer(ctx, *viewer, []uuid.UUID{g.CreatedByID})
		if err != nil {
			return nil, err
		}
		supportsOwner = mySupports[g.CreatedByID] != nil
	}

	if !visibility.Visible(g.Visibility, g.CreatedByID, viewer, supportsOwner) {
		return nil, store.ErrNotFound
	}

	views, err := c.denormalize(ctx, []*goal.Goal{g}, viewer, mySupports)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ComposeProgress unwinds visible goals' progress lists into independent
// rows and sorts them globally by entry recency.
func (c *Composer) ComposeProgress(ctx context.Context, f goal.Filter, viewer *uuid.UUID, page, pageSize int) ([]*ProgressView, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	goals, err := c.store.GoalsByFilter(ctx, f)
	if err != nil {
		return nil, Pagination{}, err
	}

	visible, _, err := c.visibleGoals(ctx, goals, viewer)
	if err != nil {
		return nil, Pagination{}, err
	}

	ownerIDs := make([]uuid.UUID, 0, len(visible))
	for _, g := range visible {
		ownerIDs = append(ownerIDs, g.CreatedByID)
	}
	owners, err := c.store.UsersByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, Pagination{}, err
	}

	var rows []*ProgressView
	for _, g := range visible {
		owner := owners[g.CreatedByID].Public()
		for _, entry := range g.Progress {
			rows = append(rows, &ProgressView{
				ProgressEntry:  entry,
				GoalVisibility: g.Visibility,
				GoalStatus:     g.Status,
				CreatedBy:      owner,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		return newerThan(rows[i].CreatedAt, rows[i].ID, rows[j].CreatedAt, rows[j].ID)
	})

	pagination := paginationFor(page, pageSize, len(rows))

	start := (page - 1) * pageSize
	if start >= len(rows) {
		return []*ProgressView{}, pagination, nil
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], pagination, nil
}

// denormalize attaches owner profiles, cheer aggregates and the latest
// comment to each goal on the page.
func (c *Composer) denormalize(ctx context.Context, goals []*goal.Goal, viewer *uuid.UUID, mySupports map[uuid.UUID]*support.Support) ([]*GoalView, error) {
	goalIDs := make([]uuid.UUID, len(goals))
	for i, g := range goals {
		goalIDs[i] = g.ID
	}

	cheersByGoal, err := c.store.CheersByGoalIDs(ctx, goalIDs)
	if err != nil {
		return nil, err
	}
	commentStats, err := c.store.CommentStatsByGoalIDs(ctx, goalIDs)
	if err != nil {
		return nil, err
	}

	userIDs := make([]uuid.UUID, 0, len(goals))
	seen := make(map[uuid.UUID]bool)
	collect := func(id uuid.UUID) {
		if !seen[id] {
			seen[id] = true
			userIDs = append(userIDs, id)
		}
	}
	for _, g := range goals {
		collect(g.CreatedByID)
	}
	for _, st := range commentStats {
		if st.Latest != nil {
			collect(st.Latest.CreatedByID)
		}
	}
	users, err := c.store.UsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	views := make([]*GoalView, 0, len(goals))
	for _, g := range goals {
		view := &GoalView{
			Goal:        *g,
			CreatedBy:   users[g.CreatedByID].Public(),
			MyCheeredID: "",
		}
		if mySupports != nil {
			view.MySupport = mySupports[g.CreatedByID]
		}

		cheers := cheersByGoal[g.ID]
		view.TotalCheers = len(cheers)
		if viewer != nil {
			for _, ch := range cheers {
				if ch.CreatedByID == *viewer {
					view.MyCheeredID = ch.ID.String()
					break
				}
			}
		}

		if st, ok := commentStats[g.ID]; ok {
			view.TotalComments = st.Total
			if st.Latest != nil {
				view.LatestComment = &CommentView{
					Comment:   *st.Latest,
					CreatedBy: users[st.Latest.CreatedByID].Public(),
				}
			}
		}

		views = append(views, view)
	}
	return views, nil
}

func paginationFor(page, pageSize, total int) Pagination {
	pageCount := 0
	if total > 0 {
		pageCount = (total + pageSize - 1) / pageSize
	}
	return Pagination{
		Page:          page,
		PageCount:     pageCount,
		PageSize:      pageSize,
		TotalDocument: total,
	}
}

func newerThan(aT time.Time, aID uuid.UUID, bT time.Time, bID uuid.UUID) bool {
	if !aT.Equal(bT) {
		return aT.After(bT)
	}
	for i := range aID {
		if aID[i] != bID[i] {
			return aID[i] > bID[i]
		}
	}
	return false
}
