package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goalmateAPI/internal/apperror"
	"goalmateAPI/internal/blob"
	"goalmateAPI/internal/feed"
	"goalmateAPI/internal/outbox"
	"goalmateAPI/internal/store"
	"goalmateAPI/internal/types/goal"
)

type GoalService struct {
	store      store.Store
	composer   *feed.Composer
	dispatcher *outbox.Dispatcher
	blob       blob.Storage
}

func NewGoalService(st store.Store, composer *feed.Composer, dispatcher *outbox.Dispatcher, blobStorage blob.Storage) *GoalService {
	return &GoalService{store: st, composer: composer, dispatcher: dispatcher, blob: blobStorage}
}

type CreateGoalInput struct {
	Specific     string          `json:"specific"`
	Measurable   string          `json:"measurable"`
	Achievable   string          `json:"achievable"`
	Relevant     string          `json:"relevant"`
	Time         time.Time       `json:"time"`
	ThumbnailURL string          `json:"thumbnail_url"`
	Visibility   goal.Visibility `json:"visibility"`
}

func validVisibility(v goal.Visibility) bool {
	switch v {
	case goal.VisibilityPublic, goal.VisibilityPrivate, goal.VisibilitySupporters:
		return true
	}
	return false
}

func (s *GoalService) Create(ctx context.Context, actorID uuid.UUID, input CreateGoalInput) (*goal.Goal, error) {
	fieldErrors := map[string][]string{}
	if input.Specific == "" {
		fieldErrors["specific"] = append(fieldErrors["specific"], "specific is required")
	}
	if input.Time.IsZero() {
		fieldErrors["time"] = append(fieldErrors["time"], "time is required")
	}
	if !validVisibility(input.Visibility) {
		fieldErrors["visibility"] = append(fieldErrors["visibility"], "visibility must be public, private or supporters")
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.Validation("Invalid goal", fieldErrors)
	}

	now := time.Now()
	g := &goal.Goal{
		ID:           uuid.New(),
		CreatedByID:  actorID,
		Specific:     input.Specific,
		Measurable:   input.Measurable,
		Achievable:   input.Achievable,
		Relevant:     input.Relevant,
		Time:         input.Time,
		ThumbnailURL: input.ThumbnailURL,
		Visibility:   input.Visibility,
		Status:       goal.StatusInProgress,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.store.WithTx(ctx, func(st store.Store) error {
		return st.CreateGoal(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GoalService) Retrieve(ctx context.Context, goalID uuid.UUID, viewer *uuid.UUID) (*feed.GoalView, error) {
	view, err := s.composer.ComposeGoal(ctx, goalID, viewer)
	if err == store.ErrNotFound {
		return nil, apperror.NotFound("Goal not found")
	}
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *GoalService) RetrieveAll(ctx context.Context, f goal.Filter, viewer *uuid.UUID, page, pageSize int) ([]*feed.GoalView, Pagination, error) {
	return s.composer.ComposeGoals(ctx, f, viewer, page, pageSize)
}

// RetrieveSupporting lists goals of the users the viewer supports.
func (s *GoalService) RetrieveSupporting(ctx context.Context, viewerID uuid.UUID, f goal.Filter, page, pageSize int) ([]*feed.GoalView, Pagination, error) {
	supports, _, err := s.store.SupportsBy(ctx, store.SupportFilter{SupporterID: &viewerID}, 1, 1000)
	if err != nil {
		return nil, Pagination{}, err
	}

	ownerIDs := make([]uuid.UUID, 0, len(supports))
	for _, sup := range supports {
		ownerIDs = append(ownerIDs, sup.SupportingID)
	}
	if len(ownerIDs) == 0 {
		return []*feed.GoalView{}, paginationFor(page, pageSize, 0), nil
	}

	f.CreatedByIDs = ownerIDs
	return s.composer.ComposeGoals(ctx, f, &viewerID, page, pageSize)
}

func (s *GoalService) RetrieveAllProgress(ctx context.Context, f goal.Filter, viewer *uuid.UUID, page, pageSize int) ([]*feed.ProgressView, Pagination, error) {
	return s.composer.ComposeProgress(ctx, f, viewer, page, pageSize)
}

// UpdateStatus sets the goal status with no transition validation; any of
// the three states can follow any other.
func (s *GoalService) UpdateStatus(ctx context.Context, goalID, actorID uuid.UUID, status goal.Status) error {
	switch status {
	case goal.StatusInProgress, goal.StatusAchieved, goal.StatusFailed:
	default:
		return apperror.Validation("Invalid goal status", map[string][]string{
			"status": {"status must be in-progress, achieved or failed"},
		})
	}

	return s.store.WithTx(ctx, func(st store.Store) error {
		g, err := st.RetrieveGoal(ctx, goalID)
		if err != nil {
			if err == store.ErrNotFound {
				return apperror.NotFound("Goal not found")
			}
			return err
		}
		if g.CreatedByID != actorID {
			return apperror.Forbidden("Only the goal owner can update its status")
		}

		_, err = st.UpdateGoalStatus(ctx, goalID, status)
		return err
	})
}

type AppendProgressInput struct {
	Caption      string `json:"caption"`
	MediaURL     string `json:"media_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// AppendProgress prepends a new entry to the goal's progress list.
// Existing entries keep their order; the new entry always lands first.
func (s *GoalService) AppendProgress(ctx context.Context, goalID, actorID uuid.UUID, input AppendProgressInput) (*goal.ProgressEntry, error) {
	entry := &goal.ProgressEntry{
		ID:           uuid.New(),
		GoalID:       goalID,
		Caption:      input.Caption,
		MediaURL:     input.MediaURL,
		ThumbnailURL: input.ThumbnailURL,
		CreatedAt:    time.Now(),
	}

	err := s.store.WithTx(ctx, func(st store.Store) error {
		g, err := st.RetrieveGoal(ctx, goalID)
		if err != nil {
			if err == store.ErrNotFound {
				return apperror.NotFound("Goal not found")
			}
			return err
		}
		if g.CreatedByID != actorID {
			return apperror.Forbidden("Only the goal owner can post progress")
		}

		_, err = st.AppendGoalProgress(ctx, goalID, *entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes the goal row transactionally, then hands the referential
// cleanup to the outbox: dependent cheers and comments, plus every media
// and thumbnail path, are deleted best-effort after commit. A crash
// between commit and cleanup can orphan them; that is accepted.
func (s *GoalService) Delete(ctx context.Context, goalID, actorID uuid.UUID) error {
	var deleted *goal.Goal

	err := s.store.WithTx(ctx, func(st store.Store) error {
		g, err := st.RetrieveGoal(ctx, goalID)
		if err != nil {
			if err == store.ErrNotFound {
				return apperror.NotFound("Goal not found")
			}
			return err
		}
		if g.CreatedByID != actorID {
			return apperror.Forbidden("Only the goal owner can delete it")
		}

		if _, err := st.DeleteGoal(ctx, goalID); err != nil {
			return err
		}
		deleted = g
		return nil
	})
	if err != nil {
		return err
	}

	s.dispatcher.Enqueue(s.cascadeTasks(deleted)...)
	return nil
}

func (s *GoalService) cascadeTasks(g *goal.Goal) []outbox.Task {
	tasks := []outbox.Task{
		{
			Name: "delete-goal-cheers",
			Run: func(ctx context.Context) error {
				_, err := s.store.DeleteCheersByGoal(ctx, g.ID)
				return err
			},
		},
		{
			Name: "delete-goal-comments",
			Run: func(ctx context.Context) error {
				_, err := s.store.DeleteCommentsByGoal(ctx, g.ID)
				return err
			},
		},
	}

	paths := []string{g.ThumbnailURL}
	for _, entry := range g.Progress {
		paths = append(paths, entry.MediaURL, entry.ThumbnailURL)
	}
	tasks = append(tasks, outbox.Task{
		Name: "delete-goal-blobs",
		Run: func(ctx context.Context) error {
			if s.blob == nil {
				return nil
			}
			var firstErr error
			for _, path := range paths {
				if path == "" {
					continue
				}
				if err := s.blob.Delete(ctx, path); err != nil && firstErr == nil {
					firstErr = fmt.Errorf("failed to delete blob %s: %w", path, err)
				}
			}
			return firstErr
		},
	})

	return tasks
}
