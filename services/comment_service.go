package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"goalmateAPI/internal/apperror"
	"goalmateAPI/internal/outbox"
	"goalmateAPI/internal/store"
	"goalmateAPI/internal/types/comment"
	"goalmateAPI/internal/types/notification"
	"goalmateAPI/internal/types/user"
)

type CommentService struct {
	store         store.Store
	dispatcher    *outbox.Dispatcher
	notifications *NotificationService
}

func NewCommentService(st store.Store, dispatcher *outbox.Dispatcher, notifications *NotificationService) *CommentService {
	return &CommentService{store: st, dispatcher: dispatcher, notifications: notifications}
}

type CreateCommentInput struct {
	GoalID   uuid.UUID         `json:"goal_id"`
	ParentID *uuid.UUID        `json:"parent_id,omitempty"`
	Comment  string            `json:"comment"`
	Mentions []comment.Mention `json:"mentions,omitempty"`
}

// Create inserts the comment and fans out a "comment" event to the goal
// owner. Replies carry parent_id but get the same event: nothing emits
// "comment-replied" and no notification goes to the parent author.
func (s *CommentService) Create(ctx context.Context, actorID uuid.UUID, input CreateCommentInput) (*comment.Comment, error) {
	if input.Comment == "" {
		return nil, apperror.Validation("Invalid comment", map[string][]string{
			"comment": {"comment is required"},
		})
	}

	now := time.Now()
	c := &comment.Comment{
		ID:          uuid.New(),
		GoalID:      input.GoalID,
		ParentID:    input.ParentID,
		Comment:     input.Comment,
		Mentions:    input.Mentions,
		CreatedByID: actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var tasks []outbox.Task
	err := s.store.WithTx(ctx, func(st store.Store) error {
		g, err := st.RetrieveGoal(ctx, input.GoalID)
		if err != nil {
			if err == store.ErrNotFound {
				return apperror.NotFound("Goal not found")
			}
			return err
		}

		if err := st.CreateComment(ctx, c); err != nil {
			return err
		}

		actor, err := st.RetrieveUser(ctx, actorID)
		if err != nil {
			return err
		}

		tasks, err = s.notifications.Notify(ctx, st, NotifyInput{
			Type:        notification.TypeComment,
			ActorID:     &actorID,
			RecipientID: g.CreatedByID,
			Payload:     map[string]string{"[username]": actor.Username},
			Entities: map[string]string{
				"goal":    g.ID.String(),
				"comment": c.ID.String(),
			},
			ThumbnailURL: g.ThumbnailURL,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Enqueue(tasks...)
	return c, nil
}

// Update replaces the comment text. Mentions are fixed at creation.
func (s *CommentService) Update(ctx context.Context, commentID, actorID uuid.UUID, text string) (*comment.Comment, error) {
	if text == "" {
		return nil, apperror.Validation("Invalid comment", map[string][]string{
			"comment": {"comment is required"},
		})
	}

	var updated *comment.Comment
	err := s.store.WithTx(ctx, func(st store.Store) error {
		c, err := st.RetrieveComment(ctx, commentID)
		if err != nil {
			if err == store.ErrNotFound {
				return apperror.NotFound("Comment not found")
			}
			return err
		}
		if c.CreatedByID != actorID {
			return apperror.Forbidden("Only the comment author can edit it")
		}

		if _, err := st.UpdateCommentText(ctx, commentID, text); err != nil {
			return err
		}
		updated, err = st.RetrieveComment(ctx, commentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the comment. No notification, no cascade to replies.
func (s *CommentService) Delete(ctx context.Context, commentID, actorID uuid.UUID) error {
	return s.store.WithTx(ctx, func(st store.Store) error {
		c, err := st.RetrieveComment(ctx, commentID)
		if err != nil {
			if err == store.ErrNotFound {
				return apperror.NotFound("Comment not found")
			}
			return err
		}
		if c.CreatedByID != actorID {
			return apperror.Forbidden("Only the comment author can delete it")
		}

		_, err = st.DeleteComment(ctx, commentID)
		return err
	})
}

// CommentView is a comment denormalized with its author's public profile.
type CommentView struct {
	comment.Comment
	CreatedBy *user.Public `json:"created_by"`
}

func (s *CommentService) RetrieveAll(ctx context.Context, goalID uuid.UUID, page, pageSize int) ([]*CommentView, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	comments, total, err := s.store.CommentsByGoal(ctx, goalID, page, pageSize)
	if err != nil {
		return nil, Pagination{}, err
	}

	authorIDs := make([]uuid.UUID, 0, len(comments))
	seen := make(map[uuid.UUID]bool)
	for _, c := range comments {
		if !seen[c.CreatedByID] {
			seen[c.CreatedByID] = true
			authorIDs = append(authorIDs, c.CreatedByID)
		}
	}
	authors, err := s.store.UsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, Pagination{}, err
	}

	views := make([]*CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, &CommentView{
			Comment:   *c,
			CreatedBy: authors[c.CreatedByID].Public(),
		})
	}
	return views, paginationFor(page, pageSize, total), nil
}
