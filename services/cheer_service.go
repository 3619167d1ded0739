package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"goalmateAPI/internal/apperror"
	"goalmateAPI/internal/outbox"
	"goalmateAPI/internal/store"
	"goalmateAPI/internal/types/cheer"
	"goalmateAPI/internal/types/notification"
	"goalmateAPI/internal/types/user"
)

type CheerService struct {
	store         store.Store
	dispatcher    *outbox.Dispatcher
	notifications *NotificationService
}

func NewCheerService(st store.Store, dispatcher *outbox.Dispatcher, notifications *NotificationService) *CheerService {
	return &CheerService{store: st, dispatcher: dispatcher, notifications: notifications}
}

// Create inserts a cheer for (goal, actor) and fans out to the goal
// owner. The duplicate pre-check gives a clean conflict response; the
// unique constraint underneath catches the race two concurrent requests
// can win past the pre-check.
func (s *CheerService) Create(ctx context.Context, goalID, actorID uuid.UUID) (*cheer.Cheer, error) {
	c := &cheer.Cheer{
		ID:          uuid.New(),
		GoalID:      goalID,
		CreatedByID: actorID,
		CreatedAt:   time.Now(),
	}

	var tasks []outbox.Task
	err := s.store.WithTx(ctx, func(st store.Store) error {
		if _, err := st.CheerByGoalAndUser(ctx, goalID, actorID); err == nil {
			return apperror.Conflict("You already cheered this goal")
		} else if err != store.ErrNotFound {
			return err
		}

		g, err := st.RetrieveGoal(ctx, goalID)
		if err != nil {
			if err == store.ErrNotFound {
				return apperror.NotFound("Goal not found")
			}
			return err
		}

		if err := st.CreateCheer(ctx, c); err != nil {
			if err == store.ErrDuplicate {
				return apperror.Conflict("You already cheered this goal")
			}
			return err
		}

		actor, err := st.RetrieveUser(ctx, actorID)
		if err != nil {
			return err
		}

		tasks, err = s.notifications.Notify(ctx, st, NotifyInput{
			Type:        notification.TypeCheers,
			ActorID:     &actorID,
			RecipientID: g.CreatedByID,
			Payload:     map[string]string{"[username]": actor.Username},
			Entities: map[string]string{
				"goal":  g.ID.String(),
				"cheer": c.ID.String(),
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

// Delete removes the actor's cheer. No notification is emitted.
func (s *CheerService) Delete(ctx context.Context, cheerID, actorID uuid.UUID) error {
	return s.store.WithTx(ctx, func(st store.Store) error {
		c, err := st.RetrieveCheer(ctx, cheerID)
		if err != nil {
			if err == store.ErrNotFound {
				return apperror.NotFound("Cheer not found")
			}
			return err
		}
		if c.CreatedByID != actorID {
			return apperror.Forbidden("Only the cheering user can remove it")
		}

		_, err = st.DeleteCheer(ctx, cheerID)
		return err
	})
}

// CheerView is a cheer denormalized with the cheering user's profile.
type CheerView struct {
	cheer.Cheer
	CreatedBy *user.Public `json:"created_by"`
}

// RetrieveAll lists a goal's cheers newest-first with the viewer's own
// cheer id surfaced separately.
func (s *CheerService) RetrieveAll(ctx context.Context, goalID uuid.UUID, viewer *uuid.UUID, page, pageSize int) ([]*CheerView, string, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	cheers, total, err := s.store.CheersByGoal(ctx, goalID, page, pageSize)
	if err != nil {
		return nil, "", Pagination{}, err
	}

	userIDs := make([]uuid.UUID, 0, len(cheers))
	seen := make(map[uuid.UUID]bool)
	for _, c := range cheers {
		if !seen[c.CreatedByID] {
			seen[c.CreatedByID] = true
			userIDs = append(userIDs, c.CreatedByID)
		}
	}
	users, err := s.store.UsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, "", Pagination{}, err
	}

	myCheeredID := ""
	if viewer != nil {
		if mine, err := s.store.CheerByGoalAndUser(ctx, goalID, *viewer); err == nil {
			myCheeredID = mine.ID.String()
		} else if err != store.ErrNotFound {
			return nil, "", Pagination{}, err
		}
	}

	views := make([]*CheerView, 0, len(cheers))
	for _, c := range cheers {
		views = append(views, &CheerView{
			Cheer:     *c,
			CreatedBy: users[c.CreatedByID].Public(),
		})
	}
	return views, myCheeredID, paginationFor(page, pageSize, total), nil
}
