package services

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"goalmateAPI/internal/apperror"
	"goalmateAPI/internal/outbox"
	"goalmateAPI/internal/store"
	"goalmateAPI/internal/types/notification"
	"goalmateAPI/internal/types/support"
	"goalmateAPI/internal/types/user"
)

type SupportService struct {
	store         store.Store
	dispatcher    *outbox.Dispatcher
	notifications *NotificationService
}

func NewSupportService(st store.Store, dispatcher *outbox.Dispatcher, notifications *NotificationService) *SupportService {
	return &SupportService{store: st, dispatcher: dispatcher, notifications: notifications}
}

// Create adds a support edge from the actor to supportingID and fans out
// a "support" event. Supporting yourself is rejected before anything is
// written.
func (s *SupportService) Create(ctx context.Context, actorID, supportingID uuid.UUID) (*support.Support, error) {
	if actorID == supportingID {
		return nil, &apperror.Error{
			Code:    http.StatusBadRequest,
			Message: "You cannot support yourself",
			Errors: map[string][]string{
				"supporting_id": {"supporting_id must differ from the authenticated user"},
			},
		}
	}

	sup := &support.Support{
		ID:           uuid.New(),
		SupporterID:  actorID,
		SupportingID: supportingID,
		CreatedAt:    time.Now(),
	}

	var tasks []outbox.Task
	err := s.store.WithTx(ctx, func(st store.Store) error {
		if _, err := st.RetrieveUser(ctx, supportingID); err != nil {
			if err == store.ErrNotFound {
				return apperror.NotFound("User not found")
			}
			return err
		}

		if err := st.CreateSupport(ctx, sup); err != nil {
			if err == store.ErrDuplicate {
				return apperror.Conflict("You are already supporting this user")
			}
			return err
		}

		actor, err := st.RetrieveUser(ctx, actorID)
		if err != nil {
			return err
		}

		tasks, err = s.notifications.Notify(ctx, st, NotifyInput{
			Type:        notification.TypeSupport,
			ActorID:     &actorID,
			RecipientID: supportingID,
			Payload:     map[string]string{"[username]": actor.Username},
			Entities:    map[string]string{"support": sup.ID.String()},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Enqueue(tasks...)
	return sup, nil
}

// Delete removes the support edge and always fans out "unsupport" to the
// previously supported user. Unlike Create, this includes the case where
// actor and recipient coincide; the asymmetry is kept as observed
// behavior, not cleaned up.
func (s *SupportService) Delete(ctx context.Context, supportID, actorID uuid.UUID) error {
	var tasks []outbox.Task
	err := s.store.WithTx(ctx, func(st store.Store) error {
		sup, err := st.RetrieveSupport(ctx, supportID)
		if err != nil {
			if err == store.ErrNotFound {
				return apperror.NotFound("Support not found")
			}
			return err
		}
		if sup.SupporterID != actorID {
			return apperror.Forbidden("Only the supporter can withdraw support")
		}

		if _, err := st.DeleteSupport(ctx, supportID); err != nil {
			return err
		}

		actor, err := st.RetrieveUser(ctx, actorID)
		if err != nil {
			return err
		}

		tasks, err = s.notifications.Notify(ctx, st, NotifyInput{
			Type:        notification.TypeUnsupport,
			ActorID:     &actorID,
			RecipientID: sup.SupportingID,
			Payload:     map[string]string{"[username]": actor.Username},
			Entities:    map[string]string{"support": sup.ID.String()},
			Force:       true,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.dispatcher.Enqueue(tasks...)
	return nil
}

func (s *SupportService) Retrieve(ctx context.Context, supportID uuid.UUID) (*support.Support, error) {
	sup, err := s.store.RetrieveSupport(ctx, supportID)
	if err == store.ErrNotFound {
		return nil, apperror.NotFound("Support not found")
	}
	if err != nil {
		return nil, err
	}
	return sup, nil
}

// SupportView carries the edge with both endpoints' public profiles.
type SupportView struct {
	support.Support
	Supporter  *user.Public `json:"supporter"`
	Supporting *user.Public `json:"supporting"`
}

func (s *SupportService) RetrieveAll(ctx context.Context, f store.SupportFilter, page, pageSize int) ([]*SupportView, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	supports, total, err := s.store.SupportsBy(ctx, f, page, pageSize)
	if err != nil {
		return nil, Pagination{}, err
	}

	userIDs := make([]uuid.UUID, 0, 2*len(supports))
	seen := make(map[uuid.UUID]bool)
	collect := func(id uuid.UUID) {
		if !seen[id] {
			seen[id] = true
			userIDs = append(userIDs, id)
		}
	}
	for _, sup := range supports {
		collect(sup.SupporterID)
		collect(sup.SupportingID)
	}
	users, err := s.store.UsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, Pagination{}, err
	}

	views := make([]*SupportView, 0, len(supports))
	for _, sup := range supports {
		views = append(views, &SupportView{
			Support:    *sup,
			Supporter:  users[sup.SupporterID].Public(),
			Supporting: users[sup.SupportingID].Public(),
		})
	}
	return views, paginationFor(page, pageSize, total), nil
}
