package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goalmateAPI/internal/apperror"
	notificationtmpl "goalmateAPI/internal/notification"
	"goalmateAPI/internal/outbox"
	"goalmateAPI/internal/realtime"
	"goalmateAPI/internal/store"
	"goalmateAPI/internal/types/notification"
	"goalmateAPI/internal/types/user"
)

// PushProvider delivers device push notifications (FCM in production).
type PushProvider interface {
	SendPush(ctx context.Context, tokens []user.DeviceToken, title, body string, data map[string]string) error
}

type NotificationService struct {
	store     store.Store
	publisher realtime.Publisher
	push      PushProvider
}

func NewNotificationService(st store.Store, publisher realtime.Publisher, push PushProvider) *NotificationService {
	return &NotificationService{store: st, publisher: publisher, push: push}
}

// NotifyInput describes one fan-out event. Payload holds the template
// tokens ("[username]" etc.); Entities is the type-to-id map stored with
// the notification. Force overrides the actor==recipient suppression for
// the one path that wants it (support removal).
type NotifyInput struct {
	Type        notification.Type
	ActorID     *uuid.UUID
	RecipientID uuid.UUID
	// Message overrides the catalog template when set; system
	// notifications have no template and pass their text here.
	Message      string
	Payload      map[string]string
	Entities     map[string]string
	ThumbnailURL string
	Force        bool
}

// Notify persists the notification through st (the caller's transaction)
// and returns the best-effort delivery work as outbox tasks for the
// caller to enqueue after commit. Self-notifications are suppressed
// entirely: no row, no push, no tasks.
func (s *NotificationService) Notify(ctx context.Context, st store.Store, input NotifyInput) ([]outbox.Task, error) {
	if !input.Force && input.ActorID != nil && *input.ActorID == input.RecipientID {
		return nil, nil
	}

	message := input.Message
	if message == "" {
		message = notificationtmpl.Render(input.Type, input.Payload)
	}

	n := &notification.Notification{
		ID:           uuid.New(),
		Type:         input.Type,
		ActorID:      input.ActorID,
		RecipientID:  input.RecipientID,
		Message:      message,
		Entities:     input.Entities,
		ThumbnailURL: input.ThumbnailURL,
		CreatedAt:    time.Now(),
	}

	if err := st.CreateNotification(ctx, n); err != nil {
		return nil, err
	}

	return []outbox.Task{
		{
			Name: "realtime-push",
			Run: func(ctx context.Context) error {
				return s.publishRealtime(ctx, n)
			},
		},
		{
			Name: "device-push",
			Run: func(ctx context.Context) error {
				return s.pushToDevices(ctx, n)
			},
		},
	}, nil
}

func (s *NotificationService) publishRealtime(ctx context.Context, n *notification.Notification) error {
	if s.publisher == nil {
		return nil
	}

	var actor *user.Public
	if n.ActorID != nil {
		if u, err := s.store.RetrieveUser(ctx, *n.ActorID); err == nil {
			actor = u.Public()
		}
	}

	payload := map[string]any{
		"notification": n,
		"actor":        actor,
	}
	return s.publisher.Publish(ctx, realtime.NotificationChannel(n.RecipientID), "new", payload)
}

func (s *NotificationService) pushToDevices(ctx context.Context, n *notification.Notification) error {
	if s.push == nil {
		return nil
	}

	recipient, err := s.store.RetrieveUser(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to load push recipient: %w", err)
	}
	if len(recipient.DeviceTokens) == 0 {
		return nil
	}

	data := map[string]string{"notification_id": n.ID.String(), "type": string(n.Type)}
	for k, v := range n.Entities {
		data[k] = v
	}
	return s.push.SendPush(ctx, recipient.DeviceTokens, "GoalMate", n.Message, data)
}

// NotificationView is a notification denormalized with its actor's public
// profile for the inbox listing.
type NotificationView struct {
	notification.Notification
	Actor *user.Public `json:"actor,omitempty"`
}

func (s *NotificationService) RetrieveAll(ctx context.Context, recipientID uuid.UUID, f notification.Filter, page, pageSize int) ([]*NotificationView, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	notifications, total, err := s.store.NotificationsByRecipient(ctx, recipientID, f, page, pageSize)
	if err != nil {
		return nil, Pagination{}, err
	}

	actorIDs := make([]uuid.UUID, 0, len(notifications))
	seen := make(map[uuid.UUID]bool)
	for _, n := range notifications {
		if n.ActorID != nil && !seen[*n.ActorID] {
			seen[*n.ActorID] = true
			actorIDs = append(actorIDs, *n.ActorID)
		}
	}
	actors, err := s.store.UsersByIDs(ctx, actorIDs)
	if err != nil {
		return nil, Pagination{}, err
	}

	views := make([]*NotificationView, 0, len(notifications))
	for _, n := range notifications {
		view := &NotificationView{Notification: *n}
		if n.ActorID != nil {
			view.Actor = actors[*n.ActorID].Public()
		}
		views = append(views, view)
	}
	return views, paginationFor(page, pageSize, total), nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	affected, err := s.store.MarkNotificationRead(ctx, id, recipientID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperror.NotFound("Notification not found")
	}
	return nil
}

// RegisterDevice records a push token for the user, replacing a previous
// registration of the same token.
func (s *NotificationService) RegisterDevice(ctx context.Context, userID uuid.UUID, token, platform string) error {
	if token == "" {
		return apperror.Validation("Invalid device registration", map[string][]string{
			"token": {"token is required"},
		})
	}

	return s.store.WithTx(ctx, func(st store.Store) error {
		u, err := st.RetrieveUser(ctx, userID)
		if err != nil {
			if err == store.ErrNotFound {
				return apperror.NotFound("User not found")
			}
			return err
		}

		now := time.Now()
		tokens := make([]user.DeviceToken, 0, len(u.DeviceTokens)+1)
		for _, t := range u.DeviceTokens {
			if t.Token != token {
				tokens = append(tokens, t)
			}
		}
		tokens = append(tokens, user.DeviceToken{
			Token:    token,
			Platform: platform,
			AddedAt:  now,
			LastUsed: now,
		})
		return st.UpdateUserDeviceTokens(ctx, userID, tokens)
	})
}
