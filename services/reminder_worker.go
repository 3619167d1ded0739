package services

import (
	"context"
	"log"
	"time"

	"goalmateAPI/internal/mail"
	"goalmateAPI/internal/outbox"
	"goalmateAPI/internal/store"
	"goalmateAPI/internal/types/notification"
)

const reminderMessage = "You have 1 day left to wrap up your goal."

// ReminderWorker nudges goal owners one day before their deadline with a
// system notification and an email. Both are best-effort.
type ReminderWorker struct {
	store         store.Store
	notifications *NotificationService
	dispatcher    *outbox.Dispatcher
	mail          mail.Sender
	interval      time.Duration
	stopChan      chan struct{}
}

func NewReminderWorker(st store.Store, notifications *NotificationService, dispatcher *outbox.Dispatcher, sender mail.Sender) *ReminderWorker {
	return &ReminderWorker{
		store:         st,
		notifications: notifications,
		dispatcher:    dispatcher,
		mail:          sender,
		interval:      24 * time.Hour,
		stopChan:      make(chan struct{}),
	}
}

func (w *ReminderWorker) Start() {
	go w.run()
}

func (w *ReminderWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.remindDueGoals()
		case <-w.stopChan:
			return
		}
	}
}

func (w *ReminderWorker) Stop() {
	close(w.stopChan)
}

// remindDueGoals notifies owners of in-progress goals whose deadline
// falls within the next day.
func (w *ReminderWorker) remindDueGoals() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now()
	goals, err := w.store.GoalsDueBetween(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		log.Printf("Reminder: failed to fetch due goals: %v", err)
		return
	}

	for _, g := range goals {
		g := g
		var tasks []outbox.Task
		err := w.store.WithTx(ctx, func(st store.Store) error {
			var err error
			tasks, err = w.notifications.Notify(ctx, st, NotifyInput{
				Type:        notification.TypeSystem,
				RecipientID: g.CreatedByID,
				Message:     reminderMessage,
				Entities:    map[string]string{"goal": g.ID.String()},
			})
			return err
		})
		if err != nil {
			log.Printf("Reminder: failed to notify goal %s owner: %v", g.ID, err)
			continue
		}

		tasks = append(tasks, outbox.Task{
			Name: "reminder-email",
			Run: func(ctx context.Context) error {
				if w.mail == nil {
					return nil
				}
				owner, err := w.store.RetrieveUser(ctx, g.CreatedByID)
				if err != nil {
					return err
				}
				return w.mail.Send(ctx, owner.Email, "Your goal deadline is tomorrow", reminderMessage)
			},
		})
		w.dispatcher.Enqueue(tasks...)
	}

	if len(goals) > 0 {
		log.Printf("Reminder: processed %d due goals", len(goals))
	}
}
