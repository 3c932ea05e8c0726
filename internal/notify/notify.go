package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/chris/chronos/internal/journal"
	"github.com/chris/chronos/internal/logger"
)

// Message is a fired notification.
type Message struct {
	Title string
	Body  string
}

func (m Message) String() string {
	return m.Title + "\n" + m.Body
}

// Deliverer gets a fired notification to the user.
type Deliverer interface {
	Deliver(ctx context.Context, msg Message) error
}

// Notifier fires daily notifications on a cron clock.
type Notifier struct {
	cron    *cron.Cron
	deliver Deliverer
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func New(d Deliverer) *Notifier {
	return &Notifier{
		cron:    cron.New(),
		deliver: d,
		now:     time.Now,
		entries: make(map[string]cron.EntryID),
	}
}

func (n *Notifier) Start() {
	n.cron.Start()
	logger.Info("notifier started")
}

// Stop halts the clock and waits for a running delivery to finish.
func (n *Notifier) Stop() {
	<-n.cron.Stop().Done()
}

// ScheduleDaily fires the journal reminder every day at hour:minute local time.
func (n *Notifier) ScheduleDaily(hour, minute int) (string, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid time %02d:%02d", hour, minute)
	}
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	id := uuid.NewString()

	n.mu.Lock()
	defer n.mu.Unlock()
	entryID, err := n.cron.AddFunc(spec, func() { n.fire(id) })
	if err != nil {
		return "", fmt.Errorf("registering %q: %w", spec, err)
	}
	n.entries[id] = entryID
	logger.Debug("daily notification registered", "id", id, "cron", spec)
	return id, nil
}

// CancelAll removes every scheduled notification.
func (n *Notifier) CancelAll() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, entryID := range n.entries {
		n.cron.Remove(entryID)
		delete(n.entries, id)
	}
	return nil
}

// Scheduled lists the ids of active notifications.
func (n *Notifier) Scheduled() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := make([]string, 0, len(n.entries))
	for id := range n.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Next reports when the notification with id fires next.
func (n *Notifier) Next(id string) (time.Time, bool) {
	n.mu.Lock()
	entryID, ok := n.entries[id]
	n.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	e := n.cron.Entry(entryID)
	return e.Next, e.Valid()
}

// DailyReminder is the text sent for the journal reminder on day t.
func DailyReminder(t time.Time) Message {
	return Message{
		Title: "Daily Reminder",
		Body:  "Time to check your journal!\nToday's prompt: " + journal.DailyPrompt(t),
	}
}

func (n *Notifier) fire(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := n.deliver.Deliver(ctx, DailyReminder(n.now())); err != nil {
		logger.Error("delivering reminder", "id", id, "err", err)
		return
	}
	logger.Info("reminder delivered", "id", id)
}
