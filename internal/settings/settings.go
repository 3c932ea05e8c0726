package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/chris/chronos/internal/logger"
)

const (
	keyEnabled = "isReminderEnabled"
	keyTime    = "reminderTime"
)

var ErrInvalidTime = errors.New("invalid reminder time")

// Reminder is the daily journaling reminder preference.
type Reminder struct {
	Enabled bool
	Hour    int
	Minute  int
}

// Default is used until the user changes anything.
var Default = Reminder{Enabled: false, Hour: 8, Minute: 0}

func (r Reminder) String() string {
	state := "off"
	if r.Enabled {
		state = "on"
	}
	return fmt.Sprintf("%02d:%02d (%s)", r.Hour, r.Minute, state)
}

type reminderTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetMany(ctx context.Context, values map[string]string) error
}

// Scheduler registers the daily notification.
type Scheduler interface {
	ScheduleDaily(hour, minute int) (string, error)
	CancelAll() error
}

// Settings owns the reminder preference. With a nil Scheduler changes are
// only persisted; a daemon picks them up through Apply.
type Settings struct {
	kv    KV
	sched Scheduler

	mu      sync.Mutex
	applied *Reminder
}

func New(kv KV, sched Scheduler) *Settings {
	return &Settings{kv: kv, sched: sched}
}

// ValidateTime checks hour and minute are on a 24h clock.
func ValidateTime(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("%w: %02d:%02d", ErrInvalidTime, hour, minute)
	}
	return nil
}

// Load returns the persisted reminder. Missing or unreadable fields fall
// back to Default.
func (s *Settings) Load(ctx context.Context) (Reminder, error) {
	r := Default

	raw, ok, err := s.kv.Get(ctx, keyEnabled)
	if err != nil {
		return Default, fmt.Errorf("reading reminder flag: %w", err)
	}
	if ok {
		if b, err := strconv.ParseBool(raw); err == nil {
			r.Enabled = b
		} else {
			logger.Warn("ignoring malformed reminder flag", "value", raw)
		}
	}

	raw, ok, err = s.kv.Get(ctx, keyTime)
	if err != nil {
		return Default, fmt.Errorf("reading reminder time: %w", err)
	}
	if ok {
		var t reminderTime
		if err := json.Unmarshal([]byte(raw), &t); err != nil || ValidateTime(t.Hour, t.Minute) != nil {
			logger.Warn("ignoring malformed reminder time", "value", raw)
		} else {
			r.Hour, r.Minute = t.Hour, t.Minute
		}
	}
	return r, nil
}

func (s *Settings) save(ctx context.Context, r Reminder) error {
	t, err := json.Marshal(reminderTime{Hour: r.Hour, Minute: r.Minute})
	if err != nil {
		return err
	}
	err = s.kv.SetMany(ctx, map[string]string{
		keyEnabled: strconv.FormatBool(r.Enabled),
		keyTime:    string(t),
	})
	if err != nil {
		return fmt.Errorf("saving reminder: %w", err)
	}
	return nil
}

// Toggle flips the enabled flag.
func (s *Settings) Toggle(ctx context.Context) (Reminder, error) {
	r, err := s.Load(ctx)
	if err != nil {
		return r, err
	}
	return s.SetEnabled(ctx, !r.Enabled)
}

// SetEnabled turns the reminder on or off, scheduling or cancelling it.
func (s *Settings) SetEnabled(ctx context.Context, enabled bool) (Reminder, error) {
	r, err := s.Load(ctx)
	if err != nil {
		return r, err
	}
	r.Enabled = enabled
	if err := s.save(ctx, r); err != nil {
		return r, err
	}
	return r, s.reschedule(r)
}

// UpdateTime changes the reminder time. An enabled reminder is moved; a
// disabled one stays off.
func (s *Settings) UpdateTime(ctx context.Context, hour, minute int) (Reminder, error) {
	if err := ValidateTime(hour, minute); err != nil {
		return Reminder{}, err
	}
	r, err := s.Load(ctx)
	if err != nil {
		return r, err
	}
	r.Hour, r.Minute = hour, minute
	if err := s.save(ctx, r); err != nil {
		return r, err
	}
	return r, s.reschedule(r)
}

// Apply registers the persisted reminder with the scheduler if it differs
// from what was last registered.
func (s *Settings) Apply(ctx context.Context) (Reminder, error) {
	r, err := s.Load(ctx)
	if err != nil {
		return r, err
	}
	s.mu.Lock()
	same := s.applied != nil && *s.applied == r
	s.mu.Unlock()
	if same {
		return r, nil
	}
	return r, s.reschedule(r)
}

// reschedule leaves at most one active reminder.
func (s *Settings) reschedule(r Reminder) error {
	if s.sched == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sched.CancelAll(); err != nil {
		return fmt.Errorf("cancelling reminders: %w", err)
	}
	s.applied = nil
	if r.Enabled {
		id, err := s.sched.ScheduleDaily(r.Hour, r.Minute)
		if err != nil {
			return fmt.Errorf("scheduling reminder: %w", err)
		}
		logger.Info("daily reminder scheduled", "id", id, "at", r)
	} else {
		logger.Info("daily reminder cancelled")
	}
	applied := r
	s.applied = &applied
	return nil
}
