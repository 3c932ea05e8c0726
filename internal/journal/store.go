package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chris/chronos/internal/logger"
)

// DateLayout is the calendar-date key format for entries.
const DateLayout = "2006-01-02"

const keyPrefix = "journal_entry_"

var ErrInvalidDate = errors.New("invalid date")

// Entry is one day's answer to that day's prompt.
type Entry struct {
	Date   string `json:"date"`
	Prompt string `json:"prompt"`
	Text   string `json:"text"`
}

// KV is the key-value primitive entries are persisted in.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Scan(ctx context.Context, prefix string) (map[string]string, error)
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// ParseDate validates a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// Today formats t as an entry date in t's location.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

func key(date string) string { return keyPrefix + date }

// Get returns the entry for date, or nil when none was written.
func (s *Store) Get(ctx context.Context, date string) (*Entry, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	raw, ok, err := s.kv.Get(ctx, key(date))
	if err != nil {
		return nil, fmt.Errorf("getting entry: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, fmt.Errorf("decoding entry %s: %w", date, err)
	}
	return &e, nil
}

// Set creates or overwrites the entry for date.
func (s *Store) Set(ctx context.Context, date, prompt, text string) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	b, err := json.Marshal(Entry{Date: date, Prompt: prompt, Text: text})
	if err != nil {
		return fmt.Errorf("encoding entry %s: %w", date, err)
	}
	if err := s.kv.Set(ctx, key(date), string(b)); err != nil {
		return fmt.Errorf("saving entry: %w", err)
	}
	logger.Debug("entry saved", "date", date, "chars", len(text))
	return nil
}

// ListAll returns every entry, newest first. Undecodable records are skipped.
func (s *Store) ListAll(ctx context.Context) ([]Entry, error) {
	rows, err := s.kv.Scan(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for k, raw := range rows {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			logger.Warn("skipping unreadable entry", "key", k, "err", err)
			continue
		}
		if e.Date == "" {
			e.Date = strings.TrimPrefix(k, keyPrefix)
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// Delete removes the entry for date.
func (s *Store) Delete(ctx context.Context, date string) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, key(date)); err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	logger.Info("entry deleted", "date", date)
	return nil
}

// ClearAll removes every journal entry and leaves other keys alone.
func (s *Store) ClearAll(ctx context.Context) (int, error) {
	n, err := s.kv.DeletePrefix(ctx, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("clearing entries: %w", err)
	}
	logger.Info("all journal entries cleared", "count", n)
	return int(n), nil
}
