package insight

import (
	"context"
	"fmt"
)

const (
	keyLastDate = "last_insight_date"
	keyLastText = "last_insight_text"
)

// KV is the slice of the key-value store the cache needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetMany(ctx context.Context, values map[string]string) error
}

// Record is the single memoized insight.
type Record struct {
	Date string
	Text string
}

// Valid reports whether the record can be served for today.
func (r Record) Valid(today string) bool {
	return r.Date == today && r.Text != ""
}

type Cache struct {
	kv KV
}

func NewCache(kv KV) *Cache {
	return &Cache{kv: kv}
}

func (c *Cache) Load(ctx context.Context) (Record, error) {
	var r Record
	var err error
	if r.Date, _, err = c.kv.Get(ctx, keyLastDate); err != nil {
		return Record{}, fmt.Errorf("reading insight date: %w", err)
	}
	if r.Text, _, err = c.kv.Get(ctx, keyLastText); err != nil {
		return Record{}, fmt.Errorf("reading insight text: %w", err)
	}
	return r, nil
}

// Save overwrites both keys in one write.
func (c *Cache) Save(ctx context.Context, r Record) error {
	err := c.kv.SetMany(ctx, map[string]string{
		keyLastDate: r.Date,
		keyLastText: r.Text,
	})
	if err != nil {
		return fmt.Errorf("saving insight: %w", err)
	}
	return nil
}
