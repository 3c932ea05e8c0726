package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/chris/chronos/internal/journal"
)

type PromptCmd struct{}

func (c *PromptCmd) Run(ctx *Context) error {
	ctx.printf("%s\n", journal.DailyPrompt(ctx.Now()))
	return nil
}

type WriteCmd struct {
	Text   []string `arg:"" optional:"" help:"Entry text. Read from stdin when omitted."`
	Date   string   `help:"Entry date (YYYY-MM-DD). Defaults to today."`
	Append bool     `short:"a" help:"Append to the existing entry instead of replacing it."`
}

func (c *WriteCmd) Run(ctx *Context) error {
	date, day, err := resolveDate(ctx, c.Date)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(strings.Join(c.Text, " "))
	if text == "" {
		b, err := io.ReadAll(ctx.In)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = strings.TrimSpace(string(b))
	}
	if text == "" {
		return errors.New("nothing to write")
	}

	bg := context.Background()
	prompt := journal.DailyPrompt(day)
	if c.Append {
		existing, err := ctx.Store.Get(bg, date)
		if err != nil {
			return err
		}
		if existing != nil && existing.Text != "" {
			text = existing.Text + "\n" + text
			prompt = existing.Prompt
		}
	}
	if err := ctx.Store.Set(bg, date, prompt, text); err != nil {
		return err
	}
	ctx.printf("Saved entry for %s.\n", date)
	return nil
}

type ShowCmd struct {
	Date string `arg:"" optional:"" help:"Entry date (YYYY-MM-DD). Defaults to today."`
}

func (c *ShowCmd) Run(ctx *Context) error {
	date, _, err := resolveDate(ctx, c.Date)
	if err != nil {
		return err
	}
	e, err := ctx.Store.Get(context.Background(), date)
	if err != nil {
		return err
	}
	if e == nil {
		ctx.printf("No entry for %s.\n", date)
		return nil
	}
	ctx.printf("%s\n%s\n\n%s\n", e.Date, e.Prompt, e.Text)
	return nil
}

type HistoryCmd struct {
	Limit int `short:"n" default:"0" help:"Show at most N entries (0 for all)."`
}

func (c *HistoryCmd) Run(ctx *Context) error {
	all, err := ctx.Store.ListAll(context.Background())
	if err != nil {
		return err
	}
	if len(all) == 0 {
		ctx.printf("No entries yet.\n")
		return nil
	}
	if c.Limit > 0 && c.Limit < len(all) {
		all = all[:c.Limit]
	}
	today := journal.Today(ctx.Now())
	for _, e := range all {
		ctx.printf("%s  %-14s  %s\n", e.Date, relativeDay(e.Date, today, ctx.Now()), preview(e.Text, 60))
	}
	return nil
}

type DeleteCmd struct {
	Date string `arg:"" help:"Entry date (YYYY-MM-DD)."`
}

func (c *DeleteCmd) Run(ctx *Context) error {
	bg := context.Background()
	e, err := ctx.Store.Get(bg, c.Date)
	if err != nil {
		return err
	}
	if e == nil {
		ctx.printf("No entry for %s.\n", c.Date)
		return nil
	}
	if err := ctx.Store.Delete(bg, c.Date); err != nil {
		return err
	}
	ctx.printf("Deleted entry for %s.\n", c.Date)
	return nil
}

type ClearCmd struct {
	Yes bool `help:"Confirm deleting every entry."`
}

func (c *ClearCmd) Run(ctx *Context) error {
	if !c.Yes {
		return errors.New("refusing to delete all entries without --yes")
	}
	n, err := ctx.Store.ClearAll(context.Background())
	if err != nil {
		return err
	}
	ctx.printf("Deleted %s %s.\n", humanize.Comma(int64(n)), plural(n, "entry", "entries"))
	return nil
}

// resolveDate returns the entry key and a time on that day, defaulting to
// today.
func resolveDate(ctx *Context, date string) (string, time.Time, error) {
	if date == "" {
		now := ctx.Now()
		return journal.Today(now), now, nil
	}
	t, err := journal.ParseDate(date)
	if err != nil {
		return "", time.Time{}, err
	}
	return date, t, nil
}

func relativeDay(date, today string, now time.Time) string {
	if date == today {
		return "today"
	}
	t, err := time.ParseInLocation(journal.DateLayout, date, now.Location())
	if err != nil {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
