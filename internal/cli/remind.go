package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/chris/chronos/internal/settings"
)

type RemindCmd struct {
	On  bool   `xor:"toggle" help:"Enable the daily reminder."`
	Off bool   `xor:"toggle" help:"Disable the daily reminder."`
	At  string `placeholder:"HH:MM" help:"Time of day for the reminder (24h)."`
}

func (c *RemindCmd) Run(ctx *Context) error {
	bg := context.Background()

	if c.At != "" {
		hour, minute, err := parseClock(c.At)
		if err != nil {
			return err
		}
		if _, err := ctx.Settings.UpdateTime(bg, hour, minute); err != nil {
			return err
		}
	}
	if c.On || c.Off {
		if _, err := ctx.Settings.SetEnabled(bg, c.On); err != nil {
			return err
		}
	}

	r, err := ctx.Settings.Load(bg)
	if err != nil {
		return err
	}
	ctx.printf("Daily reminder: %s\n", r)
	return nil
}

func parseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q (want HH:MM)", settings.ErrInvalidTime, s)
	}
	return t.Hour(), t.Minute(), nil
}
