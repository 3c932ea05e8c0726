package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chris/chronos/internal/discord"
	"github.com/chris/chronos/internal/logger"
	"github.com/chris/chronos/internal/notify"
	"github.com/chris/chronos/internal/settings"
)

type RunCmd struct {
	Reload time.Duration `default:"1m" help:"How often to pick up reminder changes made from the CLI."`
}

// Run keeps the reminder scheduler (and the Discord bot when a token is
// configured) alive until SIGINT or SIGTERM.
func (c *RunCmd) Run(ctx *Context) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dm notify.DMSender
	if ctx.Config.DiscordToken != "" {
		bot, err := discord.NewBot(ctx.Config.DiscordToken, discord.NewJournal(ctx.Store, ctx.Insights, ctx.DB))
		if err != nil {
			return err
		}
		defer bot.Close()
		dm = bot.SendDM
	}

	n := notify.New(notify.NewDispatcher(ctx.DB, dm, ctx.Config.DiscordWebhook))
	reminders := settings.New(ctx.DB, n)
	n.Start()
	defer n.Stop()

	logger.Info("daemon running", "discord", dm != nil, "webhook", ctx.Config.DiscordWebhook != "")
	ctx.printf("chronos is running. Press Ctrl+C to exit.\n")
	watchReminders(sigCtx, reminders, c.Reload)
	logger.Info("daemon shutting down")
	return nil
}

type applier interface {
	Apply(ctx context.Context) (settings.Reminder, error)
}

// watchReminders applies the persisted reminder now and then every interval
// until ctx ends.
func watchReminders(ctx context.Context, a applier, interval time.Duration) {
	apply := func() {
		if _, err := a.Apply(ctx); err != nil {
			logger.Error("applying reminder settings", "err", err)
		}
	}
	apply()
	if interval <= 0 {
		<-ctx.Done()
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			apply()
		}
	}
}
