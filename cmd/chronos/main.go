package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/chris/chronos/config"
	"github.com/chris/chronos/internal/cli"
	"github.com/chris/chronos/internal/logger"
	"github.com/chris/chronos/internal/service"
)

var CLI struct {
	Version kong.VersionFlag
	Debug   bool `help:"Mirror debug logs to stderr."`

	Prompt  cli.PromptCmd  `cmd:"" help:"Show today's journaling prompt."`
	Write   cli.WriteCmd   `cmd:"" help:"Write today's entry."`
	Show    cli.ShowCmd    `cmd:"" help:"Show an entry."`
	History cli.HistoryCmd `cmd:"" help:"List past entries, newest first."`
	Delete  cli.DeleteCmd  `cmd:"" help:"Delete an entry."`
	Clear   cli.ClearCmd   `cmd:"" help:"Delete every entry."`
	Insight cli.InsightCmd `cmd:"" help:"Show today's AI insight."`
	Remind  cli.RemindCmd  `cmd:"" help:"Show or change the daily reminder."`
	Model   cli.ModelCmd   `cmd:"" help:"Manage the local model."`
	Key     cli.KeyCmd     `cmd:"" help:"Manage provider API keys."`
	Run     cli.RunCmd     `cmd:"" help:"Run the reminder daemon and Discord bot."`
	Service cli.ServiceCmd `cmd:"" help:"Manage the launchd service."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("chronos"),
		kong.Description("Daily health journal with on-device AI insights"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": "v0.1.0"},
	)

	cfg := config.Load()
	if err := logger.Init(logger.Config{
		Debug:  cfg.LogDebug || CLI.Debug,
		Level:  cfg.LogLevel,
		LogDir: config.LogDir(),
		Stderr: kctx.Command() == "run",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	}

	appCtx, err := cli.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = kctx.Run(appCtx, service.NewManager())
	appCtx.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
