package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/chris/chronos/internal/insight"
	"github.com/chris/chronos/internal/llm"
)

type InsightCmd struct {
	Verbose bool `short:"v" help:"Show whether the insight came from cache and why a run failed."`
}

func (c *InsightCmd) Run(ctx *Context) error {
	s := ctx.Insights.LoadDaily(context.Background())
	ctx.printf("%s\n", s.Text)
	if !c.Verbose {
		return nil
	}
	switch {
	case s.Phase == insight.PhaseError:
		ctx.printf("(%s: %v)\n", s.Kind, s.Err)
	case s.FromCache:
		ctx.printf("(cached)\n")
	}
	return nil
}

type ModelCmd struct {
	Prepare ModelPrepareCmd `cmd:"" help:"Copy the bundled model into place and start the local server."`
}

type ModelPrepareCmd struct{}

func (c *ModelPrepareCmd) Run(ctx *Context) error {
	if err := ctx.Model.EnsureReady(context.Background()); err != nil {
		if errors.Is(err, llm.ErrModelUnavailable) {
			return fmt.Errorf("%s (%w)", insight.ModelPrepMessage, err)
		}
		return err
	}
	if ctx.Config.LLMProvider != "local" {
		ctx.printf("Provider %s needs no local model.\n", ctx.Config.LLMProvider)
		return nil
	}
	if info, err := os.Stat(ctx.Config.ModelPath); err == nil {
		ctx.printf("Model ready at %s (%s).\n", ctx.Config.ModelPath, humanize.Bytes(uint64(info.Size())))
		return nil
	}
	ctx.printf("Model ready.\n")
	return nil
}
