package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chris/chronos/config"
)

type KeyCmd struct {
	Set    KeySetCmd    `cmd:"" help:"Store a provider API key in the OS keyring."`
	Delete KeyDeleteCmd `cmd:"" help:"Remove a provider API key from the OS keyring."`
}

type KeySetCmd struct {
	Provider string `arg:"" enum:"anthropic,openai" help:"Provider the key belongs to (anthropic, openai)."`
	Value    string `arg:"" optional:"" help:"The key. Read from stdin when omitted."`
}

func (c *KeySetCmd) Run(ctx *Context) error {
	value := strings.TrimSpace(c.Value)
	if value == "" {
		b, err := io.ReadAll(ctx.In)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		value = strings.TrimSpace(string(b))
	}
	if value == "" {
		return errors.New("empty key")
	}
	if err := config.SetSecret(c.Provider, value); err != nil {
		return err
	}
	ctx.printf("Stored %s key in the keyring.\n", c.Provider)
	return nil
}

type KeyDeleteCmd struct {
	Provider string `arg:"" enum:"anthropic,openai" help:"Provider the key belongs to (anthropic, openai)."`
}

func (c *KeyDeleteCmd) Run(ctx *Context) error {
	err := config.DeleteSecret(c.Provider)
	if errors.Is(err, config.ErrSecretNotFound) {
		ctx.printf("No %s key stored.\n", c.Provider)
		return nil
	}
	if err != nil {
		return err
	}
	ctx.printf("Deleted %s key.\n", c.Provider)
	return nil
}
