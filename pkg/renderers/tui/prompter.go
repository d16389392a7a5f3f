package tui

import (
	"context"
	"strings"

	"github.com/goliatone/go-formdraft/pkg/sections"
)

// Prompter renders sections onto a PromptDriver.
type Prompter struct {
	driver PromptDriver
	theme  Theme
}

var _ sections.Prompter = (*Prompter)(nil)

// NewPrompter wraps driver. A zero theme falls back to the default one.
func NewPrompter(driver PromptDriver, th Theme) *Prompter {
	if th == (Theme{}) {
		th = ThemeFromConfig(nil)
	}
	return &Prompter{driver: driver, theme: th}
}

func (p *Prompter) Ask(ctx context.Context, q sections.Question) (string, error) {
	switch {
	case q.Secret:
		return p.driver.Password(ctx, InputConfig{Message: q.Message, Help: q.Help})
	case q.Multiline:
		return p.driver.TextArea(ctx, TextAreaConfig{Message: q.Message, Default: q.Default, Help: q.Help})
	default:
		return p.driver.Input(ctx, InputConfig{Message: q.Message, Default: q.Default, Help: q.Help})
	}
}

func (p *Prompter) Choose(ctx context.Context, c sections.Choice) (int, error) {
	return p.driver.Select(ctx, SelectConfig{
		Message:      c.Message,
		Options:      c.Options,
		DefaultIndex: c.Default,
		Help:         c.Help,
	})
}

func (p *Prompter) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	return p.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def})
}

func (p *Prompter) Notice(ctx context.Context, msg string) error {
	return p.driver.Info(ctx, prefixed(p.theme.InfoPrefix, msg))
}

func prefixed(prefix, msg string) string {
	if prefix == "" {
		return msg
	}
	return prefix + " " + strings.TrimSpace(msg)
}
