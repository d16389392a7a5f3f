package tui

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formdraft/internal/model"
	"github.com/goliatone/go-formdraft/pkg/form"
	"github.com/goliatone/go-formdraft/pkg/sections"
)

// Fill renders secs against c until the user accepts the draft. Validation
// errors found after a pass are shown as notices and the user may edit again.
// It returns false when the user declines to submit.
func Fill[D any](ctx context.Context, c *form.Controller[D], p sections.Prompter, secs ...sections.Section) (bool, error) {
	for {
		if err := sections.RenderAll(ctx, c, p, secs...); err != nil {
			return false, err
		}
		res := c.ValidateAll()
		if res.Valid() {
			return p.Confirm(ctx, "Submit "+model.DefaultLabeler(c.Schema().Entity())+"?", true)
		}
		for _, path := range res.Paths() {
			label := model.PathLabel(path)
			if label == "" {
				label = "Form"
			}
			msg := fmt.Sprintf("%s: %s", label, res.First(path))
			if err := p.Notice(ctx, msg); err != nil {
				return false, err
			}
		}
		again, err := p.Confirm(ctx, "Edit the form again?", true)
		if err != nil || !again {
			return false, err
		}
	}
}
