package sections

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formdraft/pkg/attachment"
	"github.com/goliatone/go-formdraft/pkg/form"
)

// Loader opens the file at path. attachment.FileFromPath is the default.
type Loader func(path string) (attachment.File, error)

// ProfileImage picks the user's profile image. It owns no draft fields; the
// image travels through the attachment handler.
type ProfileImage struct {
	handler *attachment.Handler
	load    Loader
}

// NewProfileImage returns the image section bound to h.
func NewProfileImage(h *attachment.Handler, load Loader) *ProfileImage {
	if load == nil {
		load = attachment.FileFromPath
	}
	return &ProfileImage{handler: h, load: load}
}

func (s *ProfileImage) Name() string     { return "profile_image" }
func (s *ProfileImage) Fields() []string { return nil }

// Render asks for an image path. An empty answer keeps the current state and
// "-" removes the selected image.
func (s *ProfileImage) Render(ctx context.Context, _ form.Editor, p Prompter) error {
	for {
		current := ""
		if f, ok := s.handler.File(); ok {
			current = f.Name
		}
		answer, err := p.Ask(ctx, Question{
			Message: "Profile image",
			Default: "",
			Help:    helpFor(current),
		})
		if err != nil {
			return err
		}
		answer = strings.TrimSpace(answer)

		switch answer {
		case "":
			return nil
		case "-":
			return s.handler.Remove(ctx)
		}

		file, err := s.load(answer)
		if err != nil {
			if err := p.Notice(ctx, fmt.Sprintf("Profile image: %v", err)); err != nil {
				return err
			}
			continue
		}
		if err := s.handler.Select(ctx, file); err != nil {
			var policy *attachment.PolicyError
			if !errors.As(err, &policy) {
				return err
			}
			if err := p.Notice(ctx, "Profile image: "+policy.Error()); err != nil {
				return err
			}
			continue
		}
		if notice := s.handler.Notice(); notice != "" {
			if err := p.Notice(ctx, "Profile image: "+notice); err != nil {
				return err
			}
			continue
		}
		if preview, ok := s.handler.Preview(); ok {
			return p.Notice(ctx, "Profile image ready: "+preview.URL)
		}
		return nil
	}
}

func helpFor(current string) string {
	if current == "" {
		return "Path to a PNG, JPEG, GIF or WebP file up to 2 MiB. Leave empty to skip."
	}
	return fmt.Sprintf("Currently %s. Enter a new path, - to remove, or leave empty to keep it.", current)
}
