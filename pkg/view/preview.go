package view

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goliatone/go-formdraft/internal/model"
	"github.com/goliatone/go-formdraft/pkg/schema"
)

const (
	masked = "********"
	blank  = "-"
)

// Preview renders the current values of d without submitting it. Secret
// fields are masked. Messages in result, when any, are listed after the
// values.
func Preview[D any](e *Engine, s *schema.Schema[D], d *D, result schema.Result, out ...io.Writer) (string, error) {
	var rows []map[string]any
	add := func(indent, label, value string) {
		rows = append(rows, map[string]any{"indent": indent, "label": label, "value": value})
	}
	header := func(indent, label string) {
		rows = append(rows, map[string]any{"indent": indent, "label": label, "header": true})
	}

	for _, meta := range s.Metas() {
		value, _ := s.Get(d, meta.Name)
		if !meta.IsList() {
			add("", meta.Label, displayValue(meta, value))
			continue
		}

		n, err := s.Len(d, meta.Name)
		if err != nil {
			return "", err
		}
		header("", fmt.Sprintf("%s (%d)", meta.Label, n))
		if len(meta.Items) == 0 {
			items, _ := value.([]string)
			for i, item := range items {
				add("  ", "#"+strconv.Itoa(i+1), orBlank(item))
			}
			continue
		}
		for i := 0; i < n; i++ {
			header("  ", "#"+strconv.Itoa(i+1))
			for _, im := range meta.Items {
				v, err := s.Item(d, meta.Name, i, im.Name)
				if err != nil {
					return "", err
				}
				add("    ", im.Label, displayValue(im, v))
			}
		}
	}

	var errs []map[string]any
	for _, path := range result.Paths() {
		for _, msg := range result.Messages(path) {
			errs = append(errs, map[string]any{"path": path, "message": msg})
		}
	}

	return e.Render("draft_preview", map[string]any{
		"title":  model.DefaultLabeler(s.Entity()) + " preview",
		"rows":   rows,
		"errors": errs,
	}, out...)
}

func displayValue(meta schema.Meta, value any) string {
	text := formatScalar(value)
	if meta.Secret {
		if text == "" {
			return blank
		}
		return masked
	}
	for _, opt := range meta.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return orBlank(text)
}

func formatScalar(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(value)
}

func orBlank(s string) string {
	if strings.TrimSpace(s) == "" {
		return blank
	}
	return s
}
