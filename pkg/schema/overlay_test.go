package schema_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-formdraft/pkg/schema"
)

const orderOverlayYAML = `
entities:
  order:
    fields:
      number:
        label: Invoice number
        default: "100"
      total:
        placeholder: "0.00"
        default: 15
  other:
    fields:
      ignored:
        label: nope
`

func TestWithOverlayAppliesLabelsAndDefaults(t *testing.T) {
	overlay, err := schema.ParseOverlay([]byte(orderOverlayYAML), "inline")
	if err != nil {
		t.Fatalf("parse overlay: %v", err)
	}
	s, err := orderSchema.WithOverlay(overlay)
	if err != nil {
		t.Fatalf("apply overlay: %v", err)
	}

	meta, _ := s.Meta("number")
	if meta.Label != "Invoice number" {
		t.Fatalf("label not applied: %q", meta.Label)
	}
	d := s.Defaults()
	if d.Number != "100" || d.Total != 15 {
		t.Fatalf("defaults not applied: %#v", d)
	}

	original, _ := orderSchema.Meta("number")
	if original.Label != "Number" {
		t.Fatalf("overlay mutated source schema: %q", original.Label)
	}
	if orderSchema.Defaults().Number != "001" {
		t.Fatalf("overlay mutated source defaults")
	}
}

func TestWithOverlayRejectsUnknownFields(t *testing.T) {
	overlay := schema.Overlay{Entities: map[string]schema.EntityOverlay{
		"order": {Fields: map[string]schema.FieldOverlay{"missing": {Label: "x"}}},
	}}
	if _, err := orderSchema.WithOverlay(overlay); !errors.Is(err, schema.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestWithOverlayRejectsBadDefault(t *testing.T) {
	overlay := schema.Overlay{Entities: map[string]schema.EntityOverlay{
		"order": {Fields: map[string]schema.FieldOverlay{"total": {Default: "lots"}}},
	}}
	if _, err := orderSchema.WithOverlay(overlay); !errors.Is(err, schema.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestLoadOverlayJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.json")
	doc := `{"entities":{"order":{"fields":{"email":{"help":"Work address"}}}}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	overlay, err := schema.LoadOverlay(path)
	if err != nil {
		t.Fatalf("load overlay: %v", err)
	}
	s, err := orderSchema.WithOverlay(overlay)
	if err != nil {
		t.Fatalf("apply overlay: %v", err)
	}
	meta, _ := s.Meta("email")
	if meta.Help != "Work address" {
		t.Fatalf("help not applied: %q", meta.Help)
	}
}

func TestParseOverlayRejectsEmpty(t *testing.T) {
	if _, err := schema.ParseOverlay([]byte("  \n"), "blank"); err == nil {
		t.Fatalf("expected error for empty overlay")
	}
}
