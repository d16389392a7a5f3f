package form_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formdraft/pkg/entity"
	"github.com/goliatone/go-formdraft/pkg/form"
)

func TestScopeRestrictsWrites(t *testing.T) {
	c := form.New(entity.ProformaSchema)
	scope, err := c.Scope("observations")
	if err != nil {
		t.Fatalf("scope: %v", err)
	}

	if err := scope.SetField("reference", "x"); !errors.Is(err, form.ErrFieldNotOwned) {
		t.Fatalf("expected ErrFieldNotOwned, got %v", err)
	}
	if _, err := scope.AppendItem("package"); !errors.Is(err, form.ErrFieldNotOwned) {
		t.Fatalf("expected ErrFieldNotOwned, got %v", err)
	}

	idx, err := scope.AppendItem("observations")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := scope.SetItemField("observations", idx, "", "Bring generator"); err != nil {
		t.Fatalf("set item: %v", err)
	}
	if diff := cmp.Diff([]string{"Bring generator"}, c.Snapshot().Observations); diff != "" {
		t.Fatalf("observations mismatch (-want +got):\n%s", diff)
	}
}

func TestScopeRejectsUnknownNames(t *testing.T) {
	c := form.New(entity.CustomerSchema)
	if _, err := c.Scope("name", "nickname"); !errors.Is(err, form.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestScopeErrorsOnlyOwnedPaths(t *testing.T) {
	c := form.New(entity.ProformaSchema)
	c.ValidateAll()
	scope, err := c.Scope("reference", "package")
	if err != nil {
		t.Fatalf("scope: %v", err)
	}
	got := scope.Errors().Paths()
	if diff := cmp.Diff([]string{"package", "reference"}, got); diff != "" {
		t.Fatalf("scoped errors mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyServerErrors(t *testing.T) {
	c := form.New(entity.ProformaSchema)
	if _, err := c.AppendItem("package"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := c.AppendItem("package"); err != nil {
		t.Fatalf("append: %v", err)
	}

	mapped := c.ApplyServerErrors(map[string][]string{
		"/body/email":           {"Email already used"},
		"package[1].unit_price": {"Price too low"},
		"data.reference":        {" Reference taken ", "Reference taken"},
		"non_field_errors":      {"Try again later"},
		"unknown_field":         {"Lost field"},
	})

	wantFields := map[string][]string{
		"email":                {"Email already used"},
		"package.1.unit_price": {"Price too low"},
		"reference":            {"Reference taken"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field mapping mismatch (-want +got):\n%s", diff)
	}
	wantForm := []string{"Lost field", "Try again later"}
	if diff := cmp.Diff(wantForm, mapped.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if c.Errors().First("email") != "Email already used" {
		t.Fatalf("server message not merged: %v", c.Errors().Map())
	}
	if len(c.FormErrors()) != 2 {
		t.Fatalf("expected form level messages retained, got %v", c.FormErrors())
	}
}
