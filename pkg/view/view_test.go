package view_test

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formdraft/pkg/entity"
	"github.com/goliatone/go-formdraft/pkg/schema"
	"github.com/goliatone/go-formdraft/pkg/testsupport"
	"github.com/goliatone/go-formdraft/pkg/view"
)

func newEngine(t *testing.T) *view.Engine {
	t.Helper()
	e, err := view.NewEngine()
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func TestCustomerCardStates(t *testing.T) {
	e := newEngine(t)
	card := view.NewCustomerCard()

	out, err := card.Render(e)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if card.State() != view.CardLoading || !strings.Contains(out, "Loading customer details...") {
		t.Fatalf("expected loading card, got %s %q", card.State(), out)
	}
	if card.Toggle() {
		t.Fatalf("toggle while loading must not expand")
	}

	card.Load(nil)
	out, _ = card.Render(e)
	if card.State() != view.CardNotFound || !strings.Contains(out, "No customer details found.") {
		t.Fatalf("expected not found card, got %s %q", card.State(), out)
	}

	card.Load(&entity.Customer{Name: "Ana", Lastname: "Rojas", Email: "a@x.com", Phone: "70000000"})
	out, _ = card.Render(e)
	if card.State() != view.CardCollapsed {
		t.Fatalf("expected collapsed, got %s", card.State())
	}
	if !strings.Contains(out, "[+] Customer details") || strings.Contains(out, "a@x.com") {
		t.Fatalf("collapsed card must hide details, got %q", out)
	}

	if !card.Toggle() {
		t.Fatalf("toggle should expand")
	}
	out, _ = card.Render(e)
	for _, want := range []string{"[-] Customer details", "Ana Rojas", "a@x.com", "70000000", "Address: -"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expanded card missing %q:\n%s", want, out)
		}
	}

	if card.Toggle() || card.State() != view.CardCollapsed {
		t.Fatalf("second toggle should collapse")
	}
}

func TestCustomerCardDoesNotEscapeText(t *testing.T) {
	e := newEngine(t)
	card := view.NewCustomerCard()
	card.Load(&entity.Customer{Name: "Smith & Sons", Email: "s@x.com", Phone: "1"})
	card.Toggle()
	out, err := card.Render(e)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "Smith & Sons") {
		t.Fatalf("text output should not be HTML escaped: %q", out)
	}
}

func TestPreviewMasksSecretsAndListsItems(t *testing.T) {
	e := newEngine(t)

	u := entity.UserSchema.Defaults()
	u.Username = "ana"
	u.Password = "secret-pass"
	out, err := view.Preview(e, entity.UserSchema, &u, schema.Result{})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if strings.Contains(out, "secret-pass") || !strings.Contains(out, "Password: ********") {
		t.Fatalf("password must be masked:\n%s", out)
	}
	if !strings.Contains(out, "Role: Employee") || !strings.Contains(out, "Document Type: DNI") {
		t.Fatalf("options should render their labels:\n%s", out)
	}

	p := entity.ProformaSchema.Defaults()
	p.Reference = "REF-1"
	p.Observations = []string{"fragile"}
	p.Packages = []entity.PackageItem{{Name: "Tent", Quantity: 2, UnitPrice: 9.5}}
	result := entity.ProformaSchema.Validate(&p)

	out, err = view.Preview(e, entity.ProformaSchema, &p, result)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	for _, want := range []string{
		"Proforma preview",
		"Reference: REF-1",
		"Observations (1)",
		"  #1: fragile",
		"Packages (1)",
		"    Name: Tent",
		"    Unit Price: 9.5",
		"Errors",
		"Prepared By: ",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("preview missing %q:\n%s", want, out)
		}
	}
}

func TestPreviewErrorsUsePathLabels(t *testing.T) {
	e := newEngine(t)
	p := entity.ProformaSchema.Defaults()
	p.Packages = []entity.PackageItem{{Name: "Tent", Quantity: 1}, {Name: "", Quantity: 0}}
	result := entity.ProformaSchema.Validate(&p)
	if !result.Has("package.1.quantity") {
		t.Fatalf("expected a nested error, got %v", result.Map())
	}

	out, err := view.Preview(e, entity.ProformaSchema, &p, result)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(out, "Package #2 Quantity: ") {
		t.Fatalf("nested errors should be labelled:\n%s", out)
	}
}

func TestCustomerViewsMatchGoldens(t *testing.T) {
	e := newEngine(t)
	customer := entity.Customer{Name: "Ana", Email: "a@x.com", Phone: "70000000"}

	card := view.NewCustomerCard()
	card.Load(&entity.Customer{Name: "Ana", Lastname: "Rojas", Email: "a@x.com", Phone: "70000000"})
	card.Toggle()
	returned, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return card.Render(e, w)
	})
	if returned != written {
		t.Fatalf("render must return what it writes:\n%q\n%q", returned, written)
	}
	testsupport.AssertGolden(t, filepath.Join("testdata", "customer_card_expanded.golden"), returned)

	out, err := view.Preview(e, entity.CustomerSchema, &customer, schema.Result{})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	testsupport.AssertGolden(t, filepath.Join("testdata", "customer_preview.golden"), out)
}
