package entity

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestProformaDefaults(t *testing.T) {
	prev := now
	now = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })

	got := ProformaSchema.Defaults()
	want := Proforma{
		InvoiceNumber: "001",
		Date:          "2024-03-09",
		Company:       0,
		Type:          TypeBasic,
		Observations:  []string{},
		Packages:      []PackageItem{},
		Personnel:     []PersonnelAssignment{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("proforma defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestUserDefaultsToEmployee(t *testing.T) {
	got := UserSchema.Defaults()
	if got.Role != RoleEmployee {
		t.Fatalf("expected employee role, got %d", got.Role)
	}
	if got.DocumentType != DocumentDNI {
		t.Fatalf("expected DNI document type, got %d", got.DocumentType)
	}
}

func TestCustomerSchemaScenarioDraft(t *testing.T) {
	d := CustomerSchema.Defaults()
	d.Name, d.Email, d.Phone = "Ana", "a@x.com", "70000000"
	if res := CustomerSchema.Validate(&d); !res.Valid() {
		t.Fatalf("expected valid customer, got %v", res.Map())
	}

	d.Phone = "7000000000"
	res := CustomerSchema.Validate(&d)
	if diff := cmp.Diff([]string{"phone"}, res.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestProformaContactRequiresOneChannel(t *testing.T) {
	d := ProformaSchema.Defaults()
	res := ProformaSchema.Validate(&d)
	for _, path := range []string{"email", "phone_number", "reference", "package"} {
		if !res.Has(path) {
			t.Fatalf("expected %s to be flagged, got %v", path, res.Paths())
		}
	}

	d.PhoneNumber = "70000000"
	res = ProformaSchema.Validate(&d)
	if res.Has("email") || res.Has("phone_number") {
		t.Fatalf("contact should be satisfied, got %v", res.Map())
	}
}

func TestDescriptors(t *testing.T) {
	desc := DescriptorOf(User{})
	want := Descriptor{
		Kind:            KindUser,
		Path:            "/auth/register",
		OperationID:     "registerUser",
		Topic:           "users",
		AttachmentField: "image",
		SuccessMessage:  "User created successfully",
		FailureMessage:  "Error creating user",
	}
	if diff := cmp.Diff(want, desc); diff != "" {
		t.Fatalf("descriptor mismatch (-want +got):\n%s", diff)
	}
	if _, err := ParseKind("invoice"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestProformaTotal(t *testing.T) {
	p := Proforma{Packages: []PackageItem{{Quantity: 2, UnitPrice: 10}, {Quantity: 1, UnitPrice: 5.5}}}
	if got := p.Total(); got != 25.5 {
		t.Fatalf("expected 25.5, got %v", got)
	}
}
