package contract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdraft/pkg/attachment"
	"github.com/goliatone/go-formdraft/pkg/contract"
	"github.com/goliatone/go-formdraft/pkg/entity"
	"github.com/goliatone/go-formdraft/pkg/schema"
	"github.com/goliatone/go-formdraft/pkg/submit"
)

func loadDefault(t *testing.T) *contract.Contract {
	t.Helper()
	c, err := contract.Default(context.Background())
	if err != nil {
		t.Fatalf("load default contract: %v", err)
	}
	return c
}

func TestDefaultDeclaresEveryEntity(t *testing.T) {
	c := loadDefault(t)
	if diff := cmp.Diff([]string{"createCustomer", "createProforma", "registerUser"}, c.Operations()); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
	for _, kind := range entity.Kinds() {
		desc, _ := entity.Describe(kind)
		resolved, err := c.Resolve(desc)
		if err != nil {
			t.Fatalf("resolve %s: %v", kind, err)
		}
		if resolved.Path != desc.Path {
			t.Fatalf("%s: contract path %q, descriptor path %q", kind, resolved.Path, desc.Path)
		}
	}

	op, err := c.Operation("registerUser")
	if err != nil {
		t.Fatalf("operation: %v", err)
	}
	if diff := cmp.Diff([]string{"application/json", "multipart/form-data"}, op.MediaTypes()); diff != "" {
		t.Fatalf("media types mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownOperation(t *testing.T) {
	c := loadDefault(t)
	if _, err := c.PathFor("deleteEverything"); !errors.Is(err, contract.ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
}

func TestValidatePayloadAcceptsValidCustomer(t *testing.T) {
	c := loadDefault(t)
	customer := entity.CustomerSchema.Defaults()
	customer.Name = "Ana"
	customer.Email = "a@x.com"
	customer.Phone = "70000000"

	payload := submit.Prepare(entity.CustomerSchema.Project(&customer), nil, "")
	if err := c.ValidatePayload(context.Background(), "createCustomer", payload); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
}

func TestValidatePayloadReportsFields(t *testing.T) {
	c := loadDefault(t)
	payload := submit.Prepare([]schema.FieldValue{
		{Name: "name", Value: "Ana"},
		{Name: "phone", Value: "not-a-phone"},
	}, nil, "")

	err := c.ValidatePayload(context.Background(), "createCustomer", payload)
	var violation *contract.ViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected ViolationError, got %v", err)
	}
	if _, ok := violation.Fields["phone"]; !ok {
		t.Fatalf("expected phone violation, got %v", violation.Fields)
	}
	if _, ok := violation.Fields["email"]; !ok {
		t.Fatalf("expected missing email violation, got %v", violation.Fields)
	}
}

func TestValidatePayloadProformaDefaultsNeedPackages(t *testing.T) {
	c := loadDefault(t)
	p := entity.ProformaSchema.Defaults()
	p.Reference = "REF-1"
	p.PreparedBy = "Ana"
	p.RequiredBy = "Luis"

	payload := submit.Prepare(entity.ProformaSchema.Project(&p), nil, "")
	err := c.ValidatePayload(context.Background(), "createProforma", payload)
	var violation *contract.ViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected ViolationError, got %v", err)
	}
	if _, ok := violation.Fields["package"]; !ok {
		t.Fatalf("expected package violation, got %v", violation.Fields)
	}

	p.Packages = []entity.PackageItem{{Name: "Tent", Quantity: 2, UnitPrice: 10}}
	payload = submit.Prepare(entity.ProformaSchema.Project(&p), nil, "")
	if err := c.ValidatePayload(context.Background(), "createProforma", payload); err != nil {
		t.Fatalf("expected valid proforma, got %v", err)
	}
}

func TestValidateMultipartUser(t *testing.T) {
	c := loadDefault(t)
	u := entity.UserSchema.Defaults()
	u.Username = "ana"
	u.Password = "secret-pass"
	u.Email = "a@x.com"
	u.Name = "Ana"
	u.Lastname = "Rojas"
	u.DocumentNumber = "12345"
	u.Phone = "70000000"
	file := attachment.FromBytes("me.png", "image/png", []byte("x"))

	payload := submit.Prepare(entity.UserSchema.Project(&u), &file, "image")
	if err := c.ValidatePayload(context.Background(), "registerUser", payload); err != nil {
		t.Fatalf("expected valid multipart payload, got %v", err)
	}

	customerWithFile := submit.Prepare(nil, &file, "image")
	if err := c.ValidatePayload(context.Background(), "createCustomer", customerWithFile); !errors.Is(err, contract.ErrNoRequestBody) {
		t.Fatalf("expected ErrNoRequestBody, got %v", err)
	}
}

func TestLoadRejectsEmptyAndBrokenDocuments(t *testing.T) {
	if _, err := contract.Load(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if _, err := contract.Load(context.Background(), []byte("openapi: [")); err == nil {
		t.Fatalf("expected error for malformed document")
	}
}
