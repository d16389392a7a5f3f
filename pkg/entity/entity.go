// Package entity declares the closed set of drafts the administration forms
// edit: proformas, users and customers. Each draft is a plain struct with a
// package-level schema and a descriptor naming its endpoint and list topic.
package entity

import "fmt"

// Kind identifies a draft variant.
type Kind string

const (
	KindProforma Kind = "proforma"
	KindUser     Kind = "user"
	KindCustomer Kind = "customer"
)

// Draft is implemented only by the structs in this package.
type Draft interface {
	Kind() Kind
	sealed()
}

// Descriptor carries the transport facts of an entity.
type Descriptor struct {
	Kind Kind
	// Path is the default POST endpoint relative to the API base URL.
	Path string
	// OperationID names the operation in the API contract.
	OperationID string
	// Topic is the list-changed signal raised after a successful submit.
	Topic string
	// AttachmentField is the multipart part name for the file, empty when the
	// entity takes no attachment.
	AttachmentField string
	SuccessMessage  string
	FailureMessage  string
}

var descriptors = map[Kind]Descriptor{
	KindProforma: {
		Kind:           KindProforma,
		Path:           "/proformas",
		OperationID:    "createProforma",
		Topic:          "proformas",
		SuccessMessage: "Proforma created successfully",
		FailureMessage: "Error creating proforma",
	},
	KindUser: {
		Kind:            KindUser,
		Path:            "/auth/register",
		OperationID:     "registerUser",
		Topic:           "users",
		AttachmentField: "image",
		SuccessMessage:  "User created successfully",
		FailureMessage:  "Error creating user",
	},
	KindCustomer: {
		Kind:           KindCustomer,
		Path:           "/customers",
		OperationID:    "createCustomer",
		Topic:          "customers",
		SuccessMessage: "Customer created successfully",
		FailureMessage: "Error creating customer",
	},
}

// Describe returns the descriptor of kind.
func Describe(kind Kind) (Descriptor, error) {
	d, ok := descriptors[kind]
	if !ok {
		return Descriptor{}, fmt.Errorf("entity: unknown kind %q", kind)
	}
	return d, nil
}

// DescriptorOf returns the descriptor of the draft's kind.
func DescriptorOf(d Draft) Descriptor {
	desc, _ := Describe(d.Kind())
	return desc
}

// Kinds lists every entity kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindProforma, KindUser, KindCustomer}
}

// ParseKind maps a user supplied name onto a Kind.
func ParseKind(raw string) (Kind, error) {
	kind := Kind(raw)
	if _, ok := descriptors[kind]; !ok {
		return "", fmt.Errorf("entity: unknown kind %q (want one of %v)", raw, Kinds())
	}
	return kind, nil
}
