package entity

import (
	"github.com/goliatone/go-formdraft/internal/model"
	"github.com/goliatone/go-formdraft/pkg/schema"
)

// Document types accepted at registration.
const (
	DocumentDNI      = 1
	DocumentCedula   = 2
	DocumentPassport = 3
	DocumentOther    = 4
)

// Roles a registered user may hold.
const (
	RoleAdmin    = 1
	RoleEmployee = 2
)

// User is the draft of the user registration form. The profile image is not
// part of the draft; it travels as the attachment.
type User struct {
	Username       string
	Password       string
	Email          string
	Name           string
	Lastname       string
	DocumentType   int
	DocumentNumber string
	Phone          string
	Address        string
	Role           int
}

func (User) Kind() Kind { return KindUser }
func (User) sealed()    {}

// UserSchema is the field set of the registration form. New users default
// to the employee role.
var UserSchema = schema.MustNew(string(KindUser),
	schema.String("username", func(u *User) *string { return &u.Username },
		schema.Rules(schema.Required(), schema.MinLength(3), schema.MaxLength(32))),
	schema.String("password", func(u *User) *string { return &u.Password },
		schema.Secret(),
		schema.Rules(schema.Required(), schema.MinLength(8))),
	schema.String("email", func(u *User) *string { return &u.Email },
		schema.Rules(schema.Required(), schema.Email())),
	schema.String("name", func(u *User) *string { return &u.Name },
		schema.Sanitized(),
		schema.Rules(schema.Required())),
	schema.String("lastname", func(u *User) *string { return &u.Lastname },
		schema.Sanitized(),
		schema.Rules(schema.Required())),
	schema.Int("document_type", func(u *User) *int { return &u.DocumentType },
		schema.Default(DocumentDNI),
		schema.Options(
			model.Option{Value: DocumentDNI, Label: "DNI"},
			model.Option{Value: DocumentCedula, Label: "Cedula"},
			model.Option{Value: DocumentPassport, Label: "Pasaporte"},
			model.Option{Value: DocumentOther, Label: "Otros"},
		),
		schema.Rules(schema.OneOf(DocumentDNI, DocumentCedula, DocumentPassport, DocumentOther))),
	schema.String("document_number", func(u *User) *string { return &u.DocumentNumber },
		schema.Rules(schema.Required(), schema.MaxLength(20))),
	schema.String("phone", func(u *User) *string { return &u.Phone },
		schema.Rules(schema.Required(), schema.Pattern(`^\d{1,9}$`).WithMessage("must be up to 9 digits"))),
	schema.String("address", func(u *User) *string { return &u.Address },
		schema.Sanitized(),
		schema.Rules(schema.MaxLength(200))),
	schema.Int("role", func(u *User) *int { return &u.Role },
		schema.Default(RoleEmployee),
		schema.Options(
			model.Option{Value: RoleAdmin, Label: "Administrator"},
			model.Option{Value: RoleEmployee, Label: "Employee"},
		),
		schema.Rules(schema.OneOf(RoleAdmin, RoleEmployee))),
)
