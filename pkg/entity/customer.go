package entity

import "github.com/goliatone/go-formdraft/pkg/schema"

// Customer is the draft of the sales customer form.
type Customer struct {
	Name     string
	Lastname string
	Email    string
	Phone    string
	Address  string
}

func (Customer) Kind() Kind { return KindCustomer }
func (Customer) sealed()    {}

// FullName joins name and last name.
func (c Customer) FullName() string {
	if c.Lastname == "" {
		return c.Name
	}
	if c.Name == "" {
		return c.Lastname
	}
	return c.Name + " " + c.Lastname
}

// CustomerSchema is the field set of the customer form.
var CustomerSchema = schema.MustNew(string(KindCustomer),
	schema.String("name", func(c *Customer) *string { return &c.Name },
		schema.Sanitized(),
		schema.Rules(schema.Required(), schema.MaxLength(80))),
	schema.String("lastname", func(c *Customer) *string { return &c.Lastname },
		schema.Sanitized(),
		schema.Rules(schema.MaxLength(80))),
	schema.String("email", func(c *Customer) *string { return &c.Email },
		schema.Rules(schema.Required(), schema.Email())),
	schema.String("phone", func(c *Customer) *string { return &c.Phone },
		schema.Rules(schema.Required(), schema.Pattern(`^\d{1,9}$`).WithMessage("must be up to 9 digits"))),
	schema.String("address", func(c *Customer) *string { return &c.Address },
		schema.Sanitized(),
		schema.Rules(schema.MaxLength(200))),
)
