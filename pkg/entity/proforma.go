package entity

import (
	"time"

	"github.com/goliatone/go-formdraft/internal/model"
	"github.com/goliatone/go-formdraft/pkg/schema"
)

// DateLayout is the wire format of proforma dates.
const DateLayout = "2006-01-02"

// Proforma service tiers.
const (
	TypeBasic        = "Basica"
	TypeIntermediate = "Intermedia"
	TypePremium      = "Premium"
)

// Proforma is the draft of an accounting proforma document.
type Proforma struct {
	InvoiceNumber string
	Date          string
	Reference     string
	PreparedBy    string
	RequiredBy    string
	ApprovedBy    string
	Email         string
	PhoneNumber   string
	WorkTime      string
	Company       int
	Type          string
	Observations  []string
	Packages      []PackageItem
	Personnel     []PersonnelAssignment
}

func (Proforma) Kind() Kind { return KindProforma }
func (Proforma) sealed()    {}

// PackageItem is one priced line of a proforma.
type PackageItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// PersonnelAssignment assigns a person to the project for a number of days.
type PersonnelAssignment struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Days     int    `json:"days"`
}

// Total sums quantity times unit price over the package lines.
func (p Proforma) Total() float64 {
	var total float64
	for _, item := range p.Packages {
		total += float64(item.Quantity) * item.UnitPrice
	}
	return total
}

var now = time.Now

func today() any {
	return now().Format(DateLayout)
}

func validDate(v any, _ schema.Values) bool {
	s, _ := v.(string)
	if s == "" {
		return true
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// PackageItemSchema validates package lines.
var PackageItemSchema = schema.MustNew("package_item",
	schema.String("name", func(p *PackageItem) *string { return &p.Name },
		schema.Sanitized(),
		schema.Rules(schema.Required(), schema.MaxLength(120))),
	schema.String("description", func(p *PackageItem) *string { return &p.Description },
		schema.Sanitized(), schema.Multiline(),
		schema.Rules(schema.MaxLength(500))),
	schema.Int("quantity", func(p *PackageItem) *int { return &p.Quantity },
		schema.Default(1),
		schema.Rules(schema.Min(1))),
	schema.Float("unit_price", func(p *PackageItem) *float64 { return &p.UnitPrice },
		schema.Rules(schema.Min(0))),
)

// PersonnelSchema validates personnel assignments.
var PersonnelSchema = schema.MustNew("personnel_assignment",
	schema.String("name", func(p *PersonnelAssignment) *string { return &p.Name },
		schema.Sanitized(),
		schema.Rules(schema.Required())),
	schema.String("position", func(p *PersonnelAssignment) *string { return &p.Position },
		schema.Sanitized(),
		schema.Rules(schema.Required())),
	schema.Int("days", func(p *PersonnelAssignment) *int { return &p.Days },
		schema.Default(1),
		schema.Rules(schema.Min(1))),
)

// ProformaSchema is the field set of the proforma form.
var ProformaSchema = schema.MustNew(string(KindProforma),
	schema.String("invoice_number", func(p *Proforma) *string { return &p.InvoiceNumber },
		schema.Default("001"),
		schema.Rules(schema.Required(), schema.Digits())),
	schema.String("date", func(p *Proforma) *string { return &p.Date },
		schema.DefaultFunc(today),
		schema.Placeholder("YYYY-MM-DD"),
		schema.Rules(schema.Required(), schema.Custom("must be a date (YYYY-MM-DD)", validDate))),
	schema.String("reference", func(p *Proforma) *string { return &p.Reference },
		schema.Sanitized(),
		schema.Rules(schema.Required())),
	schema.String("prepared_by", func(p *Proforma) *string { return &p.PreparedBy },
		schema.Sanitized(),
		schema.Rules(schema.Required())),
	schema.String("required_by", func(p *Proforma) *string { return &p.RequiredBy },
		schema.Sanitized(),
		schema.Rules(schema.Required())),
	schema.String("approved_by", func(p *Proforma) *string { return &p.ApprovedBy },
		schema.Sanitized()),
	schema.String("email", func(p *Proforma) *string { return &p.Email },
		schema.Rules(schema.Email(), schema.RequiredWithout("phone_number"))),
	schema.String("phone_number", func(p *Proforma) *string { return &p.PhoneNumber },
		schema.Rules(schema.Pattern(`^\d{1,9}$`).WithMessage("must be up to 9 digits"), schema.RequiredWithout("email"))),
	schema.String("work_time", func(p *Proforma) *string { return &p.WorkTime },
		schema.Help("Expected duration, e.g. 3 weeks"),
		schema.Sanitized()),
	schema.Int("company", func(p *Proforma) *int { return &p.Company },
		schema.Default(0),
		schema.Rules(schema.Min(0))),
	schema.String("type", func(p *Proforma) *string { return &p.Type },
		schema.Default(TypeBasic),
		schema.Options(
			model.Option{Value: TypeBasic, Label: "Basic"},
			model.Option{Value: TypeIntermediate, Label: "Intermediate"},
			model.Option{Value: TypePremium, Label: "Premium"},
		),
		schema.Rules(schema.Required(), schema.OneOf(TypeBasic, TypeIntermediate, TypePremium))),
	schema.StringList("observations", func(p *Proforma) *[]string { return &p.Observations },
		schema.Sanitized(), schema.Multiline(),
		schema.ItemRules(schema.Required(), schema.MaxLength(500))),
	schema.List("package", func(p *Proforma) *[]PackageItem { return &p.Packages }, PackageItemSchema,
		schema.Label("Packages"),
		schema.Rules(schema.MinItems(1))),
	schema.List("personal_proyecto", func(p *Proforma) *[]PersonnelAssignment { return &p.Personnel }, PersonnelSchema,
		schema.Label("Project personnel")),
)
