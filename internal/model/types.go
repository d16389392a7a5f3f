package model

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeArray   FieldType = "array"
	FieldTypeObject  FieldType = "object"
)

// Numeric reports whether values of the type travel as numbers.
func (t FieldType) Numeric() bool {
	return t == FieldTypeInteger || t == FieldTypeNumber
}

const (
	ValidationRuleRequired        = "required"
	ValidationRuleRequiredWithout = "requiredWithout"
	ValidationRuleMin             = "min"
	ValidationRuleMax             = "max"
	ValidationRuleMinLength       = "minLength"
	ValidationRuleMaxLength       = "maxLength"
	ValidationRulePattern         = "pattern"
	ValidationRuleEmail           = "email"
	ValidationRuleDigits          = "digits"
	ValidationRuleOneOf           = "oneOf"
	ValidationRuleMinItems        = "minItems"
	ValidationRuleCustom          = "custom"
)

// ValidationRule describes a single constraint in declarative form. Numeric
// bounds and length limits encode their threshold in Params["value"], pattern
// rules keep the expression in Params["pattern"] and cross-field rules name
// the sibling in Params["field"]. Values are strings to keep snapshots stable.
type ValidationRule struct {
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// Option is a selectable value for enumerated fields.
type Option struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}
