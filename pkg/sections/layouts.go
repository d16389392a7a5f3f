package sections

import "github.com/goliatone/go-formdraft/pkg/attachment"

// BasicInfo is the proforma header section.
func BasicInfo() *Fields {
	return NewFields("basic_info",
		"invoice_number", "date", "reference",
		"prepared_by", "required_by", "approved_by",
		"email", "phone_number", "work_time", "company", "type")
}

// Packages edits the proforma package lines.
func Packages() *List { return NewList("packages", "package", "name") }

// Personnel edits the project personnel assignments.
func Personnel() *List { return NewList("personnel", "personal_proyecto", "name") }

// Observations edits the free text observations.
func Observations() *List { return NewList("observations", "observations", "") }

// Identity is the user registration section.
func Identity() *Fields {
	return NewFields("identity",
		"username", "password", "email", "name", "lastname",
		"document_type", "document_number", "phone", "address", "role")
}

// Contact is the customer section.
func Contact() *Fields {
	return NewFields("contact", "name", "lastname", "email", "phone", "address")
}

// ProformaLayout lists the proforma sections in display order.
func ProformaLayout() []Section {
	return []Section{BasicInfo(), Packages(), Personnel(), Observations()}
}

// UserLayout lists the user sections; the image section is bound to h.
func UserLayout(h *attachment.Handler, load Loader) []Section {
	return []Section{NewProfileImage(h, load), Identity()}
}

// CustomerLayout lists the customer sections.
func CustomerLayout() []Section {
	return []Section{Contact()}
}
