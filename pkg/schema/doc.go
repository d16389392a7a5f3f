// Package schema declares the field schemas that back every form draft.
//
// A Schema is bound to one draft struct type. Each Field pairs a wire name
// with a typed accessor into the struct, a default, display metadata, and a
// list of Rules. Rules are pure: they receive the field value and read-only
// access to sibling values and either pass or return a message. Rules that
// read siblings declare them, which lets callers re-validate dependents when
// a sibling changes.
//
// List fields (package line-items, personnel, observations) carry an item
// schema so new items start from item defaults and each member is validated
// under a dotted path such as "package.1.quantity".
//
// Schemas are immutable once built. Overlays loaded from YAML or JSON produce
// a new Schema with adjusted labels and defaults.
package schema
