package form

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-formdraft/pkg/schema"
)

// ApplyServerErrors maps a backend error payload onto the draft and merges
// the field messages into the current validation result. Keys may use JSON
// pointer ("/body/email"), bracket ("package[1].quantity") or dotted forms,
// optionally wrapped in body/request/payload/data segments. Keys that match
// no field are kept as form level messages so nothing is lost.
func (c *Controller[D]) ApplyServerErrors(payload map[string][]string) ServerErrors {
	mapped := c.mapErrorPayload(payload)
	c.errors = c.errors.Merge(schema.NewResult(mapped.Fields))
	c.server = mergeMessages(c.server, mapped.Form...)
	if len(mapped.Fields) > 0 || len(mapped.Form) > 0 {
		c.emit(Change{Index: -1, Op: OpServer})
	}
	return mapped
}

func (c *Controller[D]) mapErrorPayload(payload map[string][]string) ServerErrors {
	mapping := ServerErrors{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := c.fieldPaths()
	for rawPath, messages := range payload {
		normalized := normalizeMessages(messages)
		if len(normalized) == 0 {
			continue
		}
		mapped, formLevel := mapErrorPath(rawPath, known)
		if formLevel {
			mapping.Form = append(mapping.Form, normalized...)
			continue
		}
		mapping.Fields[mapped] = mergeMessages(mapping.Fields[mapped], normalized...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// fieldPaths lists every addressable path of the current draft, including
// list members at their present indices.
func (c *Controller[D]) fieldPaths() map[string]struct{} {
	out := make(map[string]struct{})
	for _, meta := range c.schema.Metas() {
		out[meta.Name] = struct{}{}
		if !meta.IsList() {
			continue
		}
		n, err := c.schema.Len(&c.draft, meta.Name)
		if err != nil {
			continue
		}
		for i := 0; i < n; i++ {
			member := meta.Name + "." + strconv.Itoa(i)
			out[member] = struct{}{}
			for _, item := range meta.Items {
				out[member+"."+item.Name] = struct{}{}
			}
		}
	}
	return out
}

func mergeMessages(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mapErrorPath(raw string, known map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", true
	}
	segments := parsePathSegments(trimmed)
	if len(segments) == 0 {
		return "", true
	}

	best := ""
	for _, variant := range segmentVariants(segments) {
		path := longestMatchingPath(variant, known)
		if path == "" {
			continue
		}
		if best == "" || strings.Count(path, ".") > strings.Count(best, ".") {
			best = path
		}
	}
	if best == "" {
		return "", true
	}
	return best, false
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = clean[1:]
	}
	clean = strings.NewReplacer("[", ".", "]", "", "//", "/").Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool { return r == '.' || r == '/' })
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

// segmentVariants yields the raw segments, the segments without transport
// wrappers, and both again without numeric indices.
func segmentVariants(segments []string) [][]string {
	var variants [][]string
	seen := make(map[string]struct{}, 4)
	add := func(candidate []string) {
		if len(candidate) == 0 {
			return
		}
		key := strings.Join(candidate, ".")
		if _, exists := seen[key]; exists {
			return
		}
		seen[key] = struct{}{}
		variants = append(variants, append([]string(nil), candidate...))
	}

	noWrappers := dropWrapperSegments(segments)
	add(segments)
	add(noWrappers)
	add(stripNumericSegments(segments))
	add(stripNumericSegments(noWrappers))
	return variants
}

var wrapperSegments = map[string]struct{}{
	"body":       {},
	"request":    {},
	"payload":    {},
	"data":       {},
	"attributes": {},
	"errors":     {},
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 0 {
		if _, ok := wrapperSegments[strings.ToLower(out[0])]; !ok {
			break
		}
		out = out[1:]
	}
	return out
}

func stripNumericSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func longestMatchingPath(segments []string, known map[string]struct{}) string {
	for end := len(segments); end > 0; end-- {
		candidate := strings.Join(segments[:end], ".")
		if _, ok := known[candidate]; ok {
			return candidate
		}
	}
	return ""
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
