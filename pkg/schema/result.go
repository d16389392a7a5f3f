package schema

import (
	"sort"
	"strings"
)

// Result maps dotted field paths to validation messages. The zero value is a
// valid (error free) result. Results are values; methods never mutate the
// receiver.
type Result struct {
	issues map[string][]string
}

// NewResult builds a Result from a path → messages map, dropping empty
// entries.
func NewResult(issues map[string][]string) Result {
	var r Result
	for path, messages := range issues {
		for _, msg := range messages {
			r = r.with(path, msg)
		}
	}
	return r
}

// Valid reports whether no path carries an error.
func (r Result) Valid() bool {
	return len(r.issues) == 0
}

// Len returns the number of paths with errors.
func (r Result) Len() int {
	return len(r.issues)
}

// Has reports whether path has at least one error.
func (r Result) Has(path string) bool {
	_, ok := r.issues[path]
	return ok
}

// Messages returns the messages attached to path.
func (r Result) Messages(path string) []string {
	return append([]string(nil), r.issues[path]...)
}

// First returns the first message for path, or "" when path is valid.
func (r Result) First(path string) string {
	if msgs := r.issues[path]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Paths lists the paths with errors in sorted order.
func (r Result) Paths() []string {
	if len(r.issues) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.issues))
	for path := range r.issues {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Map returns a copy of the underlying path → messages map.
func (r Result) Map() map[string][]string {
	if len(r.issues) == 0 {
		return nil
	}
	out := make(map[string][]string, len(r.issues))
	for path, msgs := range r.issues {
		out[path] = append([]string(nil), msgs...)
	}
	return out
}

// Replace drops every entry for field (the exact path and any nested
// "field.*" paths) and merges update in their place.
func (r Result) Replace(field string, update Result) Result {
	out := Result{}
	prefix := field + "."
	for path, msgs := range r.issues {
		if path == field || strings.HasPrefix(path, prefix) {
			continue
		}
		for _, msg := range msgs {
			out = out.with(path, msg)
		}
	}
	for path, msgs := range update.issues {
		for _, msg := range msgs {
			out = out.with(path, msg)
		}
	}
	return out
}

// Merge combines two results.
func (r Result) Merge(other Result) Result {
	out := Result{}
	for _, src := range []Result{r, other} {
		for path, msgs := range src.issues {
			for _, msg := range msgs {
				out = out.with(path, msg)
			}
		}
	}
	return out
}

func (r Result) with(path, msg string) Result {
	path = strings.TrimSpace(path)
	msg = strings.TrimSpace(msg)
	if path == "" || msg == "" {
		return r
	}
	if r.issues == nil {
		r.issues = make(map[string][]string)
	}
	for _, existing := range r.issues[path] {
		if existing == msg {
			return r
		}
	}
	r.issues[path] = append(r.issues[path], msg)
	return r
}

func (r Result) prefixed(prefix string) Result {
	out := Result{}
	for path, msgs := range r.issues {
		for _, msg := range msgs {
			out = out.with(prefix+"."+path, msg)
		}
	}
	return out
}
