package submit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrPending is returned when a submit is attempted while another one
	// has not completed.
	ErrPending = errors.New("submit: submission already pending")
	// ErrRejected marks payloads refused by the contract before sending.
	ErrRejected = errors.New("submit: payload rejected by contract")
)

// Kind classifies an outcome.
type Kind int

const (
	Failure Kind = iota
	Success
)

func (k Kind) String() string {
	if k == Success {
		return "success"
	}
	return "failure"
}

// Outcome is the classified result of one submit.
type Outcome struct {
	Kind      Kind
	Status    int
	Body      []byte
	Err       error
	RequestID string
	Duration  time.Duration
	// Sent is false when the payload never reached the transport.
	Sent bool
}

// Succeeded reports whether the submit succeeded.
func (o Outcome) Succeeded() bool {
	return o.Kind == Success
}

// Classify maps an HTTP status onto an outcome kind. Only 2xx succeeds.
func Classify(status int) Kind {
	if status >= 200 && status < 300 {
		return Success
	}
	return Failure
}

// StatusText renders the outcome for logs and terminals.
func (o Outcome) StatusText() string {
	if o.Status == 0 {
		return o.Kind.String()
	}
	return o.Kind.String() + " (" + strconv.Itoa(o.Status) + ")"
}

// StatusError describes a non-success reply.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.Status)
	if text == "" {
		text = "unexpected status"
	}
	return fmt.Sprintf("submit: server replied %d %s", e.Status, text)
}

// FieldErrors extracts per-field messages from the reply body.
func (e *StatusError) FieldErrors() map[string][]string {
	return ParseErrorPayload(e.Body)
}

// ParseErrorPayload reads the common backend error shapes:
//
//	{"errors": {"email": ["taken"]}}
//	{"errors": [{"field": "email", "message": "taken"}]}
//	{"email": "taken", "message": "Validation failed"}
//
// Top level "message"/"error" strings are returned under the empty key.
func ParseErrorPayload(body []byte) map[string][]string {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil
	}

	out := make(map[string][]string)
	add := func(key string, raw json.RawMessage) {
		for _, msg := range messagesOf(raw) {
			out[key] = append(out[key], msg)
		}
	}

	if raw, ok := doc["errors"]; ok {
		var byField map[string]json.RawMessage
		if err := json.Unmarshal(raw, &byField); err == nil {
			for key, msgs := range byField {
				add(key, msgs)
			}
		}
		var list []struct {
			Field   string `json:"field"`
			Path    string `json:"path"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &list); err == nil {
			for _, item := range list {
				key := item.Field
				if key == "" {
					key = item.Path
				}
				if item.Message != "" {
					out[key] = append(out[key], item.Message)
				}
			}
		}
		delete(doc, "errors")
	}
	for key, raw := range doc {
		switch key {
		case "message", "error", "detail":
			add("", raw)
		case "status", "code", "statusCode":
		default:
			add(key, raw)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func messagesOf(raw json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single = strings.TrimSpace(single); single != "" {
			return []string{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}
