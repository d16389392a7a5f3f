// Package contract resolves create endpoints from an OpenAPI document and
// checks outgoing payloads against the documented request bodies.
package contract

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formdraft/pkg/entity"
	"github.com/goliatone/go-formdraft/pkg/submit"
)

//go:embed formdraft.yaml
var defaultDocument []byte

const (
	mediaJSON      = "application/json"
	mediaMultipart = "multipart/form-data"
)

var (
	// ErrUnknownOperation is returned for operation ids the document does not
	// declare.
	ErrUnknownOperation = errors.New("contract: unknown operation")
	// ErrNoRequestBody is returned when an operation documents no body for
	// the payload's media type.
	ErrNoRequestBody = errors.New("contract: no request body for media type")
)

// Operation is one documented endpoint.
type Operation struct {
	ID     string
	Method string
	Path   string
	bodies map[string]*openapi3.Schema
}

// MediaTypes lists the request body media types the operation accepts.
func (o Operation) MediaTypes() []string {
	out := make([]string, 0, len(o.bodies))
	for mt := range o.bodies {
		out = append(out, mt)
	}
	sort.Strings(out)
	return out
}

// Contract is a loaded OpenAPI document indexed by operation id.
type Contract struct {
	title      string
	version    string
	operations map[string]Operation
}

// Default loads the contract bundled with the module.
func Default(ctx context.Context) (*Contract, error) {
	return Load(ctx, defaultDocument)
}

// LoadFile loads a contract from disk. External references are resolved
// relative to the file.
func LoadFile(ctx context.Context, path string) (*Contract, error) {
	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: true}
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("contract: load %s: %w", path, err)
	}
	return build(ctx, doc)
}

// Load parses a contract from raw YAML or JSON.
func Load(ctx context.Context, data []byte) (*Contract, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("contract: document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("contract: load document: %w", err)
	}
	return build(ctx, doc)
}

func build(ctx context.Context, doc *openapi3.T) (*Contract, error) {
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("contract: validate: %w", err)
	}
	c := &Contract{operations: make(map[string]Operation)}
	if doc.Info != nil {
		c.title = doc.Info.Title
		c.version = doc.Info.Version
	}
	if doc.Paths == nil {
		return c, nil
	}
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil || op.OperationID == "" {
				continue
			}
			if prev, dup := c.operations[op.OperationID]; dup {
				return nil, fmt.Errorf("contract: operation %q declared on %s %s and %s %s",
					op.OperationID, prev.Method, prev.Path, method, path)
			}
			c.operations[op.OperationID] = Operation{
				ID:     op.OperationID,
				Method: strings.ToUpper(method),
				Path:   path,
				bodies: requestBodies(op.RequestBody),
			}
		}
	}
	return c, nil
}

func requestBodies(ref *openapi3.RequestBodyRef) map[string]*openapi3.Schema {
	out := make(map[string]*openapi3.Schema)
	if ref == nil || ref.Value == nil {
		return out
	}
	for mt, media := range ref.Value.Content {
		if media == nil || media.Schema == nil || media.Schema.Value == nil {
			continue
		}
		out[mt] = media.Schema.Value
	}
	return out
}

// Title returns the document title and version.
func (c *Contract) Title() string {
	if c.version == "" {
		return c.title
	}
	return c.title + " " + c.version
}

// Operations lists the declared operation ids in order.
func (c *Contract) Operations() []string {
	out := make([]string, 0, len(c.operations))
	for id := range c.operations {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Operation returns the operation with id.
func (c *Contract) Operation(id string) (Operation, error) {
	op, ok := c.operations[id]
	if !ok {
		return Operation{}, fmt.Errorf("%w: %q", ErrUnknownOperation, id)
	}
	return op, nil
}

// PathFor returns the endpoint path of operation id.
func (c *Contract) PathFor(id string) (string, error) {
	op, err := c.Operation(id)
	if err != nil {
		return "", err
	}
	return op.Path, nil
}

// Resolve returns desc with its path taken from the contract.
func (c *Contract) Resolve(desc entity.Descriptor) (entity.Descriptor, error) {
	path, err := c.PathFor(desc.OperationID)
	if err != nil {
		return desc, fmt.Errorf("contract: resolve %s: %w", desc.Kind, err)
	}
	desc.Path = path
	return desc, nil
}

// ViolationError lists the fields a payload got wrong.
type ViolationError struct {
	OperationID string
	Fields      map[string][]string
}

func (e *ViolationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		label := k
		if label == "" {
			label = "payload"
		}
		parts = append(parts, label+": "+strings.Join(e.Fields[k], ", "))
	}
	return fmt.Sprintf("contract: %s payload invalid: %s", e.OperationID, strings.Join(parts, "; "))
}

// ValidatePayload checks p against the request body documented for
// operationID. Multipart payloads are checked against the multipart body
// with the file part standing in as its name.
func (c *Contract) ValidatePayload(_ context.Context, operationID string, p submit.Payload) error {
	op, err := c.Operation(operationID)
	if err != nil {
		return err
	}
	media := mediaJSON
	if p.Multipart() {
		media = mediaMultipart
	}
	schema, ok := op.bodies[media]
	if !ok {
		return fmt.Errorf("%w %s on %s", ErrNoRequestBody, media, operationID)
	}

	doc, err := p.Document()
	if err != nil {
		return err
	}
	if p.Multipart() {
		doc[p.FileField] = p.File.Name
	}

	if err := schema.VisitJSON(doc, openapi3.MultiErrors()); err != nil {
		return &ViolationError{OperationID: operationID, Fields: violations(err)}
	}
	return nil
}

var _ submit.PayloadValidator = (*Contract)(nil)

func violations(err error) map[string][]string {
	out := make(map[string][]string)
	var collect func(error)
	collect = func(err error) {
		var multi openapi3.MultiError
		if errors.As(err, &multi) {
			for _, e := range multi {
				collect(e)
			}
			return
		}
		var schemaErr *openapi3.SchemaError
		if errors.As(err, &schemaErr) {
			if schemaErr.Origin != nil {
				collect(schemaErr.Origin)
				return
			}
			key := strings.Join(schemaErr.JSONPointer(), ".")
			reason := schemaErr.Reason
			if reason == "" {
				reason = schemaErr.Error()
			}
			out[key] = append(out[key], reason)
			return
		}
		out[""] = append(out[""], err.Error())
	}
	collect(err)
	return out
}
