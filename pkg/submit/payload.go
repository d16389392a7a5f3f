// Package submit turns a validated draft into exactly one HTTP request and
// classifies the response into an Outcome that drives the user-facing side
// effects: notification, list invalidation and closing the form.
package submit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/goliatone/go-formdraft/pkg/attachment"
	"github.com/goliatone/go-formdraft/pkg/schema"
)

// Payload is the transport projection of a draft. It references the
// attachment and reads its bytes only when the body is produced.
type Payload struct {
	Fields    []schema.FieldValue
	File      *attachment.File
	FileField string
}

// Prepare builds the payload for fields. A nil file yields a JSON payload;
// otherwise the payload is multipart with the file sent under fileField.
func Prepare(fields []schema.FieldValue, file *attachment.File, fileField string) Payload {
	p := Payload{Fields: append([]schema.FieldValue(nil), fields...)}
	if file != nil {
		f := *file
		p.File = &f
		p.FileField = strings.TrimSpace(fileField)
		if p.FileField == "" {
			p.FileField = "file"
		}
	}
	return p
}

// Multipart reports whether the payload carries a file.
func (p Payload) Multipart() bool {
	return p.File != nil
}

// Names lists the field names in payload order.
func (p Payload) Names() []string {
	out := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		out[i] = f.Name
	}
	return out
}

// JSON encodes the fields as one object, keys in schema order and numbers
// as JSON numbers.
func (p Payload) JSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("submit: encode %s: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Document returns the fields decoded into generic JSON values, the form
// schema validators expect.
func (p Payload) Document() (map[string]any, error) {
	raw, err := p.JSON()
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("submit: decode payload: %w", err)
	}
	return out, nil
}

// Body produces the request body and its content type. Multipart bodies are
// streamed from the attachment.
func (p Payload) Body() (string, io.Reader, error) {
	if !p.Multipart() {
		raw, err := p.JSON()
		if err != nil {
			return "", nil, err
		}
		return "application/json", bytes.NewReader(raw), nil
	}

	values := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		v, err := partValue(f)
		if err != nil {
			return "", nil, err
		}
		values[i] = v
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(p.writeMultipart(mw, values))
	}()
	return mw.FormDataContentType(), pr, nil
}

func (p Payload) writeMultipart(mw *multipart.Writer, values []string) error {
	for i, f := range p.Fields {
		if err := mw.WriteField(f.Name, values[i]); err != nil {
			return err
		}
	}

	src, err := p.File.Reader()
	if err != nil {
		return err
	}
	defer src.Close()

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.FileField, p.File.Name))
	contentType := p.File.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}
	return mw.Close()
}

// partValue renders one field as multipart text: strings as-is, numbers in
// decimal, lists and records as JSON.
func partValue(f schema.FieldValue) (string, error) {
	switch v := f.Value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	raw, err := json.Marshal(f.Value)
	if err != nil {
		return "", fmt.Errorf("submit: encode %s: %w", f.Name, err)
	}
	return string(raw), nil
}
