package submit_test

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdraft/pkg/attachment"
	"github.com/goliatone/go-formdraft/pkg/entity"
	"github.com/goliatone/go-formdraft/pkg/submit"
)

func userFields() entity.User {
	u := entity.UserSchema.Defaults()
	u.Username = "ana"
	u.Password = "secret-pass"
	u.Email = "a@x.com"
	u.Name = "Ana"
	u.Lastname = "Rojas"
	u.DocumentNumber = "12345"
	u.Phone = "70000000"
	return u
}

func TestPrepareWithoutAttachmentIsJSON(t *testing.T) {
	u := userFields()
	p := submit.Prepare(entity.UserSchema.Project(&u), nil, "image")
	if p.Multipart() {
		t.Fatalf("payload without file must not be multipart")
	}

	contentType, body, err := p.Body()
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	if contentType != "application/json" {
		t.Fatalf("unexpected content type %q", contentType)
	}
	raw, _ := io.ReadAll(body)
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc) != len(entity.UserSchema.Names()) {
		t.Fatalf("expected every draft field, got %v", doc)
	}
	if doc["role"] != float64(entity.RoleEmployee) || doc["document_type"] != float64(entity.DocumentDNI) {
		t.Fatalf("numeric fields must stay JSON numbers: %v", doc)
	}
	if !strings.HasPrefix(string(raw), `{"username":"ana","password"`) {
		t.Fatalf("keys must follow schema order: %s", raw)
	}
}

func TestPrepareWithAttachmentIsMultipart(t *testing.T) {
	u := userFields()
	file := attachment.FromBytes("me.png", "image/png", []byte("pixels"))
	p := submit.Prepare(entity.UserSchema.Project(&u), &file, "image")
	if !p.Multipart() {
		t.Fatalf("payload with file must be multipart")
	}

	contentType, body, err := p.Body()
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("unexpected content type %q: %v", contentType, err)
	}

	reader := multipart.NewReader(body, params["boundary"])
	fields := map[string]string{}
	var fileParts []string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		data, _ := io.ReadAll(part)
		if part.FileName() != "" {
			fileParts = append(fileParts, part.FormName()+":"+part.FileName()+":"+string(data))
			continue
		}
		fields[part.FormName()] = string(data)
	}

	if diff := cmp.Diff([]string{"image:me.png:pixels"}, fileParts); diff != "" {
		t.Fatalf("file parts mismatch (-want +got):\n%s", diff)
	}
	if len(fields) != len(entity.UserSchema.Names()) {
		t.Fatalf("expected every draft field as a part, got %v", fields)
	}
	if fields["role"] != "2" || fields["document_type"] != "1" {
		t.Fatalf("numbers must be rendered in decimal: %v", fields)
	}
}

func TestMultipartListsAreJSONEncoded(t *testing.T) {
	p := entity.ProformaSchema.Defaults()
	p.Observations = []string{"one", "two"}
	p.Packages = []entity.PackageItem{{Name: "Tent", Quantity: 2, UnitPrice: 9.5}}
	file := attachment.FromBytes("logo.png", "image/png", []byte("x"))
	payload := submit.Prepare(entity.ProformaSchema.Project(&p), &file, "")

	_, body, err := payload.Body()
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	raw, _ := io.ReadAll(body)
	text := string(raw)
	for _, want := range []string{`["one","two"]`, `"unit_price":9.5`, `name="file"; filename="logo.png"`} {
		if !strings.Contains(text, want) {
			t.Fatalf("multipart body missing %s:\n%s", want, text)
		}
	}
}

func TestParseErrorPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string][]string
	}{
		{
			name: "errors map",
			body: `{"errors":{"email":["taken"],"phone":"invalid"}}`,
			want: map[string][]string{"email": {"taken"}, "phone": {"invalid"}},
		},
		{
			name: "errors list",
			body: `{"message":"Validation failed","errors":[{"field":"username","message":"exists"}]}`,
			want: map[string][]string{"": {"Validation failed"}, "username": {"exists"}},
		},
		{
			name: "flat",
			body: `{"email":"taken","status":400}`,
			want: map[string][]string{"email": {"taken"}},
		},
		{name: "not json", body: `<html>`, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := submit.ParseErrorPayload([]byte(tt.body))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
