package echoserver

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCreateRecordsJSON(t *testing.T) {
	s := New()
	req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString(`{"name":"Ana"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()

	s.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var reply map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil || reply["id"] == "" {
		t.Fatalf("expected id in reply, got %s", rec.Body.String())
	}
	got := s.Received()
	if len(got) != 1 {
		t.Fatalf("expected one recorded request, got %d", len(got))
	}
	if diff := cmp.Diff(map[string]any{"name": "Ana"}, got[0].JSON); diff != "" {
		t.Fatalf("json mismatch (-want +got):\n%s", diff)
	}
	if got[0].RequestID != "req-1" || got[0].Multipart() {
		t.Fatalf("unexpected record %+v", got[0])
	}
}

func TestCreateRecordsMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("username", "ana")
	part, _ := mw.CreateFormFile("image", "me.png")
	_, _ = part.Write([]byte("pixels"))
	_ = mw.Close()

	s := New()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	got := s.Received()[0]
	if diff := cmp.Diff(map[string]string{"username": "ana"}, got.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if len(got.Files) != 1 || got.Files[0].Field != "image" || got.Files[0].Size != 6 {
		t.Fatalf("unexpected files %+v", got.Files)
	}
}

func TestConfiguredFailure(t *testing.T) {
	s := New(
		WithStatus("/proformas", http.StatusUnprocessableEntity),
		WithErrorBody("/proformas", map[string]any{"errors": map[string]any{"email": []string{"taken"}}}),
	)
	req := httptest.NewRequest(http.MethodPost, "/proformas", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"taken"`)) {
		t.Fatalf("expected configured error body, got %s", rec.Body.String())
	}

	s.SetStatus("/proformas", http.StatusInternalServerError)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/proformas", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	s.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if len(s.Received()) != 2 {
		t.Fatalf("failed requests are still recorded")
	}
}

func TestRejectsUnsupportedBodies(t *testing.T) {
	s := New()
	for name, ct := range map[string]string{"missing": "", "text": "text/plain"} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString("x"))
			if ct != "" {
				req.Header.Set("Content-Type", ct)
			}
			rec := httptest.NewRecorder()
			s.Routes().ServeHTTP(rec, req)
			if rec.Code != http.StatusUnsupportedMediaType {
				t.Fatalf("expected 415, got %d", rec.Code)
			}
		})
	}
	if len(s.Received()) != 0 {
		t.Fatalf("rejected bodies must not be recorded")
	}
}

func TestReceivedEndpointAndReset(t *testing.T) {
	s := New()
	routes := s.Routes()
	req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString(`{"name":"Ana"}`))
	req.Header.Set("Content-Type", "application/json")
	routes.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_received", nil))
	var listed []Received
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil || len(listed) != 1 {
		t.Fatalf("expected one listed request, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/_received", nil))
	if rec.Code != http.StatusNoContent || len(s.Received()) != 0 {
		t.Fatalf("reset failed: %d %d", rec.Code, len(s.Received()))
	}

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
}
