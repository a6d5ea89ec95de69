package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cmms/internal/validation"
)

func TestJSONEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	JSONMeta(w, []string{"AST-001"}, 1, 1, 50)

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}
	var body struct {
		Data []string `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 1 || body.Meta.Total != 1 {
		t.Errorf("got %+v", body)
	}
}

func TestCreatedAndErr(t *testing.T) {
	w := httptest.NewRecorder()
	Created(w, map[string]string{"id": "WO-2026-006"})
	if w.Code != http.StatusCreated {
		t.Errorf("got %d want 201", w.Code)
	}

	w = httptest.NewRecorder()
	Err(w, "not found", http.StatusNotFound)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"error":"not found"`) {
		t.Errorf("got %d %s", w.Code, w.Body.String())
	}
}

func TestInvalid(t *testing.T) {
	ve := &validation.ValidationErrors{}
	ve.Add("title", "is required")
	w := httptest.NewRecorder()
	Invalid(w, ve)

	if w.Code != http.StatusBadRequest {
		t.Errorf("got %d want 400", w.Code)
	}
	var body struct {
		Error  string                       `json:"error"`
		Fields []validation.ValidationError `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Fields) != 1 || body.Fields[0].Field != "title" {
		t.Errorf("got %+v", body)
	}
}

func TestDecodeBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"Oil change"}`))
	var v struct{ Title string }
	if err := DecodeBody(r, &v); err != nil || v.Title != "Oil change" {
		t.Errorf("got %+v, %v", v, err)
	}
}
