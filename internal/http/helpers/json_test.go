package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type payload struct {
	Name string `json:"name"`
}

func TestReadJSON(t *testing.T) {
	t.Parallel()

	read := func(body string) (payload, error) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var p payload
		err := ReadJSON(httptest.NewRecorder(), r, &p)
		return p, err
	}

	t.Run("valid", func(t *testing.T) {
		p, err := read(`{"name":"mogu"}`)
		if err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		if p.Name != "mogu" {
			t.Fatalf("name = %q", p.Name)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		if _, err := read(""); err == nil {
			t.Fatal("expected error for empty body")
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		if _, err := read(`{"name":"a","extra":1}`); err == nil {
			t.Fatal("expected error for unknown field")
		}
	})

	t.Run("trailing document", func(t *testing.T) {
		if _, err := read(`{"name":"a"}{"name":"b"}`); err == nil {
			t.Fatal("expected error for multiple documents")
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if _, err := read(`{"name":`); err == nil {
			t.Fatal("expected error for malformed JSON")
		}
	})
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, payload{Name: "x"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), `"name":"x"`) {
		t.Fatalf("body = %q", w.Body.String())
	}
}
