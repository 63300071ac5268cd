package cli

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_Do_DecodesSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/suites/current" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"s1","title":"Checkout","endpoints":[{"id":"e1","status":"pending"}]}`))
	}))
	defer srv.Close()

	var s suiteView
	if err := newClient(srv.URL).get("/suites/current", &s); err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.ID != "s1" || s.Title != "Checkout" {
		t.Fatalf("suite = %+v", s)
	}
	if len(s.Endpoints) != 1 || s.Endpoints[0].Status != "pending" {
		t.Fatalf("endpoints = %+v", s.Endpoints)
	}
}

func TestClient_Do_SurfacesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"origin_mismatch","message":"suite origin is pinned"}`))
	}))
	defer srv.Close()

	err := newClient(srv.URL).post("/suites/s1/endpoints", map[string]string{"requestLine": "x"}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "suite origin is pinned") || !strings.Contains(err.Error(), "origin_mismatch") {
		t.Fatalf("err = %v", err)
	}
}

func TestClient_Do_NonJSONErrorFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream gone"))
	}))
	defer srv.Close()

	err := newClient(srv.URL).get("/vault", nil)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("err = %v", err)
	}
}

func TestClient_Do_SendsJSONBody(t *testing.T) {
	var gotCT, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		buf := make([]byte, 256)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := newClient(srv.URL).put("/vault/token", map[string]string{"value": "abc"}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	if gotCT != "application/json" {
		t.Errorf("content type = %q", gotCT)
	}
	if !strings.Contains(gotBody, `"value":"abc"`) {
		t.Errorf("body = %q", gotBody)
	}
}

func TestClient_UnreachableServer(t *testing.T) {
	err := newClient("http://127.0.0.1:0").get("/suites/current", nil)
	if err == nil || !strings.Contains(err.Error(), "cannot reach server") {
		t.Fatalf("err = %v", err)
	}
}

func TestSanitizeTerm(t *testing.T) {
	in := "ok\x1b[31mred\x00\ttab"
	out := sanitizeTerm(in)
	if strings.ContainsRune(out, '\x1b') || strings.ContainsRune(out, '\x00') {
		t.Fatalf("control chars left in %q", out)
	}
	if !strings.Contains(out, "\\x1b") || !strings.Contains(out, "\\x00") || !strings.Contains(out, "\ttab") {
		t.Fatalf("out = %q", out)
	}
}

func TestPrettyJSON(t *testing.T) {
	if got := prettyJSON(`{"a":1}`); !strings.Contains(got, "\n  \"a\": 1") {
		t.Fatalf("got %q", got)
	}
	if got := prettyJSON("not json"); got != "not json" {
		t.Fatalf("got %q", got)
	}
}

func TestIndent(t *testing.T) {
	if got := indent("a\nb", "  "); got != "  a\n  b" {
		t.Fatalf("got %q", got)
	}
}
