package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kapu/checkers-arena-go/internal/hub"
	"github.com/kapu/checkers-arena-go/internal/msgcat"
	"github.com/kapu/checkers-arena-go/internal/profile"
	"github.com/kapu/checkers-arena-go/internal/render"
	"github.com/kapu/checkers-arena-go/internal/room"
)

func newTestServer(t *testing.T, upstream string) (*Server, *room.Registry) {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	registry := room.NewRegistry(room.Config{})
	t.Cleanup(registry.Close)

	pub := t.TempDir()
	if err := os.WriteFile(filepath.Join(pub, "index.html"), []byte("<html>checkers</html>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}

	s := New(
		hub.New(registry, cat),
		registry,
		profile.NewClient(upstream),
		render.NewSVGBoardRenderer(),
		cat,
		pub,
	)
	return s, registry
}

func TestStaticIndex(t *testing.T) {
	s, _ := newTestServer(t, "http://localhost:0")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "checkers") {
		t.Fatalf("index not served: %d %q", rec.Code, rec.Body.String())
	}
}

func TestProfilePassThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "12345" {
			t.Errorf("unexpected id %q", r.URL.Query().Get("id"))
		}
		_, _ = w.Write([]byte(`{"stage_name":"Ada","level":9}`))
	}))
	defer upstream.Close()

	s, _ := newTestServer(t, upstream.URL)

	// The id field is accepted both as a JSON number and as a string.
	for _, body := range []string{`{"id":12345}`, `{"id":"12345"}`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/user", strings.NewReader(body))
		s.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("body %s: status %d", body, rec.Code)
		}
		if rec.Body.String() != `{"stage_name":"Ada","level":9}` {
			t.Fatalf("body %s: document not verbatim: %s", body, rec.Body.String())
		}
	}
}

func TestProfileUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	s, _ := newTestServer(t, upstream.URL)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/user", strings.NewReader(`{"id":"1"}`))
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("error body not JSON: %v", err)
	}
	if out["error"] == "" {
		t.Fatalf("empty error message: %v", out)
	}
}

func TestProfileMissingID(t *testing.T) {
	s, _ := newTestServer(t, "http://localhost:0")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/user", strings.NewReader(`{}`))
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestBoardImage(t *testing.T) {
	s, registry := newTestServer(t, "http://localhost:0")

	r, err := registry.Create(room.Identity{ConnID: "c1", Name: "Ada"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	// No game yet: nothing to render.
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/"+r.ID+"/board.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before start, got %d", rec.Code)
	}

	if _, err := r.AddPlayer(room.Identity{ConnID: "c2", Name: "Bora"}); err != nil {
		t.Fatalf("add player: %v", err)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/"+r.ID+"/board.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty image body")
	}
}

func TestBoardImageUnknownRoom(t *testing.T) {
	s, _ := newTestServer(t, "http://localhost:0")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/NOPE/board.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
