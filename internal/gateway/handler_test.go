package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shellgate/shellgate/internal/route"
	"github.com/shellgate/shellgate/internal/router"
)

func buildHandler(t *testing.T, specs ...string) *Handler {
	t.Helper()
	routes := make([]*route.Route, len(specs))
	for i, spec := range specs {
		r, err := route.Parse(spec)
		if err != nil {
			t.Fatalf("Parse(%q): %v", spec, err)
		}
		routes[i] = r
	}
	return New(router.New(routes), nil, nil)
}

func TestHandler_SimpleGet(t *testing.T) {
	h := buildHandler(t, "GET:/hello/{name} /bin/echo hi ${name}")

	req := httptest.NewRequest(http.MethodGet, "/hello/world", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "hi world\n" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "hi world\n")
	}
}

func TestHandler_CatchAllPath(t *testing.T) {
	h := buildHandler(t, "GET:/files/{p..} /bin/echo ${p}")

	req := httptest.NewRequest(http.MethodGet, "/files/a/b/c.txt", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "a/b/c.txt\n" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandler_QueryBindingAndCatchAll(t *testing.T) {
	h := buildHandler(t, "GET:/q?x={x}&{rest..} /bin/echo ${x}|${rest}")

	req := httptest.NewRequest(http.MethodGet, "/q?x=1&y=2&z=3", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if body != "1|y=2&z=3\n" && body != "1|z=3&y=2\n" {
		t.Errorf("body = %q", body)
	}
}

func TestHandler_PutStreaming(t *testing.T) {
	h := buildHandler(t, "PUT:/echo /bin/cat")

	req := httptest.NewRequest(http.MethodPut, "/echo", strings.NewReader("hello"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "hello" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandler_StatusAndHeaderFromSideChannel(t *testing.T) {
	script := `printf 'Status: 201\nLocation: /thing/42\n' > "$SHELL_SERVE_PIPE"; printf 'ok'`
	h := buildHandler(t, "POST:/make?s={s} /bin/sh -c ${s}")

	req := httptest.NewRequest(http.MethodPost, "/make?s="+urlEscape(script), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/thing/42" {
		t.Errorf("Location = %q, want /thing/42", got)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "ok")
	}
}

func TestHandler_NoRouteMatches(t *testing.T) {
	h := buildHandler(t, "GET:/a /bin/true")

	req := httptest.NewRequest(http.MethodGet, "/b", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestHandler_UnsupportedMethod(t *testing.T) {
	h := buildHandler(t, "GET:/a /bin/true")

	req := httptest.NewRequest(http.MethodPatch, "/a", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func urlEscape(s string) string {
	r := strings.NewReplacer(" ", "%20", "\n", "%0A", "\"", "%22", "$", "%24", ";", "%3B", "&", "%26", "/", "%2F", ">", "%3E")
	return r.Replace(s)
}
