// Package gateway is the HTTP adapter of spec.md §4.6: it turns an
// *http.Request into a route.Request, asks a Router to execute it, and
// streams the resulting child process output back as the HTTP response.
package gateway

import (
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/shellgate/shellgate/internal/route"
	"github.com/shellgate/shellgate/internal/router"
)

// Handler implements http.Handler by delegating each request to the
// current route table. The table is held behind an atomic pointer so a
// hot reload (internal/watch) can swap it without any request observing a
// torn or partial table, per spec.md §5 and §4.9.
type Handler struct {
	current atomic.Pointer[router.Router]
	log     *slog.Logger
	stderr  route.StderrSink
}

// New builds a Handler serving an initial route table.
func New(r *router.Router, logger *slog.Logger, stderr route.StderrSink) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{log: logger, stderr: stderr}
	h.current.Store(r)
	return h
}

// Swap atomically replaces the live route table, used by the hot-reload
// watcher. In-flight requests keep running against whichever table they
// already captured a reference to.
func (h *Handler) Swap(r *router.Router) {
	h.current.Store(r)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method, ok := translateMethod(r.Method)
	if !ok {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	req := descriptorFromHTTP(method, r)

	proc, err := h.current.Load().Execute(r.Context(), req, r.Method+" "+r.URL.Path, h.stderr)
	if err != nil {
		if err == router.ErrNotFound {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.log.Error("failed to spawn handler", "method", r.Method, "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if r.ContentLength != 0 && r.Body != nil {
		if err := proc.LoadStdin(r.Body); err != nil {
			h.log.Error("stdin copy failed", "method", r.Method, "path", r.URL.Path, "error", err)
			proc.Close()
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}

	resp, err := proc.Wait()
	if err != nil {
		h.log.Error("handler wait failed", "method", r.Method, "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer resp.Stdout.Close()

	for _, hdr := range resp.Headers {
		w.Header().Add(hdr.Name, hdr.Value)
	}
	w.WriteHeader(resp.Status)

	if _, err := io.Copy(w, resp.Stdout); err != nil {
		h.log.Warn("stdout streaming interrupted", "method", r.Method, "path", r.URL.Path, "error", err)
	}
}

// translateMethod maps an HTTP method string to the internal route.Method,
// rejecting anything outside {GET, PUT, POST, DELETE}.
func translateMethod(httpMethod string) (route.Method, bool) {
	switch route.Method(httpMethod) {
	case route.GET, route.PUT, route.POST, route.DELETE:
		return route.Method(httpMethod), true
	default:
		return "", false
	}
}

// descriptorFromHTTP builds a route.Request from an *http.Request: the
// path, a multi-value-joined query map, and all headers.
func descriptorFromHTTP(method route.Method, r *http.Request) *route.Request {
	query := make(map[string]string, len(r.URL.Query()))
	for k, values := range r.URL.Query() {
		query[k] = route.JoinMultiValue(values)
	}

	headers := make(map[string]string, len(r.Header))
	for k, values := range r.Header {
		headers[k] = route.JoinMultiValue(values)
	}

	return route.NewRequest(method, r.URL.Path, query, headers)
}
