package httpapi

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// newBackendProxy forwards /api/<path> to <backend>/<path>. Browser
// credentials are dropped; the transport attaches the session token.
func (s *Server) newBackendProxy(backend *url.URL, transport http.RoundTripper) http.Handler {
	basePath := strings.TrimRight(backend.Path, "/")
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Scheme = backend.Scheme
			pr.Out.URL.Host = backend.Host
			pr.Out.URL.Path = basePath + strings.TrimPrefix(pr.In.URL.Path, "/api")
			pr.Out.URL.RawPath = ""
			pr.Out.Host = backend.Host
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del("Cookie")
			if id := middleware.GetReqID(pr.In.Context()); id != "" {
				pr.Out.Header.Set("X-Request-ID", id)
			}
			pr.SetXForwarded()
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			ev := s.logger.Warn().Err(err).Str("path", r.URL.Path)
			if st, ok := sessionFromContext(r.Context()); ok {
				ev = ev.Str("subject", st.Subject)
			}
			ev.Msg("backend request failed")
			respondError(w, http.StatusBadGateway, "BACKEND_ERROR", "backend unavailable")
		},
	}
}
