package httpapi

import (
	"net/http"
)

// requireSession rejects calls while no session is open, without
// contacting the backend.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := s.authSvc.Session()
		if !st.IsAuthenticated() {
			respondJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error":    "UNAUTHORIZED",
				"message":  "no active session",
				"redirect": s.loginPath,
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), st)))
	})
}
