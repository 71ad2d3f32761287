package server

import "net/http"

// authMiddleware rejects any request whose SYNCER-API-KEY header doesn't
// equal the configured key, before the wrapped handler runs — so a rejected
// request never has a chance to perform its side effect. An empty APIKey
// disables the check.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.APIKey != "" && r.Header.Get("SYNCER-API-KEY") != s.APIKey {
			s.log.WithField("path", r.URL.Path).Warn("unauthorized request")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
