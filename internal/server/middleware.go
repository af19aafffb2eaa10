package server

import (
	"encoding/json"
	"net/http"
)

// requireJSON rejects request bodies that do not declare exactly
// application/json. Parameterized forms such as
// "application/json; charset=utf-8" are rejected too.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "unsupported_media_type"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
