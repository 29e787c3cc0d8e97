package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Require rejects requests without a valid bearer token
func (s *Service) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			unauthorized(w, "Authorization token is required.")
			return
		}
		userID, err := s.Verify(strings.TrimSpace(token))
		if err != nil {
			unauthorized(w, "Invalid or expired token.")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
	})
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": message, "error": message})
}
