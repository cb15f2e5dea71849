package middleware

import "net/http"

// CORS allows any origin. Preflight requests also learn the allowed headers and methods.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
			h.Set("Access-Control-Allow-Methods", "POST,OPTIONS")
		}
		next.ServeHTTP(w, r)
	})
}
